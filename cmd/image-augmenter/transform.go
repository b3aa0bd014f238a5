package main

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/menta2k/image-augmenter/internal/utils"
	"github.com/menta2k/image-augmenter/pkg/dataset"
	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/types"
	"github.com/menta2k/image-augmenter/pkg/yolo"
)

func newTransformCmd(a *app) *cobra.Command {
	var (
		imagePath, labelsPath, classesPath string
		opsPath, outDir, name              string
	)
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Augment one image and its YOLO labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath == "" {
				return fmt.Errorf("--image is required")
			}
			list, err := readOps(cmd, opsPath)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.Output.Dir
			}
			if name == "" {
				base := path.Base(imagePath)
				name = utils.SanitizeFilename(strings.TrimSuffix(base, path.Ext(base)))
			}

			proc := processing.NewProcessorWithFs(osFs)
			img, err := proc.LoadImageSmart(cmd.Context(), imagePath)
			if err != nil {
				return err
			}
			if err := proc.ValidateImage(img, a.cfg.Pipeline.MinImageSize); err != nil {
				return err
			}
			b := img.Bounds()
			canvas := types.Canvas{Width: b.Dx(), Height: b.Dy()}

			var classNames []string
			if classesPath != "" {
				data, err := afero.ReadFile(osFs, classesPath)
				if err != nil {
					return fmt.Errorf("failed to read classes: %w", err)
				}
				classNames = strings.Fields(string(data))
			}

			var anns types.Annotations
			if labelsPath != "" {
				f, err := osFs.Open(labelsPath)
				if err != nil {
					return fmt.Errorf("failed to open labels: %w", err)
				}
				anns, err = yolo.Parse(f, canvas, classNames)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", labelsPath, err)
				}
			}

			r, err := a.runner()
			if err != nil {
				return err
			}
			out, err := r.Run(cmd.Context(), pipeline.Input{Name: name, Image: img, Annotations: anns}, list)
			if err != nil {
				return err
			}

			w, err := newWriter(a, outDir)
			if err != nil {
				return err
			}
			if err := w.Write(name, out.Image, out.Labels); err != nil {
				return err
			}
			if err := w.WriteClasses(classNames); err != nil {
				return err
			}
			if err := writeOverlay(a, outDir, out); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s, %d boxes, %d polygons, %d ops skipped\n",
				name, canvas, out.Canvas, len(out.Annotations.Boxes), len(out.Annotations.Polygons), out.Summary.SkippedOps)
			for _, warning := range out.Summary.Warnings {
				a.log.Warn(warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "input image path or URL (jpg/png/webp)")
	cmd.Flags().StringVarP(&labelsPath, "labels", "l", "", "YOLO label file for the image")
	cmd.Flags().StringVar(&classesPath, "classes", "", "class names file, one per line")
	cmd.Flags().StringVarP(&opsPath, "ops", "o", "", "op list file (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&name, "name", "", "output sample name (default: input file name)")
	return cmd
}

func newWriter(a *app, outDir string) (*dataset.Writer, error) {
	return dataset.NewWriter(osFs, outDir, dataset.WriterConfig{
		Format:       a.cfg.Output.Format,
		Quality:      a.cfg.Output.Quality,
		Lossless:     a.cfg.Output.Lossless,
		Segmentation: a.cfg.Output.Segmentation,
	})
}

// writeOverlay saves a debug image with the transformed annotations drawn on it
func writeOverlay(a *app, outDir string, out pipeline.Outcome) error {
	if !a.cfg.Output.DebugOverlay || out.Image == nil {
		return nil
	}
	proc := processing.NewProcessorWithFs(osFs)
	overlay := proc.CreateDebugOverlay(out.Image, out.Annotations)
	dst := filepath.Join(outDir, "debug", filepath.FromSlash(out.Name)+".png")
	return proc.SaveImage(overlay, dst, "png", 0, false)
}
