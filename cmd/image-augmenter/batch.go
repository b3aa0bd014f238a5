package main

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/menta2k/image-augmenter/pkg/dataset"
	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/types"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		inputDir, opsPath, outDir string
		patterns                  []string
		copies                    int
		noProgress                bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Augment every image of a YOLO dataset directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputDir == "" {
				return fmt.Errorf("--input is required")
			}
			list, err := readOps(cmd, opsPath)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.Output.Dir
			}
			if !cmd.Flags().Changed("copies") {
				copies = a.cfg.Pipeline.Copies
			}
			if copies < 1 {
				return fmt.Errorf("--copies must be at least 1")
			}

			ds, err := dataset.Open(osFs, inputDir)
			if err != nil {
				return err
			}
			classNames, err := ds.ClassNames()
			if err != nil {
				return err
			}
			samples, err := ds.Discover(patterns...)
			if err != nil {
				return err
			}
			a.log.Info("discovered dataset", "root", inputDir, "images", len(samples), "classes", len(classNames))

			w, err := newWriter(a, outDir)
			if err != nil {
				return err
			}
			if err := w.WriteClasses(classNames); err != nil {
				return err
			}

			r, err := a.runner()
			if err != nil {
				return err
			}
			sources := batchSources(a, ds, samples, classNames, copies)

			if !noProgress {
				bar := progressbar.NewOptions(len(sources),
					progressbar.OptionSetDescription("augmenting"),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				r.OnProgress(func(string, error) { _ = bar.Add(1) })
				defer bar.Finish()
			}

			report, err := r.RunBatch(cmd.Context(), sources, list, func(_ context.Context, out pipeline.Outcome) error {
				if err := w.Write(out.Name, out.Image, out.Labels); err != nil {
					return err
				}
				return writeOverlay(a, outDir, out)
			})

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d processed, %d failed, %d ops skipped, %d boxes and %d polygons dropped\n",
				report.RunID, report.Processed, report.Failed, report.Summary.SkippedOps,
				report.Summary.DroppedBoxes, report.Summary.DroppedPolygons)
			for _, f := range report.Failures {
				a.log.Error("failed", "name", f.Name, "error", f.Err)
			}
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d items failed", report.Failed, len(sources))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "dataset root directory")
	cmd.Flags().StringArrayVarP(&patterns, "pattern", "p", nil, "image glob relative to the root (default "+dataset.DefaultPattern+")")
	cmd.Flags().StringVarP(&opsPath, "ops", "o", "", "op list file (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().IntVarP(&copies, "copies", "n", 1, "augmented variants per image (default from config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// batchSources expands samples into one source per augmented copy. Each copy gets its own
// seed so random crops differ between copies but stay reproducible across runs.
func batchSources(a *app, ds *dataset.Dataset, samples []dataset.Sample, classNames []string, copies int) []pipeline.Source {
	proc := processing.NewProcessorWithFs(osFs)
	sources := make([]pipeline.Source, 0, len(samples)*copies)
	for _, s := range samples {
		for c := range copies {
			name := s.Name
			if copies > 1 {
				name = fmt.Sprintf("%s_aug%d", s.Name, c)
			}
			seed := a.cfg.Pipeline.Seed + uint64(len(sources))
			sources = append(sources, pipeline.Source{
				Name: name,
				Load: func(context.Context) (pipeline.Input, error) {
					data, err := ds.ReadImage(s)
					if err != nil {
						return pipeline.Input{}, err
					}
					img, err := proc.Decode(data)
					if err != nil {
						return pipeline.Input{}, fmt.Errorf("%s: %w", s.ImagePath, err)
					}
					if err := proc.ValidateImage(img, a.cfg.Pipeline.MinImageSize); err != nil {
						return pipeline.Input{}, err
					}
					b := img.Bounds()
					anns, err := ds.LoadAnnotations(s, types.Canvas{Width: b.Dx(), Height: b.Dy()}, classNames)
					if err != nil {
						return pipeline.Input{}, err
					}
					return pipeline.Input{Name: name, Image: img, Annotations: anns, Seed: &seed}, nil
				},
			})
		}
	}
	return sources
}
