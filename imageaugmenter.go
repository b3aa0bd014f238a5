// Package imageaugmenter provides geometric data augmentation for object-detection and
// segmentation datasets.
//
// An op list (resize, crop, rotate, flip, zoom, affine, shear) is composed into one affine
// matrix for the pixels, while bounding boxes and polygons are carried through the same list
// with each operation's own formula. Both paths share their canvas bookkeeping, so the warped
// image and the transformed labels always agree on the final size.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imageaugmenter "github.com/menta2k/image-augmenter"
//		"github.com/menta2k/image-augmenter/pkg/types"
//	)
//
//	func main() {
//		aug := imageaugmenter.New()
//
//		list, err := aug.ParseOperations([]byte(`[{"name": "resize", "resize_mode": "stretch_to", "width": 640, "height": 640}]`))
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := aug.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		anns := types.Annotations{Boxes: []types.BoundingBox{{XMin: 100, YMin: 100, XMax: 200, YMax: 200}}}
//		out, err := aug.Augment(context.Background(), img, anns, list)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Print(out.Labels.Detection[0])
//	}
//
// The package consists of these components:
//
// 1. Ops (pkg/ops): the operation model and its YAML/JSON decoding
// 2. Affine (pkg/affine): composes an op list into one matrix and canvas
// 3. Annotate (pkg/annotate): moves boxes and polygons through an op list
// 4. YOLO (pkg/yolo): normalized label text in both directions
// 5. Resample (pkg/resample) and Processing (pkg/processing): pixels and files
// 6. Dataset (pkg/dataset) and Pipeline (pkg/pipeline): batch augmentation
package imageaugmenter

import (
	"context"
	"image"

	"github.com/menta2k/image-augmenter/internal/logger"
	"github.com/menta2k/image-augmenter/pkg/affine"
	"github.com/menta2k/image-augmenter/pkg/annotate"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/types"
	"github.com/menta2k/image-augmenter/pkg/yolo"
)

// Version of the image augmenter library
const Version = "1.0.0"

// Augmenter provides a high-level interface over the augmentation packages
type Augmenter struct {
	processor   *processing.Processor
	composer    *affine.Composer
	transformer *annotate.Transformer
	runner      *pipeline.Runner
}

// New creates a new Augmenter with default configuration
func New() *Augmenter {
	return NewWithConfig(pipeline.DefaultConfig())
}

// NewWithConfig creates a new Augmenter with custom configuration
func NewWithConfig(config pipeline.Config) *Augmenter {
	return &Augmenter{
		processor:   processing.NewProcessor(),
		composer:    affine.NewWithConfig(affine.Config{Seed: config.Seed}),
		transformer: annotate.NewWithConfig(annotate.Config{Seed: config.Seed}),
		runner:      pipeline.NewWithConfig(config),
	}
}

// SetLogger routes warnings about skipped operations to l
func (a *Augmenter) SetLogger(l logger.Logger) {
	a.composer.SetLogger(l)
	a.transformer.SetLogger(l)
	a.runner.SetLogger(l)
}

// ParseOperations decodes a YAML or JSON op list
func (a *Augmenter) ParseOperations(data []byte) ([]ops.Operation, error) {
	return ops.Parse(data)
}

// Compose builds the matrix and final canvas for list applied to an image of size original
func (a *Augmenter) Compose(original types.Canvas, list []ops.Operation) (affine.Result, error) {
	return a.composer.Build(original, list)
}

// TransformAnnotations carries anns, which live on original, through list
func (a *Augmenter) TransformAnnotations(anns types.Annotations, list []ops.Operation, original types.Canvas) (annotate.Result, error) {
	return a.transformer.Transform(anns, list, original)
}

// EncodeYOLO normalizes annotations into YOLO lines after checking both canvases agree
func (a *Augmenter) EncodeYOLO(composed, transformed types.Canvas, anns types.Annotations) (yolo.Labels, error) {
	return yolo.Encode(composed, transformed, anns)
}

// Augment warps img and moves anns through list in one call
func (a *Augmenter) Augment(ctx context.Context, img image.Image, anns types.Annotations, list []ops.Operation) (pipeline.Outcome, error) {
	return a.runner.Run(ctx, pipeline.Input{Image: img, Annotations: anns}, list)
}

// LoadImage loads an image from a file path or http(s) URL
func (a *Augmenter) LoadImage(source string) (image.Image, error) {
	return a.processor.LoadImageSmart(context.Background(), source)
}

// SaveImage saves an image, picking the format from format ("jpg", "png" or "webp")
func (a *Augmenter) SaveImage(img image.Image, path, format string, quality int) error {
	return a.processor.SaveImage(img, path, format, quality, false)
}
