// Package pipeline runs op lists over images and their annotations.
//
// For every input the composed matrix and the transformed annotations are produced
// independently and must land on the same canvas before labels are encoded.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/image-augmenter/internal/logger"
	"github.com/menta2k/image-augmenter/pkg/affine"
	"github.com/menta2k/image-augmenter/pkg/annotate"
	"github.com/menta2k/image-augmenter/pkg/geometry"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/resample"
	"github.com/menta2k/image-augmenter/pkg/types"
	"github.com/menta2k/image-augmenter/pkg/yolo"
)

// Config holds configuration for the runner
type Config struct {
	// Seed for random crops without their own seed
	Seed uint64
	// Workers bounds how many images a batch processes at once
	Workers       int
	Interpolation resample.Interpolation
}

// DefaultConfig returns the runner defaults
func DefaultConfig() Config {
	return Config{Workers: 4, Interpolation: resample.BiLinear}
}

// Input is one image and its annotations. Image may be nil to transform annotations only,
// in which case Canvas gives the original size.
type Input struct {
	Name        string
	Image       image.Image
	Canvas      types.Canvas
	Annotations types.Annotations
	// Seed overrides the runner seed for this input
	Seed *uint64
}

// Outcome is the result of running an op list over one input
type Outcome struct {
	Name        string
	Matrix      geometry.Matrix
	Canvas      types.Canvas
	Border      geometry.Border
	Annotations types.Annotations
	Labels      yolo.Labels
	// Image is nil when the input had no image
	Image   *image.NRGBA
	Summary types.Summary
}

// Runner applies op lists to inputs
type Runner struct {
	config      Config
	composer    *affine.Composer
	transformer *annotate.Transformer
	warper      *resample.Warper
	log         logger.Logger
	progress    func(name string, err error)
}

// New creates a Runner with default configuration
func New() *Runner {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Runner with custom configuration
func NewWithConfig(config Config) *Runner {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	r := &Runner{
		config:      config,
		composer:    affine.NewWithConfig(affine.Config{Seed: config.Seed}),
		transformer: annotate.NewWithConfig(annotate.Config{Seed: config.Seed}),
		warper:      resample.New(config.Interpolation),
	}
	r.SetLogger(nil)
	return r
}

// SetLogger sets the logger for the runner and the stages it drives
func (r *Runner) SetLogger(l logger.Logger) {
	r.log = logger.OrNop(l)
	r.composer.SetLogger(r.log)
	r.transformer.SetLogger(r.log)
}

// OnProgress registers fn to be called after every batch item, with the item error if it failed
func (r *Runner) OnProgress(fn func(name string, err error)) {
	r.progress = fn
}

// Run applies list to in. Random crops are pinned to one seed first so the image and the
// annotations see the same crop.
func (r *Runner) Run(ctx context.Context, in Input, list []ops.Operation) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	canvas := in.Canvas
	if in.Image != nil {
		b := in.Image.Bounds()
		actual := types.Canvas{Width: b.Dx(), Height: b.Dy()}
		if canvas != (types.Canvas{}) && canvas != actual {
			return Outcome{}, fmt.Errorf("%s: canvas %s does not match image %s", in.Name, canvas, actual)
		}
		canvas = actual
	}

	seed := r.config.Seed
	if in.Seed != nil {
		seed = *in.Seed
	}
	pinned := ops.PinSeeds(list, seed)

	composed, err := r.composer.Build(canvas, pinned)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", in.Name, err)
	}
	transformed, err := r.transformer.Transform(in.Annotations, pinned, canvas)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", in.Name, err)
	}
	labels, err := yolo.Encode(composed.Canvas, transformed.Canvas, transformed.Annotations)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", in.Name, err)
	}

	out := Outcome{
		Name:        in.Name,
		Matrix:      composed.Matrix,
		Canvas:      composed.Canvas,
		Border:      composed.Border,
		Annotations: transformed.Annotations,
		Labels:      labels,
		Summary:     transformed.Summary,
	}
	if in.Image != nil {
		out.Image = r.warper.Warp(in.Image, composed.Matrix, composed.Canvas, composed.Border)
	}

	r.log.Debug("augmented", "name", in.Name, "canvas", out.Canvas.String(),
		"applied", out.Summary.AppliedOps, "skipped", out.Summary.SkippedOps,
		"annotations", fmt.Sprintf("%d/%d", out.Annotations.Len(), in.Annotations.Len()))
	return out, nil
}

// Source loads one batch input on demand
type Source struct {
	Name string
	Load func(ctx context.Context) (Input, error)
}

// Sink receives every successful outcome. Calls are serialized.
type Sink func(ctx context.Context, out Outcome) error

// Failure records why one batch item failed
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a batch run
type Report struct {
	RunID     string
	Processed int
	Failed    int
	Failures  []Failure
	Summary   types.Summary
}

// RunBatch processes sources on up to Workers goroutines. A failing item is recorded in the
// report and the rest continue. When ctx is canceled pending items are abandoned and the
// partial report is returned with the context error.
func (r *Runner) RunBatch(ctx context.Context, sources []Source, list []ops.Operation, sink Sink) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	r.log.Info("starting batch", "run_id", report.RunID, "items", len(sources), "workers", r.config.Workers)

	var (
		mu     sync.Mutex
		sinkMu sync.Mutex
	)
	record := func(name string, out *Outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, Failure{Name: name, Err: err})
			r.log.Warn("item failed", "run_id", report.RunID, "name", name, "error", err)
		} else {
			report.Processed++
			report.Summary.Add(out.Summary)
		}
		if r.progress != nil {
			r.progress(name, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)

	for _, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in, err := src.Load(gctx)
			if err != nil {
				record(src.Name, nil, fmt.Errorf("failed to load: %w", err))
				return nil
			}
			if in.Name == "" {
				in.Name = src.Name
			}
			out, err := r.Run(gctx, in, list)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				record(src.Name, nil, err)
				return nil
			}
			if sink != nil {
				sinkMu.Lock()
				err = sink(gctx, out)
				sinkMu.Unlock()
				if err != nil {
					record(src.Name, nil, fmt.Errorf("failed to store: %w", err))
					return nil
				}
			}
			record(src.Name, &out, nil)
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	r.log.Info("batch finished", "run_id", report.RunID, "processed", report.Processed, "failed", report.Failed)
	if err != nil {
		return report, fmt.Errorf("batch %s interrupted: %w", report.RunID, err)
	}
	return report, nil
}
