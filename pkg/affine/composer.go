// Package affine folds an op list into the single transform an image resampler needs.
package affine

import (
	"fmt"

	"github.com/menta2k/image-augmenter/internal/logger"
	"github.com/menta2k/image-augmenter/pkg/geometry"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Composer builds composed transforms for op lists
type Composer struct {
	config Config
	log    logger.Logger
}

// Config holds configuration for the composer
type Config struct {
	// Seed for random crops that carry no seed of their own
	Seed uint64
}

// Result is the composed transform for one op list
type Result struct {
	// Matrix maps original-image pixels to final-canvas pixels
	Matrix geometry.Matrix
	Canvas types.Canvas
	// Border is the fill style of the last letterbox resize, black when there is none
	Border  geometry.Border
	Summary types.Summary
}

// New creates a new Composer with default configuration
func New() *Composer {
	return &Composer{log: logger.NewNop()}
}

// NewWithConfig creates a new Composer with custom configuration
func NewWithConfig(config Config) *Composer {
	return &Composer{config: config, log: logger.NewNop()}
}

// SetLogger sets the logger used for skipped-operation warnings
func (c *Composer) SetLogger(l logger.Logger) {
	c.log = logger.OrNop(l)
}

// Build composes every enabled operation of list, in order, starting from original.
// Each step is left-multiplied onto the accumulated matrix.
func (c *Composer) Build(original types.Canvas, list []ops.Operation) (Result, error) {
	acc := geometry.Identity()
	border := geometry.BorderBlack

	canvas, summary, err := geometry.Walk(original, list, geometry.WalkOptions{
		Seed:   c.config.Seed,
		Logger: c.log,
	}, func(_ int, _ ops.Operation, step geometry.Step) {
		acc = step.Matrix().Multiply(acc)
		if b, ok := step.(geometry.Bordered); ok {
			if style, pads := b.Border(); pads {
				border = style
			}
		}
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to compose transform: %w", err)
	}

	return Result{
		Matrix:  acc,
		Canvas:  canvas,
		Border:  border,
		Summary: summary,
	}, nil
}
