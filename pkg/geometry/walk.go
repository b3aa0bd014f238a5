package geometry

import (
	"errors"

	"github.com/menta2k/image-augmenter/internal/logger"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// WalkOptions configures how an op list is walked
type WalkOptions struct {
	// Seed is used by random crops that carry no seed of their own
	Seed   uint64
	Logger logger.Logger
}

// Visit is called once per applied operation with its list index and resolved step
type Visit func(index int, op ops.Operation, step Step)

// Walk resolves every enabled operation in order against the running canvas and hands each
// step to visit. Disabled and unknown operations are skipped silently, operations with invalid
// parameters are skipped with a warning, and all three are tallied in the summary. A
// non-positive canvas at any stage stops the walk with a *CanvasError.
//
// Walk is the only place canvas bookkeeping happens, so every consumer of an op list sees the
// same sequence of canvases.
func Walk(original types.Canvas, list []ops.Operation, opts WalkOptions, visit Visit) (types.Canvas, types.Summary, error) {
	log := logger.OrNop(opts.Logger)
	var summary types.Summary

	if !original.Valid() {
		return original, summary, &CanvasError{Index: -1, Canvas: original}
	}

	canvas := original
	for i, op := range list {
		if op == nil {
			summary.UnknownOps++
			continue
		}
		if !op.Enabled() {
			summary.DisabledOps++
			continue
		}

		step, err := Resolve(op, canvas, opts.Seed)
		switch {
		case errors.Is(err, ErrUnknownOperation):
			summary.UnknownOps++
			log.Debug("ignoring unknown operation", "index", i, "name", op.Name())
			continue
		case errors.Is(err, ErrInvalidParameter):
			summary.SkippedOps++
			summary.Warn("operation %d skipped: %v", i, err)
			log.Warn("skipping operation", "index", i, "name", op.Name(), "error", err)
			continue
		case err != nil:
			return canvas, summary, err
		}

		next := step.Canvas()
		if !next.Valid() {
			return canvas, summary, &CanvasError{Index: i, Op: op.Name(), Canvas: next}
		}

		visit(i, op, step)
		summary.AppliedOps++
		canvas = next
	}
	return canvas, summary, nil
}
