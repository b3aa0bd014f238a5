package geometry

import (
	"errors"
	"fmt"

	"github.com/menta2k/image-augmenter/pkg/types"
)

var (
	// ErrInvalidCanvas is fatal: a stage produced a non-positive dimension
	ErrInvalidCanvas = errors.New("invalid canvas")
	// ErrInvalidParameter marks an operation that is skipped with a warning
	ErrInvalidParameter = errors.New("invalid operation parameter")
	// ErrUnknownOperation marks an operation name this version ignores
	ErrUnknownOperation = errors.New("unknown operation")
)

// CanvasError reports which stage produced an invalid canvas
type CanvasError struct {
	Index  int // -1 for the original canvas
	Op     string
	Canvas types.Canvas
}

func (e *CanvasError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid canvas: original canvas %s", e.Canvas)
	}
	return fmt.Sprintf("invalid canvas: operation %d (%s) produced %s", e.Index, e.Op, e.Canvas)
}

func (e *CanvasError) Unwrap() error { return ErrInvalidCanvas }

func invalidParam(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameter, op, fmt.Sprintf(format, args...))
}
