// Package annotate carries bounding boxes and polygons through an op list so they stay aligned
// with the image the same op list produces.
//
// Coordinates move through each operation's own formula rather than through the composed
// matrix. Canvas bookkeeping is shared with the affine package through geometry.Walk, so both
// arrive at the same final canvas for the same inputs.
package annotate

import (
	"fmt"
	"math"

	"github.com/menta2k/image-augmenter/internal/logger"
	"github.com/menta2k/image-augmenter/pkg/geometry"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Transformer moves annotations through op lists
type Transformer struct {
	config Config
	log    logger.Logger
}

// Config holds configuration for the transformer
type Config struct {
	// Seed for random crops that carry no seed of their own
	Seed uint64
}

// Result holds the surviving annotations and the canvas they live on
type Result struct {
	Annotations types.Annotations
	Canvas      types.Canvas
	Summary     types.Summary
}

// New creates a new Transformer with default configuration
func New() *Transformer {
	return &Transformer{log: logger.NewNop()}
}

// NewWithConfig creates a new Transformer with custom configuration
func NewWithConfig(config Config) *Transformer {
	return &Transformer{config: config, log: logger.NewNop()}
}

// SetLogger sets the logger used for skipped-operation warnings
func (t *Transformer) SetLogger(l logger.Logger) {
	t.log = logger.OrNop(l)
}

// Transform applies every enabled operation of list to anns, which live on original.
// Boxes are carried as their four corners and re-boxed after the last operation. Results are
// clipped to the final canvas; boxes without area and polygons with fewer than three distinct
// points or no area are dropped and counted in the summary.
func (t *Transformer) Transform(anns types.Annotations, list []ops.Operation, original types.Canvas) (Result, error) {
	corners := make([][4]types.Point, len(anns.Boxes))
	for i, b := range anns.Boxes {
		corners[i] = b.Corners()
	}
	points := make([][]types.Point, len(anns.Polygons))
	for i, p := range anns.Polygons {
		points[i] = append([]types.Point(nil), p.Points...)
	}

	canvas, summary, err := geometry.Walk(original, list, geometry.WalkOptions{
		Seed:   t.config.Seed,
		Logger: t.log,
	}, func(_ int, _ ops.Operation, step geometry.Step) {
		for i := range corners {
			for j := range corners[i] {
				corners[i][j] = step.Apply(corners[i][j])
			}
		}
		for i := range points {
			for j := range points[i] {
				points[i][j] = step.Apply(points[i][j])
			}
		}
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to transform annotations: %w", err)
	}

	var out types.Annotations
	for i, b := range anns.Boxes {
		box, ok := boxFromCorners(corners[i], canvas)
		if !ok {
			summary.DroppedBoxes++
			continue
		}
		box.ClassName, box.ClassID, box.Confidence = b.ClassName, b.ClassID, b.Confidence
		out.Boxes = append(out.Boxes, box)
	}
	for i, p := range anns.Polygons {
		pts, ok := clipPolygon(points[i], canvas)
		if !ok {
			summary.DroppedPolygons++
			continue
		}
		out.Polygons = append(out.Polygons, types.Polygon{
			Points:     pts,
			ClassName:  p.ClassName,
			ClassID:    p.ClassID,
			Confidence: p.Confidence,
		})
	}

	if dropped := summary.DroppedBoxes + summary.DroppedPolygons; dropped > 0 {
		t.log.Debug("dropped degenerate annotations", "boxes", summary.DroppedBoxes, "polygons", summary.DroppedPolygons)
	}

	return Result{Annotations: out, Canvas: canvas, Summary: summary}, nil
}

func boxFromCorners(c [4]types.Point, canvas types.Canvas) (types.BoundingBox, bool) {
	b := types.BoundingBox{
		XMin: math.Inf(1), YMin: math.Inf(1),
		XMax: math.Inf(-1), YMax: math.Inf(-1),
	}
	for _, p := range c {
		if !finitePoint(p) {
			return types.BoundingBox{}, false
		}
		b.XMin, b.XMax = math.Min(b.XMin, p.X), math.Max(b.XMax, p.X)
		b.YMin, b.YMax = math.Min(b.YMin, p.Y), math.Max(b.YMax, p.Y)
	}
	w, h := float64(canvas.Width), float64(canvas.Height)
	b.XMin, b.XMax = clamp(b.XMin, 0, w), clamp(b.XMax, 0, w)
	b.YMin, b.YMax = clamp(b.YMin, 0, h), clamp(b.YMax, 0, h)
	return b, !b.Degenerate()
}

// clipPolygon clamps every point to the canvas and removes the repeats clamping creates.
// Polygons left with fewer than three points or no area are rejected.
func clipPolygon(pts []types.Point, canvas types.Canvas) ([]types.Point, bool) {
	w, h := float64(canvas.Width), float64(canvas.Height)
	out := make([]types.Point, 0, len(pts))
	for _, p := range pts {
		if !finitePoint(p) {
			continue
		}
		q := types.Point{X: clamp(p.X, 0, w), Y: clamp(p.Y, 0, h)}
		if n := len(out); n > 0 && out[n-1] == q {
			continue
		}
		out = append(out, q)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 || (types.Polygon{Points: out}).Bounds().Degenerate() || math.Abs(shoelace(out)) < areaEpsilon {
		return out, false
	}
	return out, true
}

const areaEpsilon = 1e-9

// shoelace returns the signed area of a closed polygon
func shoelace(pts []types.Point) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finitePoint(p types.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
