package types

import "fmt"

// Canvas is the pixel extent of the coordinate space at one pipeline stage
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are strictly positive
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0
}

// Center returns the geometric center of the canvas
func (c Canvas) Center() Point {
	return Point{X: float64(c.Width) / 2, Y: float64(c.Height) / 2}
}

func (c Canvas) String() string {
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// Point is a pixel-space coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned box in pixel coordinates
type BoundingBox struct {
	XMin       float64 `json:"x_min"`
	YMin       float64 `json:"y_min"`
	XMax       float64 `json:"x_max"`
	YMax       float64 `json:"y_max"`
	ClassName  string  `json:"class_name"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// Corners returns the four corners clockwise from the top-left
func (b BoundingBox) Corners() [4]Point {
	return [4]Point{
		{X: b.XMin, Y: b.YMin},
		{X: b.XMax, Y: b.YMin},
		{X: b.XMax, Y: b.YMax},
		{X: b.XMin, Y: b.YMax},
	}
}

// Degenerate reports whether the box has no area
func (b BoundingBox) Degenerate() bool {
	return !(b.XMin < b.XMax) || !(b.YMin < b.YMax)
}

// Width of the box
func (b BoundingBox) Width() float64 { return b.XMax - b.XMin }

// Height of the box
func (b BoundingBox) Height() float64 { return b.YMax - b.YMin }

// Polygon is a closed outline in pixel coordinates
type Polygon struct {
	Points     []Point `json:"points"`
	ClassName  string  `json:"class_name"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// Bounds returns the axis-aligned box enclosing the polygon. The label fields are copied over.
func (p Polygon) Bounds() BoundingBox {
	b := BoundingBox{ClassName: p.ClassName, ClassID: p.ClassID, Confidence: p.Confidence}
	for i, pt := range p.Points {
		if i == 0 || pt.X < b.XMin {
			b.XMin = pt.X
		}
		if i == 0 || pt.X > b.XMax {
			b.XMax = pt.X
		}
		if i == 0 || pt.Y < b.YMin {
			b.YMin = pt.Y
		}
		if i == 0 || pt.Y > b.YMax {
			b.YMax = pt.Y
		}
	}
	return b
}

// Annotations groups the labels attached to one image
type Annotations struct {
	Boxes    []BoundingBox `json:"boxes,omitempty"`
	Polygons []Polygon     `json:"polygons,omitempty"`
}

// Len returns the number of annotations
func (a Annotations) Len() int {
	return len(a.Boxes) + len(a.Polygons)
}

// Summary tallies the non-fatal conditions of one or more pipeline runs
type Summary struct {
	AppliedOps      int      `json:"applied_ops"`
	DisabledOps     int      `json:"disabled_ops"`
	UnknownOps      int      `json:"unknown_ops"`
	SkippedOps      int      `json:"skipped_ops"`
	DroppedBoxes    int      `json:"dropped_boxes"`
	DroppedPolygons int      `json:"dropped_polygons"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Add folds other into s
func (s *Summary) Add(other Summary) {
	s.AppliedOps += other.AppliedOps
	s.DisabledOps += other.DisabledOps
	s.UnknownOps += other.UnknownOps
	s.SkippedOps += other.SkippedOps
	s.DroppedBoxes += other.DroppedBoxes
	s.DroppedPolygons += other.DroppedPolygons
	s.Warnings = append(s.Warnings, other.Warnings...)
}

// Warn records a warning message
func (s *Summary) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}
