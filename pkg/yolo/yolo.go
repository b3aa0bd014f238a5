// Package yolo converts pixel-space annotations to and from YOLO label text.
//
// Detection lines are "class cx cy w h" and segmentation lines are "class x1 y1 x2 y2 ...",
// every coordinate normalized by the final canvas and written with six decimals.
package yolo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/menta2k/image-augmenter/pkg/types"
)

var (
	// ErrCanvasMismatch means the image transform and the annotation transform disagree on
	// the final canvas, so normalizing would misplace every label
	ErrCanvasMismatch = errors.New("canvas mismatch")
	// ErrInvalidCanvas means the canvas cannot normalize coordinates
	ErrInvalidCanvas = errors.New("invalid canvas")
)

// Labels are the YOLO lines for one image
type Labels struct {
	Canvas       types.Canvas
	Detection    []string
	Segmentation []string
	// PolygonBoxes are detection lines for the bounds of each polygon
	PolygonBoxes []string
	// BoxPolygons are segmentation lines tracing the four corners of each box
	BoxPolygons []string
}

// Lines returns every annotation in one label format, boxes before polygons. Detection output
// carries polygons as their bounding boxes and segmentation output carries boxes as rectangles.
func (l Labels) Lines(segmentation bool) []string {
	if segmentation {
		return slices.Concat(l.BoxPolygons, l.Segmentation)
	}
	return slices.Concat(l.Detection, l.PolygonBoxes)
}

// Text joins lines with trailing newlines, the layout of a YOLO label file
func Text(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Encode normalizes anns into YOLO lines. composed is the canvas the image was warped to and
// transformed is the canvas the annotations were carried to; they must be equal.
func Encode(composed, transformed types.Canvas, anns types.Annotations) (Labels, error) {
	if composed != transformed {
		return Labels{}, fmt.Errorf("%w: image %s, annotations %s", ErrCanvasMismatch, composed, transformed)
	}
	det, err := DetectionLines(anns.Boxes, composed)
	if err != nil {
		return Labels{}, err
	}
	seg, err := SegmentationLines(anns.Polygons, composed)
	if err != nil {
		return Labels{}, err
	}

	bounds := make([]types.BoundingBox, 0, len(anns.Polygons))
	for _, p := range anns.Polygons {
		bounds = append(bounds, p.Bounds())
	}
	rects := make([]types.Polygon, 0, len(anns.Boxes))
	for _, b := range anns.Boxes {
		c := b.Corners()
		rects = append(rects, types.Polygon{Points: c[:], ClassName: b.ClassName, ClassID: b.ClassID, Confidence: b.Confidence})
	}
	polyBoxes, _ := DetectionLines(bounds, composed)
	boxPolys, _ := SegmentationLines(rects, composed)

	return Labels{
		Canvas:       composed,
		Detection:    det,
		Segmentation: seg,
		PolygonBoxes: polyBoxes,
		BoxPolygons:  boxPolys,
	}, nil
}

// DetectionLines writes one "class cx cy w h" line per box
func DetectionLines(boxes []types.BoundingBox, canvas types.Canvas) ([]string, error) {
	if !canvas.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCanvas, canvas)
	}
	w, h := float64(canvas.Width), float64(canvas.Height)
	lines := make([]string, 0, len(boxes))
	for _, b := range boxes {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(b.ClassID))
		writeCoord(&sb, (b.XMin+b.XMax)/2/w)
		writeCoord(&sb, (b.YMin+b.YMax)/2/h)
		writeCoord(&sb, b.Width()/w)
		writeCoord(&sb, b.Height()/h)
		lines = append(lines, sb.String())
	}
	return lines, nil
}

// SegmentationLines writes one "class x1 y1 x2 y2 ..." line per polygon
func SegmentationLines(polygons []types.Polygon, canvas types.Canvas) ([]string, error) {
	if !canvas.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCanvas, canvas)
	}
	w, h := float64(canvas.Width), float64(canvas.Height)
	lines := make([]string, 0, len(polygons))
	for _, p := range polygons {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(p.ClassID))
		for _, pt := range p.Points {
			writeCoord(&sb, pt.X/w)
			writeCoord(&sb, pt.Y/h)
		}
		lines = append(lines, sb.String())
	}
	return lines, nil
}

func writeCoord(sb *strings.Builder, v float64) {
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
}

// Parse reads a YOLO label file into pixel-space annotations on canvas. Lines with five fields
// are boxes, lines with an odd number of fields and at least three points are polygons.
// classNames maps class ids to names and may be nil.
func Parse(r io.Reader, canvas types.Canvas, classNames []string) (types.Annotations, error) {
	if !canvas.Valid() {
		return types.Annotations{}, fmt.Errorf("%w: %s", ErrInvalidCanvas, canvas)
	}
	w, h := float64(canvas.Width), float64(canvas.Height)

	var anns types.Annotations
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		classID, err := strconv.Atoi(fields[0])
		if err != nil || classID < 0 {
			return types.Annotations{}, fmt.Errorf("line %d: invalid class id %q", lineNo, fields[0])
		}
		values := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return types.Annotations{}, fmt.Errorf("line %d: invalid coordinate %q: %w", lineNo, f, err)
			}
			values[i] = v
		}
		name := className(classNames, classID)

		switch {
		case len(values) == 4:
			cx, cy, bw, bh := values[0]*w, values[1]*h, values[2]*w, values[3]*h
			anns.Boxes = append(anns.Boxes, types.BoundingBox{
				XMin: cx - bw/2, YMin: cy - bh/2,
				XMax: cx + bw/2, YMax: cy + bh/2,
				ClassName: name, ClassID: classID, Confidence: 1,
			})
		case len(values) >= 6 && len(values)%2 == 0:
			pts := make([]types.Point, 0, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				pts = append(pts, types.Point{X: values[i] * w, Y: values[i+1] * h})
			}
			anns.Polygons = append(anns.Polygons, types.Polygon{
				Points: pts, ClassName: name, ClassID: classID, Confidence: 1,
			})
		default:
			return types.Annotations{}, fmt.Errorf("line %d: expected 5 fields or a polygon, got %d fields", lineNo, len(fields))
		}
	}
	if err := scanner.Err(); err != nil {
		return types.Annotations{}, fmt.Errorf("failed to read labels: %w", err)
	}
	return anns, nil
}

func className(names []string, id int) string {
	if id < len(names) {
		return names[id]
	}
	return ""
}
