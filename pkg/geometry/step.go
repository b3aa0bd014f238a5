package geometry

import (
	"math"
	"math/rand/v2"

	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Border is the fill style for pixels a step pulls in from outside the source
type Border int

const (
	BorderBlack Border = iota
	BorderWhite
	BorderReflect
)

func (b Border) String() string {
	switch b {
	case BorderWhite:
		return "white"
	case BorderReflect:
		return "reflect"
	default:
		return "black"
	}
}

// Step is one operation resolved against the canvas it applies to.
//
// Matrix and Apply describe the same mapping. Matrix feeds the composed transform used for
// pixels, Apply moves annotation coordinates directly; the two are written independently and
// must stay in agreement.
type Step interface {
	Matrix() Matrix
	Apply(p types.Point) types.Point
	// Canvas is the canvas after the step
	Canvas() types.Canvas
}

// Bordered is implemented by steps that may pad the canvas
type Bordered interface {
	Border() (Border, bool)
}

// scaleStep covers every resize mode: x' = x·sx + dx, y' = y·sy + dy
type scaleStep struct {
	sx, sy float64
	dx, dy float64
	out    types.Canvas
	border Border
	pads   bool
}

func (s scaleStep) Matrix() Matrix {
	return Translate(s.dx, s.dy).Multiply(Scale(s.sx, s.sy))
}

func (s scaleStep) Apply(p types.Point) types.Point {
	return types.Point{X: p.X*s.sx + s.dx, Y: p.Y*s.sy + s.dy}
}

func (s scaleStep) Canvas() types.Canvas { return s.out }

func (s scaleStep) Border() (Border, bool) { return s.border, s.pads }

// translateStep is a crop: x' = x - ox
type translateStep struct {
	ox, oy float64
	out    types.Canvas
}

func (s translateStep) Matrix() Matrix { return Translate(-s.ox, -s.oy) }

func (s translateStep) Apply(p types.Point) types.Point {
	return types.Point{X: p.X - s.ox, Y: p.Y - s.oy}
}

func (s translateStep) Canvas() types.Canvas { return s.out }

type rotateStep struct {
	center   types.Point
	cos, sin float64
	dx, dy   float64
	out      types.Canvas
}

func (s rotateStep) Matrix() Matrix {
	r := Matrix{
		{s.cos, s.sin, 0},
		{-s.sin, s.cos, 0},
		{0, 0, 1},
	}
	return Translate(s.dx, s.dy).Multiply(About(r, s.center))
}

func (s rotateStep) Apply(p types.Point) types.Point {
	x, y := p.X-s.center.X, p.Y-s.center.Y
	return types.Point{
		X: s.cos*x + s.sin*y + s.center.X + s.dx,
		Y: -s.sin*x + s.cos*y + s.center.Y + s.dy,
	}
}

func (s rotateStep) Canvas() types.Canvas { return s.out }

type flipStep struct {
	horizontal, vertical bool
	canvas               types.Canvas
}

func (s flipStep) Matrix() Matrix {
	m := Identity()
	if s.horizontal {
		m = Translate(float64(s.canvas.Width), 0).Multiply(Scale(-1, 1)).Multiply(m)
	}
	if s.vertical {
		m = Translate(0, float64(s.canvas.Height)).Multiply(Scale(1, -1)).Multiply(m)
	}
	return m
}

func (s flipStep) Apply(p types.Point) types.Point {
	if s.horizontal {
		p.X = float64(s.canvas.Width) - p.X
	}
	if s.vertical {
		p.Y = float64(s.canvas.Height) - p.Y
	}
	return p
}

func (s flipStep) Canvas() types.Canvas { return s.canvas }

type zoomStep struct {
	center types.Point
	factor float64
	canvas types.Canvas
}

func (s zoomStep) Matrix() Matrix { return About(Scale(s.factor, s.factor), s.center) }

func (s zoomStep) Apply(p types.Point) types.Point {
	return types.Point{
		X: (p.X-s.center.X)*s.factor + s.center.X,
		Y: (p.Y-s.center.Y)*s.factor + s.center.Y,
	}
}

func (s zoomStep) Canvas() types.Canvas { return s.canvas }

// affineStep scales, then rotates, then shifts, all about the center
type affineStep struct {
	center   types.Point
	scale    float64
	cos, sin float64
	tx, ty   float64
	canvas   types.Canvas
}

func (s affineStep) Matrix() Matrix {
	r := Matrix{
		{s.cos, s.sin, 0},
		{-s.sin, s.cos, 0},
		{0, 0, 1},
	}
	return Translate(s.tx, s.ty).Multiply(About(r.Multiply(Scale(s.scale, s.scale)), s.center))
}

func (s affineStep) Apply(p types.Point) types.Point {
	x := (p.X - s.center.X) * s.scale
	y := (p.Y - s.center.Y) * s.scale
	return types.Point{
		X: s.cos*x + s.sin*y + s.center.X + s.tx,
		Y: -s.sin*x + s.cos*y + s.center.Y + s.ty,
	}
}

func (s affineStep) Canvas() types.Canvas { return s.canvas }

type shearStep struct {
	center types.Point
	k      float64
	canvas types.Canvas
}

func (s shearStep) Matrix() Matrix { return About(Shear(s.k, 0), s.center) }

func (s shearStep) Apply(p types.Point) types.Point {
	return types.Point{X: p.X + s.k*(p.Y-s.center.Y), Y: p.Y}
}

func (s shearStep) Canvas() types.Canvas { return s.canvas }

// Resolve binds op to the canvas it is applied to. seed is used by random crops that carry
// no seed of their own. The returned step may describe a non-positive canvas; callers check it.
func Resolve(op ops.Operation, canvas types.Canvas, seed uint64) (Step, error) {
	switch o := op.(type) {
	case ops.Resize:
		return resolveResize(o, canvas)
	case ops.Crop:
		return resolveCrop(o, canvas, seed)
	case ops.Rotate:
		return resolveRotate(o, canvas)
	case ops.Flip:
		return flipStep{horizontal: o.Horizontal, vertical: o.Vertical, canvas: canvas}, nil
	case ops.Zoom:
		if !finite(o.Factor) || o.Factor <= 0 {
			return nil, invalidParam(ops.NameZoom, "factor must be positive, got %v", o.Factor)
		}
		return zoomStep{center: canvas.Center(), factor: o.Factor, canvas: canvas}, nil
	case ops.Affine:
		return resolveAffine(o, canvas)
	case ops.Shear:
		if !finite(o.AngleDeg) || math.Abs(o.AngleDeg) >= 90 {
			return nil, invalidParam(ops.NameShear, "angle must be within (-90, 90), got %v", o.AngleDeg)
		}
		k := math.Tan(o.AngleDeg * math.Pi / 180)
		return shearStep{center: canvas.Center(), k: k, canvas: canvas}, nil
	default:
		return nil, ErrUnknownOperation
	}
}

func resolveResize(o ops.Resize, canvas types.Canvas) (Step, error) {
	cw, ch := float64(canvas.Width), float64(canvas.Height)
	tw, th := float64(o.Width), float64(o.Height)
	target := types.Canvas{Width: o.Width, Height: o.Height}
	if !o.Mode.Known() {
		return nil, invalidParam(ops.NameResize, "unknown resize mode %q", o.Mode)
	}

	switch o.Mode {
	case ops.StretchTo:
		return scaleStep{sx: tw / cw, sy: th / ch, out: target}, nil
	case ops.FitWithin:
		s := math.Min(tw/cw, th/ch)
		return scaleStep{sx: s, sy: s, out: scaledCanvas(cw*s, ch*s)}, nil
	case ops.FillCenterCrop:
		s := math.Max(tw/cw, th/ch)
		return scaleStep{
			sx: s, sy: s,
			dx:  -(cw*s - tw) / 2,
			dy:  -(ch*s - th) / 2,
			out: target,
		}, nil
	default:
		s := math.Min(tw/cw, th/ch)
		border := BorderBlack
		switch o.Mode {
		case ops.FitWhiteEdges:
			border = BorderWhite
		case ops.FitReflectEdges:
			border = BorderReflect
		}
		return scaleStep{
			sx: s, sy: s,
			dx:     (tw - cw*s) / 2,
			dy:     (th - ch*s) / 2,
			out:    target,
			border: border,
			pads:   true,
		}, nil
	}
}

func resolveCrop(o ops.Crop, canvas types.Canvas, seed uint64) (Step, error) {
	if o.Rect != nil {
		r := o.Rect
		return translateStep{
			ox:  float64(r.X),
			oy:  float64(r.Y),
			out: types.Canvas{Width: r.Width, Height: r.Height},
		}, nil
	}
	if !finite(o.Percent) || o.Percent < 1 || o.Percent > 100 {
		return nil, invalidParam(ops.NameCrop, "percent must be within [1, 100], got %v", o.Percent)
	}
	if !o.Mode.Known() {
		return nil, invalidParam(ops.NameCrop, "unknown crop mode %q", o.Mode)
	}

	x, y, w, h := CropRect(o, canvas, seed)
	return translateStep{
		ox:  float64(x),
		oy:  float64(y),
		out: types.Canvas{Width: w, Height: h},
	}, nil
}

// CropRect computes the percent-crop rectangle for canvas. For random crops the offset is a
// pure function of the seed and the canvas.
func CropRect(o ops.Crop, canvas types.Canvas, seed uint64) (x, y, w, h int) {
	w = int(math.Round(float64(canvas.Width) * o.Percent / 100))
	h = int(math.Round(float64(canvas.Height) * o.Percent / 100))
	w = min(w, canvas.Width)
	h = min(h, canvas.Height)
	spareX, spareY := canvas.Width-w, canvas.Height-h

	switch o.Mode {
	case ops.CropTopLeft:
		return 0, 0, w, h
	case ops.CropTopRight:
		return spareX, 0, w, h
	case ops.CropBottomLeft:
		return 0, spareY, w, h
	case ops.CropBottomRight:
		return spareX, spareY, w, h
	case ops.CropRandom:
		if o.Seed != nil {
			seed = *o.Seed
		}
		rng := rand.New(rand.NewPCG(seed, uint64(canvas.Width)<<32|uint64(canvas.Height)))
		return rng.IntN(spareX + 1), rng.IntN(spareY + 1), w, h
	default:
		return spareX / 2, spareY / 2, w, h
	}
}

func resolveRotate(o ops.Rotate, canvas types.Canvas) (Step, error) {
	if !finite(o.AngleDeg) {
		return nil, invalidParam(ops.NameRotate, "angle must be finite, got %v", o.AngleDeg)
	}
	cos, sin := cosSin(o.AngleDeg)
	step := rotateStep{center: canvas.Center(), cos: cos, sin: sin, out: canvas}
	if !o.Expand {
		return step, nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	w, h := float64(canvas.Width), float64(canvas.Height)
	for _, c := range []types.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}} {
		p := step.Apply(c)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	step.dx, step.dy = -minX, -minY
	step.out = scaledCanvas(maxX-minX, maxY-minY)
	return step, nil
}

func resolveAffine(o ops.Affine, canvas types.Canvas) (Step, error) {
	if !finite(o.Scale) || o.Scale <= 0 {
		return nil, invalidParam(ops.NameAffine, "scale must be positive, got %v", o.Scale)
	}
	if !finite(o.AngleDeg) || !finite(o.ShiftXPct) || !finite(o.ShiftYPct) {
		return nil, invalidParam(ops.NameAffine, "angle and shifts must be finite")
	}
	cos, sin := cosSin(o.AngleDeg)
	return affineStep{
		center: canvas.Center(),
		scale:  o.Scale,
		cos:    cos,
		sin:    sin,
		tx:     o.ShiftXPct / 100 * float64(canvas.Width),
		ty:     o.ShiftYPct / 100 * float64(canvas.Height),
		canvas: canvas,
	}, nil
}

func scaledCanvas(w, h float64) types.Canvas {
	return types.Canvas{Width: int(math.Round(w)), Height: int(math.Round(h))}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
