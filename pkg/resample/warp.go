// Package resample warps pixels with a composed geometry matrix.
package resample

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/image-augmenter/pkg/geometry"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Interpolation selects the pixel kernel
type Interpolation string

const (
	Nearest        Interpolation = "nearest"
	ApproxBiLinear Interpolation = "approx-bilinear"
	BiLinear       Interpolation = "bilinear"
	CatmullRom     Interpolation = "catmull-rom"
)

// ParseInterpolation validates a kernel name; empty means bilinear
func ParseInterpolation(s string) (Interpolation, error) {
	switch i := Interpolation(s); i {
	case "":
		return BiLinear, nil
	case Nearest, ApproxBiLinear, BiLinear, CatmullRom:
		return i, nil
	}
	return "", fmt.Errorf("unknown interpolation %q", s)
}

func (i Interpolation) transformer() draw.Transformer {
	switch i {
	case Nearest:
		return draw.NearestNeighbor
	case ApproxBiLinear:
		return draw.ApproxBiLinear
	case CatmullRom:
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}

func (i Interpolation) filter() imaging.ResampleFilter {
	switch i {
	case Nearest:
		return imaging.NearestNeighbor
	case CatmullRom:
		return imaging.CatmullRom
	default:
		return imaging.Linear
	}
}

// Warper renders source images onto a final canvas
type Warper struct {
	interp Interpolation
}

// New creates a Warper using interp
func New(interp Interpolation) *Warper {
	if interp == "" {
		interp = BiLinear
	}
	return &Warper{interp: interp}
}

// Warp maps src through m onto a canvas-sized image. Pixels that fall outside the source
// are filled according to border.
func (w *Warper) Warp(src image.Image, m geometry.Matrix, canvas types.Canvas, border geometry.Border) *image.NRGBA {
	sb := src.Bounds()
	if m.IsIdentity() && sb.Dx() == canvas.Width && sb.Dy() == canvas.Height {
		return imaging.Clone(src)
	}

	dst := imaging.New(canvas.Width, canvas.Height, fill(border))
	if border == geometry.BorderReflect {
		reflectFill(dst, src, m.Invert())
	}

	if w.fastPath(m, sb) {
		rw := int(math.Round(float64(sb.Dx()) * m[0][0]))
		rh := int(math.Round(float64(sb.Dy()) * m[1][1]))
		resized := imaging.Resize(src, rw, rh, w.interp.filter())
		return imaging.Paste(dst, resized, image.Pt(int(math.Round(m[0][2])), int(math.Round(m[1][2]))))
	}

	w.interp.transformer().Transform(dst, m.Aff3(), src, sb, draw.Src, nil)
	return dst
}

// fastPath reports whether m is a positive scale plus a whole-pixel offset, which imaging can
// render as a resize and a paste
func (w *Warper) fastPath(m geometry.Matrix, sb image.Rectangle) bool {
	if !m.IsScaleOnly() || m[0][0] <= 0 || m[1][1] <= 0 || sb.Dx() == 0 || sb.Dy() == 0 {
		return false
	}
	if m[0][2] != math.Round(m[0][2]) || m[1][2] != math.Round(m[1][2]) {
		return false
	}
	rw := float64(sb.Dx()) * m[0][0]
	rh := float64(sb.Dy()) * m[1][1]
	return rw >= 1 && rh >= 1 && rw == math.Round(rw) && rh == math.Round(rh)
}

func fill(border geometry.Border) color.Color {
	if border == geometry.BorderWhite {
		return color.White
	}
	return color.Black
}

// reflectFill samples every destination pixel from the mirrored source
func reflectFill(dst *image.NRGBA, src image.Image, inv geometry.Matrix) {
	sb := src.Bounds()
	if sb.Empty() {
		return
	}
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := inv.TransformPoint(types.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			sx := sb.Min.X + mirror(int(math.Floor(p.X))-sb.Min.X, sb.Dx())
			sy := sb.Min.Y + mirror(int(math.Floor(p.Y))-sb.Min.Y, sb.Dy())
			dst.Set(x, y, src.At(sx, sy))
		}
	}
}

// mirror folds i into [0, n) the way a mirror tiling repeats the image
func mirror(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
