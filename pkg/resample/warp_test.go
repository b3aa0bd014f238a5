package resample

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-augmenter/pkg/affine"
	"github.com/menta2k/image-augmenter/pkg/geometry"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// gradient has a unique color per pixel
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

func TestWarpIdentity(t *testing.T) {
	src := gradient(8, 6)
	out := New(Nearest).Warp(src, geometry.Identity(), types.Canvas{Width: 8, Height: 6}, geometry.BorderBlack)
	assert.Equal(t, src.Pix, out.Pix)
	assert.NotSame(t, src, out)

	// a sub-image keeps its pixels but comes back anchored at the origin
	sub := gradient(12, 10).SubImage(image.Rect(2, 2, 10, 8))
	out = New(Nearest).Warp(sub, geometry.Identity(), types.Canvas{Width: 8, Height: 6}, geometry.BorderBlack)
	assert.Equal(t, image.Rect(0, 0, 8, 6), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 20, G: 20, B: 200, A: 255}, out.NRGBAAt(0, 0))
}

func TestWarpFlip(t *testing.T) {
	src := gradient(8, 6)
	canvas := types.Canvas{Width: 8, Height: 6}
	step, err := geometry.Resolve(ops.Flip{Horizontal: true}, canvas, 0)
	require.NoError(t, err)

	out := New(Nearest).Warp(src, step.Matrix(), canvas, geometry.BorderBlack)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, src.NRGBAAt(7-x, y), out.NRGBAAt(x, y))
		}
	}
}

func TestWarpLetterboxBorders(t *testing.T) {
	src := gradient(80, 60)
	list := []ops.Operation{ops.Resize{Width: 40, Height: 40, Mode: ops.FitWhiteEdges}}
	res, err := affine.New().Build(types.Canvas{Width: 80, Height: 60}, list)
	require.NoError(t, err)
	require.Equal(t, geometry.BorderWhite, res.Border)

	out := New(BiLinear).Warp(src, res.Matrix, res.Canvas, res.Border)
	assert.Equal(t, image.Rect(0, 0, 40, 40), out.Bounds())
	// 80x60 fits as 40x30 with 5px bands above and below
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(20, 1))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(20, 38))
	assert.Equal(t, uint8(200), out.NRGBAAt(20, 20).B)

	black := New(BiLinear).Warp(src, res.Matrix, res.Canvas, geometry.BorderBlack)
	assert.Equal(t, color.NRGBA{A: 255}, black.NRGBAAt(20, 1))
}

func TestWarpReflectBorder(t *testing.T) {
	src := gradient(10, 10)
	canvas := types.Canvas{Width: 10, Height: 10}
	m := geometry.Translate(3, 0)

	out := New(Nearest).Warp(src, m, canvas, geometry.BorderReflect)
	// column 2 mirrors source column 0, column 0 mirrors source column 2
	assert.Equal(t, src.NRGBAAt(0, 4), out.NRGBAAt(2, 4))
	assert.Equal(t, src.NRGBAAt(2, 4), out.NRGBAAt(0, 4))
	assert.Equal(t, src.NRGBAAt(0, 4), out.NRGBAAt(3, 4))
}

func TestWarpRotateKeepsCanvas(t *testing.T) {
	src := gradient(30, 20)
	res, err := affine.New().Build(types.Canvas{Width: 30, Height: 20}, []ops.Operation{ops.Rotate{AngleDeg: 90, Expand: true}})
	require.NoError(t, err)

	out := New(Nearest).Warp(src, res.Matrix, res.Canvas, res.Border)
	assert.Equal(t, image.Rect(0, 0, 20, 30), out.Bounds())
	assert.Equal(t, uint8(200), out.NRGBAAt(10, 15).B)
}

func TestFastPath(t *testing.T) {
	w := New(BiLinear)
	sb := image.Rect(0, 0, 100, 50)
	assert.True(t, w.fastPath(geometry.Scale(0.5, 0.5), sb))
	assert.True(t, w.fastPath(geometry.Translate(0, 10).Multiply(geometry.Scale(0.5, 0.5)), sb))
	assert.False(t, w.fastPath(geometry.Scale(0.33, 0.33), sb))
	assert.False(t, w.fastPath(geometry.Scale(-1, 1), sb))
	assert.False(t, w.fastPath(geometry.Rotate(10), sb))
	assert.False(t, w.fastPath(geometry.Translate(0.5, 0), sb))
}

func TestMirror(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {4, 4}, {5, 4}, {6, 3}, {-1, 0}, {-2, 1}, {10, 0}, {-6, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mirror(tt.in, 5), "mirror(%d)", tt.in)
	}
}

func TestParseInterpolation(t *testing.T) {
	i, err := ParseInterpolation("")
	require.NoError(t, err)
	assert.Equal(t, BiLinear, i)

	i, err = ParseInterpolation("catmull-rom")
	require.NoError(t, err)
	assert.Equal(t, CatmullRom, i)

	_, err = ParseInterpolation("lanczos")
	assert.Error(t, err)
}
