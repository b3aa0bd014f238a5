package ops

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlList = `
- name: resize
  resize_mode: fit_black_edges
  width: 640
  height: 640
- name: crop
  percent: 80
  mode: random
  seed: 42
- name: crop
  x: 10
  y: 20
  width: 300
  height: 200
- name: rotate
  angle_deg: 15
  expand: true
- name: flip
  horizontal: true
  enabled: false
- name: random_zoom
  factor: 1.25
- name: affine_transform
  angle_deg: 5
  shift_x_pct: 10
  shift_y_pct: -5
- name: shear
  angle_deg: 12
- name: mosaic
  tiles: 4
`

func TestParseYAML(t *testing.T) {
	list, err := Parse([]byte(yamlList))
	require.NoError(t, err)
	require.Len(t, list, 9)

	assert.Equal(t, Resize{Width: 640, Height: 640, Mode: FitBlackEdges}, list[0])

	crop, ok := list[1].(Crop)
	require.True(t, ok)
	assert.Equal(t, CropRandom, crop.Mode)
	assert.InDelta(t, 80, crop.Percent, 1e-9)
	require.NotNil(t, crop.Seed)
	assert.Equal(t, uint64(42), *crop.Seed)
	assert.Nil(t, crop.Rect)

	literal, ok := list[2].(Crop)
	require.True(t, ok)
	assert.Equal(t, &Rect{X: 10, Y: 20, Width: 300, Height: 200}, literal.Rect)

	assert.Equal(t, Rotate{AngleDeg: 15, Expand: true}, list[3])
	assert.Equal(t, Flip{Horizontal: true, Disabled: true}, list[4])
	assert.False(t, list[4].Enabled())
	assert.Equal(t, Zoom{Factor: 1.25}, list[5])
	assert.Equal(t, Affine{Scale: 1, AngleDeg: 5, ShiftXPct: 10, ShiftYPct: -5}, list[6])
	assert.Equal(t, Shear{AngleDeg: 12}, list[7])
	assert.Equal(t, Unknown{Kind: "mosaic"}, list[8])
	assert.True(t, list[8].Enabled())
}

func TestParseJSON(t *testing.T) {
	list, err := ParseReader(strings.NewReader(`[
		{"name": "resize", "resize_mode": "stretch_to", "width": "320", "height": 240},
		{"name": "crop", "percent": 50}
	]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Resize{Width: 320, Height: 240, Mode: StretchTo}, list[0])
	assert.Equal(t, Crop{Percent: 50, Mode: CropCenter}, list[1])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`[{"width": 10}]`))
	assert.ErrorContains(t, err, "missing operation name")

	_, err = Parse([]byte(`[{"name": "resize", "width": "wide"}]`))
	assert.ErrorContains(t, err, "operation 0")

	_, err = Parse([]byte(`not: [a list`))
	assert.Error(t, err)
}

func TestPinSeeds(t *testing.T) {
	own := uint64(9)
	list := []Operation{
		Crop{Percent: 50, Mode: CropRandom},
		Crop{Percent: 50, Mode: CropRandom, Seed: &own},
		Crop{Percent: 50, Mode: CropCenter},
		Zoom{Factor: 2},
	}
	pinned := PinSeeds(list, 77)

	require.NotNil(t, pinned[0].(Crop).Seed)
	assert.Equal(t, uint64(77), *pinned[0].(Crop).Seed)
	assert.Equal(t, uint64(9), *pinned[1].(Crop).Seed)
	assert.Nil(t, pinned[2].(Crop).Seed)
	assert.Equal(t, list[3], pinned[3])
	assert.Nil(t, list[0].(Crop).Seed, "input list is left untouched")
}

func TestModes(t *testing.T) {
	assert.True(t, FitReflectEdges.Letterbox())
	assert.False(t, FitWithin.Letterbox())
	assert.True(t, FillCenterCrop.Known())
	assert.False(t, ResizeMode("squash").Known())
	assert.True(t, CropBottomRight.Known())
	assert.False(t, CropMode("").Known())
}
