package imageaugmenter

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8((x * 255) / width), uint8((y * 255) / height), 128, 255})
		}
	}
	return img
}

const scenarioOps = `[{"name": "resize", "resize_mode": "stretch_to", "width": 640, "height": 640}]`

func scenarioBoxes() types.Annotations {
	return types.Annotations{Boxes: []types.BoundingBox{
		{XMin: 100, YMin: 100, XMax: 200, YMax: 200, ClassName: "car", ClassID: 0, Confidence: 1},
	}}
}

func TestNew(t *testing.T) {
	aug := New()
	require.NotNil(t, aug)
	assert.NotNil(t, aug.runner)
	assert.NotNil(t, aug.processor)
}

func TestComposeTransformEncode(t *testing.T) {
	aug := New()
	list, err := aug.ParseOperations([]byte(scenarioOps))
	require.NoError(t, err)

	original := types.Canvas{Width: 800, Height: 600}
	composed, err := aug.Compose(original, list)
	require.NoError(t, err)
	transformed, err := aug.TransformAnnotations(scenarioBoxes(), list, original)
	require.NoError(t, err)

	labels, err := aug.EncodeYOLO(composed.Canvas, transformed.Canvas, transformed.Annotations)
	require.NoError(t, err)
	assert.Equal(t, []string{"0 0.187500 0.250000 0.125000 0.166667"}, labels.Detection)
}

func TestAugment(t *testing.T) {
	aug := New()
	out, err := aug.Augment(context.Background(), createTestImage(800, 600), scenarioBoxes(), []ops.Operation{
		ops.Resize{Width: 640, Height: 640, Mode: ops.FitBlackEdges},
		ops.Flip{Horizontal: true},
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 640), out.Image.Bounds())
	require.Len(t, out.Annotations.Boxes, 1)
	assert.InDelta(t, 640-160, out.Annotations.Boxes[0].XMin, 1e-9)
	assert.InDelta(t, 160, out.Annotations.Boxes[0].YMin, 1e-9)
}

func TestSaveAndLoadImage(t *testing.T) {
	aug := New()
	path := filepath.Join(t.TempDir(), "out", "img.png")

	require.NoError(t, aug.SaveImage(createTestImage(32, 16), path, "png", 90))
	img, err := aug.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}
