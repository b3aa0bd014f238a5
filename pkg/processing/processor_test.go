package processing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// createTestImage creates a simple gradient test image
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8((x * 255) / width), uint8((y * 255) / height), 128, 255})
		}
	}
	return img
}

func TestSaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewProcessorWithFs(fs)
	img := createTestImage(64, 48)

	for _, tc := range []struct {
		path, format string
		mime         string
	}{
		{"out/a.png", "png", "image/png"},
		{"out/b.jpg", "jpg", "image/jpeg"},
		{"out/c.webp", "webp", "image/webp"},
	} {
		t.Run(tc.format, func(t *testing.T) {
			require.NoError(t, p.SaveImage(img, tc.path, tc.format, 90, true))

			loaded, err := p.LoadImage(tc.path)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 64, 48), loaded.Bounds())

			info, err := p.ReadInfo(tc.path)
			require.NoError(t, err)
			assert.Equal(t, 64, info.Width)
			assert.Equal(t, 48, info.Height)
			assert.Equal(t, tc.mime, info.MIME)
		})
	}
}

func TestSavePNGIsLossless(t *testing.T) {
	p := NewProcessorWithFs(afero.NewMemMapFs())
	img := createTestImage(16, 16)
	require.NoError(t, p.SaveImage(img, "x.png", "png", 0, false))

	loaded, err := p.LoadImage("x.png")
	require.NoError(t, err)
	r, g, b, a := loaded.At(7, 3).RGBA()
	wr, wg, wb, wa := img.At(7, 3).RGBA()
	assert.Equal(t, []uint32{wr, wg, wb, wa}, []uint32{r, g, b, a})
}

func TestSaveUnsupportedFormat(t *testing.T) {
	p := NewProcessorWithFs(afero.NewMemMapFs())
	err := p.SaveImage(createTestImage(4, 4), "x.tiff", "tiff", 90, false)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestLoadRejectsNonImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "notes.txt", []byte("hello world"), 0o644))

	_, err := NewProcessorWithFs(fs).LoadImage("notes.txt")
	assert.ErrorContains(t, err, "not an image")

	_, err = NewProcessorWithFs(fs).LoadImage("missing.png")
	assert.Error(t, err)
}

func TestLoadImageFromURL(t *testing.T) {
	p := NewProcessorWithFs(afero.NewMemMapFs())
	var body bytes.Buffer
	require.NoError(t, p.Encode(&body, createTestImage(20, 10), "png", 0, false))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body.Bytes())
	}))
	defer srv.Close()

	img, err := p.LoadImageSmart(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, err = p.LoadImageFromURL(context.Background(), srv.URL+"/missing.png")
	assert.ErrorContains(t, err, "404")

	_, err = p.LoadImageFromURL(context.Background(), "ftp://example.com/a.png")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestValidateImage(t *testing.T) {
	p := NewProcessor()
	assert.NoError(t, p.ValidateImage(createTestImage(100, 120), 100))
	assert.ErrorIs(t, p.ValidateImage(createTestImage(100, 99), 100), ErrImageTooSmall)
}

func TestGetImageInfo(t *testing.T) {
	info := NewProcessor().GetImageInfo(createTestImage(400, 300))
	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 300, info.Height)
	assert.InDelta(t, 4.0/3.0, info.AspectRatio, 1e-9)
	assert.Equal(t, 120000, info.Area)
}

func TestCreateDebugOverlay(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	anns := types.Annotations{
		Boxes: []types.BoundingBox{{XMin: 10, YMin: 10, XMax: 40, YMax: 40}},
		Polygons: []types.Polygon{{Points: []types.Point{
			{X: 60, Y: 60}, {X: 90, Y: 60}, {X: 90, Y: 90},
		}}},
	}
	out := NewProcessor().CreateDebugOverlay(img, anns).(*image.NRGBA)

	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(20, 10), "box top edge")
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(39, 20), "box right edge")
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(25, 25), "box interior untouched")
	assert.Equal(t, color.NRGBA{255, 204, 0, 255}, out.NRGBAAt(75, 60), "polygon edge")
	assert.Equal(t, color.NRGBA{255, 204, 0, 255}, out.NRGBAAt(75, 75), "polygon diagonal")
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(20, 10), "source is not modified")
}
