package dataset

import (
	"image"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-augmenter/pkg/types"
	"github.com/menta2k/image-augmenter/pkg/yolo"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, fs.MkdirAll(path.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func newDataset(t *testing.T) *Dataset {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/data/images/train/a.png": "png",
		"/data/labels/train/a.txt": "0 0.5 0.5 0.5 0.5\n1 0.1 0.1 0.2 0.1 0.2 0.2\n",
		"/data/images/train/b.jpg": "jpg",
		"/data/extra/c.webp":       "webp",
		"/data/extra/c.txt":        "2 0.5 0.5 1 1\n",
		"/data/notes.txt":          "not a label",
		"/data/classes.txt":        "car\ntree\n\nbus\n",
	})
	ds, err := Open(fs, "/data")
	require.NoError(t, err)
	return ds
}

func TestDiscover(t *testing.T) {
	samples, err := newDataset(t).Discover()
	require.NoError(t, err)

	assert.Equal(t, []Sample{
		{Name: "extra/c", ImagePath: "extra/c.webp", LabelPath: "extra/c.txt"},
		{Name: "train/a", ImagePath: "images/train/a.png", LabelPath: "labels/train/a.txt"},
		{Name: "train/b", ImagePath: "images/train/b.jpg"},
	}, samples)
}

func TestDiscoverPatterns(t *testing.T) {
	samples, err := newDataset(t).Discover("images/**/*.png", "images/**/*.png")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "images/train/a.png", samples[0].ImagePath)

	_, err = newDataset(t).Discover("[")
	assert.Error(t, err)
}

func TestOpenMissingRoot(t *testing.T) {
	_, err := Open(afero.NewMemMapFs(), "/nowhere")
	assert.Error(t, err)
}

func TestLoadAnnotations(t *testing.T) {
	ds := newDataset(t)
	names, err := ds.ClassNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "tree", "bus"}, names)

	samples, err := ds.Discover()
	require.NoError(t, err)

	anns, err := ds.LoadAnnotations(samples[1], types.Canvas{Width: 100, Height: 200}, names)
	require.NoError(t, err)
	require.Len(t, anns.Boxes, 1)
	assert.InDelta(t, 25, anns.Boxes[0].XMin, 1e-9)
	assert.InDelta(t, 50, anns.Boxes[0].YMin, 1e-9)
	assert.Equal(t, "car", anns.Boxes[0].ClassName)
	require.Len(t, anns.Polygons, 1)
	assert.Equal(t, "tree", anns.Polygons[0].ClassName)

	anns, err = ds.LoadAnnotations(samples[2], types.Canvas{Width: 100, Height: 200}, names)
	require.NoError(t, err)
	assert.Zero(t, anns.Len())
}

func TestClassNamesFromDataYAML(t *testing.T) {
	tests := map[string]struct {
		yaml string
		want []string
	}{
		"list": {"names: [car, tree]\n", []string{"car", "tree"}},
		"map":  {"path: .\nnames:\n  0: car\n  2: bus\n", []string{"car", "1", "bus"}},
		"none": {"path: .\n", nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, map[string]string{"/ds/data.yaml": tt.yaml})
			ds, err := Open(fs, "/ds")
			require.NoError(t, err)

			names, err := ds.ClassNames()
			require.NoError(t, err)
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestClassNamesRejectsScalarNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/ds/data.yaml": "names: car\n"})
	ds, err := Open(fs, "/ds")
	require.NoError(t, err)

	_, err = ds.ClassNames()
	assert.ErrorContains(t, err, "list or a map")
}

func TestWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "/out", WriterConfig{Format: "png"})
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	labels := yolo.Labels{
		Detection:    []string{"0 0.500000 0.500000 0.250000 0.250000"},
		Segmentation: []string{"0 0.1 0.1 0.2 0.1 0.2 0.2"},
	}
	require.NoError(t, w.Write("train/a_aug0", img, labels))
	require.NoError(t, w.Write("../../escape", img, yolo.Labels{}))
	require.NoError(t, w.WriteClasses([]string{"car", "tree"}))

	ok, err := afero.Exists(fs, "/out/images/train/a_aug0.png")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := afero.ReadFile(fs, "/out/labels/train/a_aug0.txt")
	require.NoError(t, err)
	assert.Equal(t, "0 0.500000 0.500000 0.250000 0.250000\n", string(data))

	ok, err = afero.Exists(fs, "/out/images/escape.png")
	require.NoError(t, err)
	assert.True(t, ok, "names cannot leave the output root")

	data, err = afero.ReadFile(fs, "/out/classes.txt")
	require.NoError(t, err)
	assert.Equal(t, "car\ntree\n", string(data))

	assert.Error(t, w.Write("", img, labels))
}

func TestWriterKeepsBoxesAndPolygons(t *testing.T) {
	canvas := types.Canvas{Width: 10, Height: 10}
	labels, err := yolo.Encode(canvas, canvas, types.Annotations{
		Boxes: []types.BoundingBox{{XMin: 0, YMin: 0, XMax: 5, YMax: 5, ClassID: 0}},
		Polygons: []types.Polygon{
			{Points: []types.Point{{X: 5, Y: 5}, {X: 10, Y: 5}, {X: 10, Y: 10}}, ClassID: 1},
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		segmentation bool
		want         string
	}{
		{
			name: "detection",
			want: "0 0.250000 0.250000 0.500000 0.500000\n" +
				"1 0.750000 0.750000 0.500000 0.500000\n",
		},
		{
			name:         "segmentation",
			segmentation: true,
			want: "0 0.000000 0.000000 0.500000 0.000000 0.500000 0.500000 0.000000 0.500000\n" +
				"1 0.500000 0.500000 1.000000 0.500000 1.000000 1.000000\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			w, err := NewWriter(fs, "/out", WriterConfig{Format: "png", Segmentation: tt.segmentation})
			require.NoError(t, err)

			require.NoError(t, w.Write("mixed", image.NewNRGBA(image.Rect(0, 0, 10, 10)), labels))

			data, err := afero.ReadFile(fs, "/out/labels/mixed.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
