// Package dataset reads and writes YOLO-style datasets: images next to, or in an images/ tree
// mirrored by, labels/ text files, plus an optional class list.
package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-augmenter/internal/utils"
	"github.com/menta2k/image-augmenter/pkg/types"
	"github.com/menta2k/image-augmenter/pkg/yolo"
)

// DefaultPattern matches every decodable image below the root
const DefaultPattern = "**/*.{jpg,jpeg,JPG,JPEG,png,PNG,webp,WEBP}"

// Sample is one image of a dataset and its label file, both relative to the dataset root
type Sample struct {
	// Name is the image path without extension and without a leading images/ directory
	Name      string
	ImagePath string
	// LabelPath is empty when the image has no label file
	LabelPath string
}

// Dataset is a dataset rooted at a directory of an afero filesystem
type Dataset struct {
	fs   afero.Fs
	root string
}

// Open returns the dataset under root
func Open(fs afero.Fs, root string) (*Dataset, error) {
	if !utils.DirExists(fs, root) {
		return nil, fmt.Errorf("dataset root %s is not a directory", root)
	}
	return &Dataset{fs: afero.NewBasePathFs(fs, root), root: root}, nil
}

// Root returns the directory the dataset was opened at
func (d *Dataset) Root() string {
	return d.root
}

// Discover finds images matching patterns (DefaultPattern when none are given) and pairs each
// with its label file. Results are sorted by image path.
func (d *Dataset) Discover(patterns ...string) ([]Sample, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	fsys := afero.NewIOFS(d.fs)

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to match %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] && utils.IsImageFile(m) {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	slices.Sort(paths)

	samples := make([]Sample, 0, len(paths))
	for _, p := range paths {
		samples = append(samples, Sample{
			Name:      sampleName(p),
			ImagePath: p,
			LabelPath: d.labelFor(p),
		})
	}
	return samples, nil
}

// labelFor maps images/x/a.jpg to labels/x/a.txt, falling back to a sibling a.txt
func (d *Dataset) labelFor(imagePath string) string {
	parts := strings.Split(imagePath, "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] != "images" {
			continue
		}
		mirrored := slices.Clone(parts)
		mirrored[i] = "labels"
		candidate := utils.ReplaceExtension(strings.Join(mirrored, "/"), "txt")
		if utils.FileExists(d.fs, candidate) {
			return candidate
		}
		break
	}
	if sibling := utils.ReplaceExtension(imagePath, "txt"); utils.FileExists(d.fs, sibling) {
		return sibling
	}
	return ""
}

func sampleName(imagePath string) string {
	name := strings.TrimSuffix(imagePath, path.Ext(imagePath))
	if rest, ok := strings.CutPrefix(name, "images/"); ok {
		return rest
	}
	return name
}

// ReadImage returns the raw bytes of a sample's image
func (d *Dataset) ReadImage(s Sample) ([]byte, error) {
	return afero.ReadFile(d.fs, s.ImagePath)
}

// LoadAnnotations parses the sample's label file onto canvas. A sample without a label file
// has no annotations.
func (d *Dataset) LoadAnnotations(s Sample, canvas types.Canvas, classNames []string) (types.Annotations, error) {
	if s.LabelPath == "" {
		return types.Annotations{}, nil
	}
	f, err := d.fs.Open(s.LabelPath)
	if err != nil {
		return types.Annotations{}, fmt.Errorf("failed to open labels: %w", err)
	}
	defer f.Close()

	anns, err := yolo.Parse(f, canvas, classNames)
	if err != nil {
		return types.Annotations{}, fmt.Errorf("%s: %w", s.LabelPath, err)
	}
	return anns, nil
}

// ClassNames loads class names from classes.txt, or from the names key of data.yaml,
// which may be a list or an id-to-name map. It returns nil when neither file exists.
func (d *Dataset) ClassNames() ([]string, error) {
	if utils.FileExists(d.fs, "classes.txt") {
		data, err := afero.ReadFile(d.fs, "classes.txt")
		if err != nil {
			return nil, err
		}
		return parseClassList(data), nil
	}
	for _, name := range []string{"data.yaml", "data.yml"} {
		if !utils.FileExists(d.fs, name) {
			continue
		}
		data, err := afero.ReadFile(d.fs, name)
		if err != nil {
			return nil, err
		}
		names, err := parseDataYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return names, nil
	}
	return nil, nil
}

func parseClassList(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names
}

func parseDataYAML(data []byte) ([]string, error) {
	var doc struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	switch doc.Names.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var names []string
		if err := doc.Names.Decode(&names); err != nil {
			return nil, err
		}
		return names, nil
	case yaml.MappingNode:
		var byID map[int]string
		if err := doc.Names.Decode(&byID); err != nil {
			return nil, err
		}
		maxID := -1
		for id := range byID {
			if id < 0 {
				return nil, fmt.Errorf("negative class id %d", id)
			}
			maxID = max(maxID, id)
		}
		names := make([]string, maxID+1)
		for id, name := range byID {
			names[id] = name
		}
		for id, name := range names {
			if name == "" {
				names[id] = strconv.Itoa(id)
			}
		}
		return names, nil
	default:
		return nil, fmt.Errorf("names must be a list or a map")
	}
}
