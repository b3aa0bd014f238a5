package dataset

import (
	"fmt"
	"image"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/yolo"
)

// WriterConfig holds output settings for a Writer
type WriterConfig struct {
	// Format is jpg, png or webp
	Format   string
	Quality  int
	Lossless bool
	// Segmentation writes every annotation as a polygon line instead of a box line
	Segmentation bool
}

// Writer writes augmented samples as images/<name>.<format> and labels/<name>.txt
type Writer struct {
	fs     afero.Fs
	proc   *processing.Processor
	config WriterConfig
	mu     sync.Mutex
}

// NewWriter creates a Writer rooted at root on fs
func NewWriter(fs afero.Fs, root string, config WriterConfig) (*Writer, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if config.Format == "" {
		config.Format = "jpg"
	}
	base := afero.NewBasePathFs(fs, root)
	return &Writer{
		fs:     base,
		proc:   processing.NewProcessorWithFs(base),
		config: config,
	}, nil
}

// Write stores one sample. Safe for concurrent use.
func (w *Writer) Write(name string, img image.Image, labels yolo.Labels) error {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return fmt.Errorf("empty sample name")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	imagePath := path.Join("images", name+"."+strings.ToLower(w.config.Format))
	if err := w.proc.SaveImage(img, imagePath, w.config.Format, w.config.Quality, w.config.Lossless); err != nil {
		return fmt.Errorf("failed to write %s: %w", imagePath, err)
	}

	lines := labels.Lines(w.config.Segmentation)
	labelPath := path.Join("labels", name+".txt")
	if err := w.fs.MkdirAll(path.Dir(labelPath), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(w.fs, labelPath, []byte(yolo.Text(lines)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", labelPath, err)
	}
	return nil
}

// WriteClasses writes classes.txt with one name per line
func (w *Writer) WriteClasses(names []string) error {
	if len(names) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return afero.WriteFile(w.fs, "classes.txt", []byte(yolo.Text(names)), 0o644)
}
