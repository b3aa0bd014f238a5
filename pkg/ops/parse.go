package ops

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Entry is the wire form of one operation: a name plus mode-specific fields
type Entry map[string]any

type resizeParams struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Mode   string `mapstructure:"resize_mode"`
}

type cropParams struct {
	Percent float64 `mapstructure:"percent"`
	Mode    string  `mapstructure:"mode"`
	Seed    *uint64 `mapstructure:"seed"`
	X       int     `mapstructure:"x"`
	Y       int     `mapstructure:"y"`
	Width   int     `mapstructure:"width"`
	Height  int     `mapstructure:"height"`
}

type rotateParams struct {
	AngleDeg float64 `mapstructure:"angle_deg"`
	Expand   bool    `mapstructure:"expand"`
}

type flipParams struct {
	Horizontal bool `mapstructure:"horizontal"`
	Vertical   bool `mapstructure:"vertical"`
}

type zoomParams struct {
	Factor float64 `mapstructure:"factor"`
}

type affineParams struct {
	Scale     *float64 `mapstructure:"scale"`
	AngleDeg  float64  `mapstructure:"angle_deg"`
	ShiftXPct float64  `mapstructure:"shift_x_pct"`
	ShiftYPct float64  `mapstructure:"shift_y_pct"`
}

type shearParams struct {
	AngleDeg float64 `mapstructure:"angle_deg"`
}

// Parse decodes an op-list document. YAML and JSON are both accepted.
func Parse(data []byte) ([]Operation, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse op list: %w", err)
	}
	return FromEntries(entries)
}

// ParseReader decodes an op-list document from r
func ParseReader(r io.Reader) ([]Operation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read op list: %w", err)
	}
	return Parse(data)
}

// FromEntries decodes every entry, keeping list order
func FromEntries(entries []Entry) ([]Operation, error) {
	out := make([]Operation, 0, len(entries))
	for i, entry := range entries {
		op, err := FromEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		out = append(out, op)
	}
	return out, nil
}

// FromEntry decodes one operation. Names this package does not implement decode to Unknown.
func FromEntry(entry Entry) (Operation, error) {
	name, ok := entry["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("missing operation name")
	}
	name = strings.TrimSpace(name)

	disabled := false
	if v, ok := entry["enabled"]; ok {
		var enabled bool
		if err := decode(v, &enabled); err != nil {
			return nil, fmt.Errorf("%s: invalid enabled flag: %w", name, err)
		}
		disabled = !enabled
	}

	switch name {
	case NameResize:
		var p resizeParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return Resize{Width: p.Width, Height: p.Height, Mode: ResizeMode(p.Mode), Disabled: disabled}, nil
	case NameCrop:
		var p cropParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		c := Crop{Percent: p.Percent, Mode: CropMode(p.Mode), Seed: p.Seed, Disabled: disabled}
		if _, hasW := entry["width"]; hasW {
			c.Rect = &Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
		} else if _, hasH := entry["height"]; hasH {
			c.Rect = &Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
		}
		if c.Rect == nil && c.Mode == "" {
			c.Mode = CropCenter
		}
		return c, nil
	case NameRotate:
		var p rotateParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return Rotate{AngleDeg: p.AngleDeg, Expand: p.Expand, Disabled: disabled}, nil
	case NameFlip:
		var p flipParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return Flip{Horizontal: p.Horizontal, Vertical: p.Vertical, Disabled: disabled}, nil
	case NameZoom:
		var p zoomParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return Zoom{Factor: p.Factor, Disabled: disabled}, nil
	case NameAffine:
		var p affineParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		a := Affine{Scale: 1, AngleDeg: p.AngleDeg, ShiftXPct: p.ShiftXPct, ShiftYPct: p.ShiftYPct, Disabled: disabled}
		if p.Scale != nil {
			a.Scale = *p.Scale
		}
		return a, nil
	case NameShear:
		var p shearParams
		if err := decode(entry, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return Shear{AngleDeg: p.AngleDeg, Disabled: disabled}, nil
	default:
		return Unknown{Kind: name, Disabled: disabled}, nil
	}
}

func decode(input any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	return nil
}
