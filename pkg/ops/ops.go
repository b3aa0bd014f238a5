// Package ops defines the geometric operations an augmentation pipeline applies to an image
// and its annotations, and decodes them from YAML or JSON op lists.
//
// The set of operations is closed: every value implementing Operation is one of the types in
// this package. Op lists coming from newer producers may name operations this version does not
// know; those decode to Unknown and are ignored by the pipeline.
package ops

// Operation names as they appear in op-list documents
const (
	NameResize = "resize"
	NameCrop   = "crop"
	NameRotate = "rotate"
	NameFlip   = "flip"
	NameZoom   = "random_zoom"
	NameAffine = "affine_transform"
	NameShear  = "shear"
)

// Operation is one geometric step of a pipeline
type Operation interface {
	// Name returns the op-list name of the operation
	Name() string
	// Enabled reports whether the pipeline should apply the operation
	Enabled() bool

	sealed()
}

// ResizeMode selects how a resize maps the current canvas onto the target size
type ResizeMode string

const (
	StretchTo       ResizeMode = "stretch_to"
	FitWithin       ResizeMode = "fit_within"
	FillCenterCrop  ResizeMode = "fill_center_crop"
	FitBlackEdges   ResizeMode = "fit_black_edges"
	FitWhiteEdges   ResizeMode = "fit_white_edges"
	FitReflectEdges ResizeMode = "fit_reflect_edges"
)

// Letterbox reports whether the mode pads the scaled image out to the target size
func (m ResizeMode) Letterbox() bool {
	switch m {
	case FitBlackEdges, FitWhiteEdges, FitReflectEdges:
		return true
	}
	return false
}

// Known reports whether the mode is one this package understands
func (m ResizeMode) Known() bool {
	switch m {
	case StretchTo, FitWithin, FillCenterCrop:
		return true
	}
	return m.Letterbox()
}

// CropMode selects where a percent crop is anchored
type CropMode string

const (
	CropCenter      CropMode = "center"
	CropRandom      CropMode = "random"
	CropTopLeft     CropMode = "top_left"
	CropTopRight    CropMode = "top_right"
	CropBottomLeft  CropMode = "bottom_left"
	CropBottomRight CropMode = "bottom_right"
)

// Known reports whether the mode is one this package understands
func (m CropMode) Known() bool {
	switch m {
	case CropCenter, CropRandom, CropTopLeft, CropTopRight, CropBottomLeft, CropBottomRight:
		return true
	}
	return false
}

// Rect is a literal crop rectangle in current-canvas pixels
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resize scales the canvas to Width x Height according to Mode
type Resize struct {
	Width    int
	Height   int
	Mode     ResizeMode
	Disabled bool
}

// Crop cuts a region out of the current canvas. When Rect is set the crop is literal,
// otherwise Percent of each dimension is kept, anchored by Mode.
type Crop struct {
	Percent float64
	Mode    CropMode
	// Seed drives the offset for CropRandom. Nil falls back to the pipeline seed.
	Seed     *uint64
	Rect     *Rect
	Disabled bool
}

// Rotate turns the canvas about its center. Positive angles are counter-clockwise as displayed.
type Rotate struct {
	AngleDeg float64
	Expand   bool
	Disabled bool
}

// Flip mirrors the canvas about its center
type Flip struct {
	Horizontal bool
	Vertical   bool
	Disabled   bool
}

// Zoom scales uniformly about the canvas center without changing the canvas
type Zoom struct {
	Factor   float64
	Disabled bool
}

// Affine scales, rotates and then shifts about the canvas center. Shifts are percentages of
// the current canvas.
type Affine struct {
	Scale     float64
	AngleDeg  float64
	ShiftXPct float64
	ShiftYPct float64
	Disabled  bool
}

// Shear slants the canvas horizontally by tan(AngleDeg) about its center
type Shear struct {
	AngleDeg float64
	Disabled bool
}

// Unknown carries an operation name this version does not implement
type Unknown struct {
	Kind     string
	Disabled bool
}

func (Resize) Name() string { return NameResize }
func (Crop) Name() string   { return NameCrop }
func (Rotate) Name() string { return NameRotate }
func (Flip) Name() string   { return NameFlip }
func (Zoom) Name() string   { return NameZoom }
func (Affine) Name() string { return NameAffine }
func (Shear) Name() string  { return NameShear }
func (u Unknown) Name() string {
	return u.Kind
}

func (o Resize) Enabled() bool  { return !o.Disabled }
func (o Crop) Enabled() bool    { return !o.Disabled }
func (o Rotate) Enabled() bool  { return !o.Disabled }
func (o Flip) Enabled() bool    { return !o.Disabled }
func (o Zoom) Enabled() bool    { return !o.Disabled }
func (o Affine) Enabled() bool  { return !o.Disabled }
func (o Shear) Enabled() bool   { return !o.Disabled }
func (o Unknown) Enabled() bool { return !o.Disabled }

func (Resize) sealed()  {}
func (Crop) sealed()    {}
func (Rotate) sealed()  {}
func (Flip) sealed()    {}
func (Zoom) sealed()    {}
func (Affine) sealed()  {}
func (Shear) sealed()   {}
func (Unknown) sealed() {}

// PinSeeds returns a copy of list where every random crop without its own seed carries seed.
// Resolving seeds once per invocation lets the pixel and annotation paths reproduce the same
// crop rectangle.
func PinSeeds(list []Operation, seed uint64) []Operation {
	out := make([]Operation, len(list))
	for i, op := range list {
		if c, ok := op.(Crop); ok && c.Rect == nil && c.Mode == CropRandom && c.Seed == nil {
			s := seed
			c.Seed = &s
			op = c
		}
		out[i] = op
	}
	return out
}
