// Package scene defines the spotlight editor's core domain entities and the
// pure operations that mutate them.
package scene

// SourceKind names the mechanism that supplies a spotlight's fill.
type SourceKind string

const (
	SourceSolid    SourceKind = "solid"
	SourceGradient SourceKind = "gradient"
	SourceCSS      SourceKind = "css"
)

// FillSource is one of SolidFill, GradientClassFill or RawCSSFill.
type FillSource interface {
	Kind() SourceKind
	isFillSource()
}

// SolidFill paints the light with a flat colour behind a Gaussian blur.
type SolidFill struct {
	Fill        string  `json:"fill"`
	FillOpacity float64 `json:"fillOpacity"`
}

// GradientClassFill takes its look from an externally applied class string.
type GradientClassFill struct {
	Class string `json:"gradientClass"`
}

// RawCSSFill layers user-authored inline style text over the computed shape.
type RawCSSFill struct {
	CSS string `json:"cssText"`
}

func (SolidFill) Kind() SourceKind         { return SourceSolid }
func (GradientClassFill) Kind() SourceKind { return SourceGradient }
func (RawCSSFill) Kind() SourceKind        { return SourceCSS }

func (SolidFill) isFillSource()         {}
func (GradientClassFill) isFillSource() {}
func (RawCSSFill) isFillSource()        {}

// Advisory domains. The model stores anything; input widgets clamp.
const (
	MinFillOpacity = 0.0
	MaxFillOpacity = 0.8
	MinBlur        = 50.0
	MaxBlur        = 300.0
	MinSize        = 200.0
	MaxSize        = 900.0
	MinPosition    = -20.0
	MaxPosition    = 120.0
	MinRotation    = 0.0
	MaxRotation    = 360.0
	MinOpacity     = 0.0
	MaxOpacity     = 1.0
)

const (
	DefaultFill          = "white"
	DefaultFillOpacity   = 0.3
	DefaultBlur          = 151.0
	DefaultSize          = 400.0
	DefaultPosition      = 50.0
	DefaultRotation      = 0.0
	DefaultOpacity       = 0.7
	DuplicateOffset      = 10.0
	MirrorAxis           = 100.0
	DefaultGradientClass = ""
	DefaultCSSText       = ""
)

// Spotlight is one configurable light shape.
type Spotlight struct {
	ID            int
	Source        FillSource
	BlurIntensity float64
	Width         float64
	Height        float64
	X             float64
	Y             float64
	Rotation      float64
	Opacity       float64
	FlipX         bool
}

// NewSpotlight returns a fully populated spotlight with the editor defaults.
func NewSpotlight(id int) Spotlight {
	return Spotlight{
		ID:            id,
		Source:        DefaultSource(SourceSolid),
		BlurIntensity: DefaultBlur,
		Width:         DefaultSize,
		Height:        DefaultSize,
		X:             DefaultPosition,
		Y:             DefaultPosition,
		Rotation:      DefaultRotation,
		Opacity:       DefaultOpacity,
	}
}

// DefaultSource returns the starting variant for kind, or nil when kind is
// not a known source.
func DefaultSource(kind SourceKind) FillSource {
	switch kind {
	case SourceSolid:
		return SolidFill{Fill: DefaultFill, FillOpacity: DefaultFillOpacity}
	case SourceGradient:
		return GradientClassFill{Class: DefaultGradientClass}
	case SourceCSS:
		return RawCSSFill{CSS: DefaultCSSText}
	}
	return nil
}

// SourceKind reports the active fill mechanism, treating a nil source as solid.
func (s Spotlight) SourceKind() SourceKind {
	if s.Source == nil {
		return SourceSolid
	}
	return s.Source.Kind()
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
