// Package rendering provides the renderable descriptors a scene projects to
package rendering

import "github.com/AtRiskMedia/spotlight-go/internal/domain/style"

// ShapeKind tells the UI which element family draws a shape.
type ShapeKind string

const (
	ShapeSVG   ShapeKind = "svg"   // blurred ellipse behind an SVG filter
	ShapeClass ShapeKind = "class" // plain element styled by a class string
	ShapeCSS   ShapeKind = "css"   // plain element styled by user CSS
)

// Shape is one of SVGShape, ClassShape or CSSShape.
type Shape interface {
	Common() ShapeBase
}

// ShapeBase carries what every spotlight shape has in common. Style holds the
// computed geometry, alpha and compositing declarations.
type ShapeBase struct {
	Kind        ShapeKind          `json:"kind"`
	SpotlightID int                `json:"spotlightId"`
	Key         string             `json:"key"`
	ZIndex      int                `json:"zIndex"`
	Style       style.Declarations `json:"style"`
}

// FilterRegion is the filter primitive subregion, widened so the blur is
// not cropped at the element box.
type FilterRegion struct {
	X      string `json:"x"`
	Y      string `json:"y"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Ellipse positions the light inside its SVG viewport.
type Ellipse struct {
	CX string `json:"cx"`
	CY string `json:"cy"`
	RX string `json:"rx"`
	RY string `json:"ry"`
}

type SVGShape struct {
	ShapeBase
	FilterID     string       `json:"filterId"`
	FilterRegion FilterRegion `json:"filterRegion"`
	StdDeviation float64      `json:"stdDeviation"`
	Ellipse      Ellipse      `json:"ellipse"`
	Fill         string       `json:"fill"`
	FillOpacity  float64      `json:"fillOpacity"`
}

type ClassShape struct {
	ShapeBase
	ClassName string `json:"className"`
}

type CSSShape struct {
	ShapeBase
}

func (s SVGShape) Common() ShapeBase   { return s.ShapeBase }
func (s ClassShape) Common() ShapeBase { return s.ShapeBase }
func (s CSSShape) Common() ShapeBase   { return s.ShapeBase }

// BackgroundStyle is the container's background. ClassName is only set for
// class-driven backgrounds, in which case Style is empty.
type BackgroundStyle struct {
	Type      string             `json:"type"`
	Style     style.Declarations `json:"style"`
	ClassName string             `json:"className,omitempty"`
}

// Projection is everything the UI needs to draw a scene.
type Projection struct {
	Background BackgroundStyle `json:"background"`
	BlendMode  string          `json:"blendMode"`
	Shapes     []Shape         `json:"shapes"`
}
