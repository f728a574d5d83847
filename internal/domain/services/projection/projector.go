// Package projection turns scene state into renderable descriptors.
package projection

import (
	"strconv"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/style"
)

const (
	FilterIDPrefix = "spotlight-blur-"
	KeyPrefix      = "spotlight-"

	PresetGradient    = "radial-gradient(ellipse at top, #1e293b 0%, #0f172a 50%, #020617 100%)"
	PresetBaseColor   = "#0f172a"
	DarkColor         = "#0a0a0a"
	LightColor        = "#f5f5f5"
	DefaultSolidColor = "white"

	BlendNormal = "normal"
	BlendScreen = "screen"
)

// Filter region and ellipse geometry shared by every solid-fill shape and by
// the exported component template.
var (
	SolidFilterRegion = rendering.FilterRegion{X: "-50%", Y: "-50%", Width: "200%", Height: "200%"}
	SolidEllipse      = rendering.Ellipse{CX: "50%", CY: "50%", RX: "50%", RY: "50%"}
)

// BackgroundSizingProperties are owned by the container and stripped from
// custom background CSS.
var BackgroundSizingProperties = []string{
	"width", "height", "minWidth", "minHeight", "maxWidth", "maxHeight",
}

// Project maps the scene inputs to a background style plus one shape per
// spotlight in list order. It is deterministic and never fails; out-of-range
// numbers are passed through.
func Project(spotlights []scene.Spotlight, bg scene.Background, mode scene.BlendMode) rendering.Projection {
	shapes := make([]rendering.Shape, 0, len(spotlights))
	for i, s := range spotlights {
		shapes = append(shapes, projectSpotlight(s, i, mode))
	}

	return rendering.Projection{
		Background: ProjectBackground(bg),
		BlendMode:  MixBlendMode(mode),
		Shapes:     shapes,
	}
}

// ProjectScene is Project over a whole scene.
func ProjectScene(s scene.Scene) rendering.Projection {
	return Project(s.Spotlights, s.Background, s.BlendMode)
}

// ProjectBackground maps the active background variant to its style.
func ProjectBackground(bg scene.Background) rendering.BackgroundStyle {
	if bg == nil {
		bg = scene.PresetGradient{}
	}
	out := rendering.BackgroundStyle{Type: string(bg.Type()), Style: style.Declarations{}}

	switch b := bg.(type) {
	case scene.PresetGradient:
		out.Style["background"] = PresetGradient
	case scene.SolidBackground:
		color := b.Color
		if color == "" {
			color = DefaultSolidColor
		}
		out.Style["backgroundColor"] = color
	case scene.DarkBackground:
		out.Style["backgroundColor"] = DarkColor
	case scene.LightBackground:
		out.Style["backgroundColor"] = LightColor
	case scene.TransparentBackground:
	case scene.CustomGradientClass:
		out.ClassName = b.Class
	case scene.CustomCSS:
		out.Style = style.Parse(b.CSS).Without(BackgroundSizingProperties...)
	}
	return out
}

// MixBlendMode is the CSS compositing keyword for a blend mode.
func MixBlendMode(mode scene.BlendMode) string {
	if mode == scene.BlendScreen {
		return BlendScreen
	}
	return BlendNormal
}

// FilterID is the SVG filter id for a spotlight. It depends on the id only,
// so reordering spotlights never moves a filter to another shape.
func FilterID(spotlightID int) string {
	return FilterIDPrefix + strconv.Itoa(spotlightID)
}

// Transform centres the element on its anchor, mirrors it when flipped and
// then rotates it.
func Transform(s scene.Spotlight) string {
	t := "translate(-50%, -50%)"
	if s.FlipX {
		t += " scaleX(-1)"
	}
	return t + " rotate(" + Num(s.Rotation) + "deg)"
}

// Num formats a float with the shortest exact representation.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func px(v float64) string  { return Num(v) + "px" }
func pct(v float64) string { return Num(v) + "%" }

// Blur is the CSS filter applied to class and css shapes.
func Blur(radius float64) string {
	return "blur(" + px(radius) + ")"
}

func baseStyle(s scene.Spotlight, mode scene.BlendMode) style.Declarations {
	return style.Declarations{
		"position":      "absolute",
		"left":          pct(s.X),
		"top":           pct(s.Y),
		"width":         px(s.Width),
		"height":        px(s.Height),
		"transform":     Transform(s),
		"opacity":       Num(s.Opacity),
		"mixBlendMode":  MixBlendMode(mode),
		"pointerEvents": "none",
	}
}

func projectSpotlight(s scene.Spotlight, z int, mode scene.BlendMode) rendering.Shape {
	base := rendering.ShapeBase{
		SpotlightID: s.ID,
		Key:         KeyPrefix + strconv.Itoa(s.ID),
		ZIndex:      z,
		Style:       baseStyle(s, mode),
	}

	switch src := s.Source.(type) {
	case scene.GradientClassFill:
		base.Kind = rendering.ShapeClass
		base.Style["filter"] = Blur(s.BlurIntensity)
		return rendering.ClassShape{ShapeBase: base, ClassName: src.Class}
	case scene.RawCSSFill:
		base.Kind = rendering.ShapeCSS
		base.Style["filter"] = Blur(s.BlurIntensity)
		base.Style = base.Style.Merge(style.Parse(src.CSS))
		return rendering.CSSShape{ShapeBase: base}
	default:
		solid, ok := src.(scene.SolidFill)
		if !ok {
			solid = scene.DefaultSource(scene.SourceSolid).(scene.SolidFill)
		}
		base.Kind = rendering.ShapeSVG
		base.Style["overflow"] = "visible"
		return rendering.SVGShape{
			ShapeBase:    base,
			FilterID:     FilterID(s.ID),
			FilterRegion: SolidFilterRegion,
			StdDeviation: s.BlurIntensity,
			Ellipse:      SolidEllipse,
			Fill:         solid.Fill,
			FillOpacity:  solid.FillOpacity,
		}
	}
}
