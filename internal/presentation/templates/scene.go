// Package templates renders scene projections as HTML markup
package templates

import (
	"html/template"
	"io"
	"strings"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/projection"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/style"
)

// ContainerClass marks the positioned element that hosts every shape.
const ContainerClass = "spotlight-scene"

var sceneTemplates = template.Must(template.New("sceneRenderer").Parse(
	`{{define "scene"}}<div class="` + ContainerClass + `{{with .ClassName}} {{.}}{{end}}" data-blend-mode="{{.BlendMode}}" style="{{.Style}}">` +
		`{{range .Shapes}}{{template "shape" .}}{{end}}</div>{{end}}` +
		`{{define "shape"}}{{if eq .Kind "svg"}}{{template "svgShape" .}}` +
		`{{else if eq .Kind "class"}}<div data-key="{{.Key}}" class="{{.ClassName}}" style="{{.Style}}"></div>` +
		`{{else}}<div data-key="{{.Key}}" style="{{.Style}}"></div>{{end}}{{end}}` +
		`{{define "svgShape"}}<svg data-key="{{.Key}}" xmlns="http://www.w3.org/2000/svg" style="{{.Style}}">` +
		`<defs><filter id="{{.FilterID}}" x="{{.Region.X}}" y="{{.Region.Y}}" width="{{.Region.Width}}" height="{{.Region.Height}}">` +
		`<feGaussianBlur stdDeviation="{{.StdDeviation}}"/></filter></defs>` +
		`<ellipse cx="{{.Ellipse.CX}}" cy="{{.Ellipse.CY}}" rx="{{.Ellipse.RX}}" ry="{{.Ellipse.RY}}" fill="{{.Fill}}" fill-opacity="{{.FillOpacity}}" filter="url(#{{.FilterID}})"/>` +
		`</svg>{{end}}`,
))

// containerStyle sizes the scene to its parent; background declarations are
// layered on top.
var containerStyle = style.Declarations{
	"position": "relative",
	"overflow": "hidden",
	"width":    "100%",
	"height":   "100%",
}

type sceneData struct {
	ClassName string
	BlendMode string
	Style     template.CSS
	Shapes    []shapeData
}

type shapeData struct {
	Kind         rendering.ShapeKind
	Key          string
	ClassName    string
	Style        template.CSS
	FilterID     string
	Region       rendering.FilterRegion
	StdDeviation string
	Ellipse      rendering.Ellipse
	Fill         string
	FillOpacity  string
}

// RenderScene renders p as a self-contained HTML fragment. Shapes keep their
// projection order, so later spotlights paint over earlier ones.
func RenderScene(p rendering.Projection) string {
	var buf strings.Builder
	if err := WriteScene(&buf, p); err != nil {
		return "<!-- template error -->"
	}
	return buf.String()
}

// WriteScene is RenderScene writing to w.
func WriteScene(w io.Writer, p rendering.Projection) error {
	return sceneTemplates.ExecuteTemplate(w, "scene", newSceneData(p))
}

func newSceneData(p rendering.Projection) sceneData {
	data := sceneData{
		ClassName: p.Background.ClassName,
		BlendMode: p.BlendMode,
		Style:     template.CSS(containerStyle.Merge(p.Background.Style).CSS()),
		Shapes:    make([]shapeData, 0, len(p.Shapes)),
	}

	for _, shape := range p.Shapes {
		common := shape.Common()
		sd := shapeData{
			Kind:  common.Kind,
			Key:   common.Key,
			Style: template.CSS(common.Style.CSS()),
		}

		switch s := shape.(type) {
		case rendering.SVGShape:
			sd.FilterID = s.FilterID
			sd.Region = s.FilterRegion
			sd.StdDeviation = projection.Num(s.StdDeviation)
			sd.Ellipse = s.Ellipse
			sd.Fill = s.Fill
			sd.FillOpacity = projection.Num(s.FillOpacity)
		case rendering.ClassShape:
			sd.ClassName = s.ClassName
		}
		data.Shapes = append(data.Shapes, sd)
	}
	return data
}
