// Package codegen produces the reusable Spotlight component shipped to users.
package codegen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/projection"
)

// ComponentName is the exported React component.
const ComponentName = "Spotlight"

var (
	once      sync.Once
	generated string
)

// Generate returns the component template followed by usage notes. The text
// does not depend on any scene and is identical on every call.
func Generate() string {
	once.Do(func() {
		var b strings.Builder
		writeComponent(&b)
		b.WriteString("\n")
		writeUsage(&b)
		generated = b.String()
	})
	return generated
}

// Component returns only the TSX source, without usage notes.
func Component() string {
	var b strings.Builder
	writeComponent(&b)
	return b.String()
}

func writeComponent(b *strings.Builder) {
	region := projection.SolidFilterRegion
	ellipse := projection.SolidEllipse

	b.WriteString("import type { CSSProperties } from \"react\";\n\n")

	fmt.Fprintf(b, "export interface %sProps {\n", ComponentName)
	b.WriteString("  id: number | string;\n")
	b.WriteString("  fill?: string;\n")
	b.WriteString("  fillOpacity?: number;\n")
	b.WriteString("  blur?: number;\n")
	b.WriteString("  width?: number;\n")
	b.WriteString("  height?: number;\n")
	b.WriteString("  x?: number;\n")
	b.WriteString("  y?: number;\n")
	b.WriteString("  rotation?: number;\n")
	b.WriteString("  opacity?: number;\n")
	b.WriteString("  flipX?: boolean;\n")
	fmt.Fprintf(b, "  blendMode?: %q | %q;\n", projection.BlendNormal, projection.BlendScreen)
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "export function %s({\n", ComponentName)
	b.WriteString("  id,\n")
	fmt.Fprintf(b, "  fill = %q,\n", scene.DefaultFill)
	fmt.Fprintf(b, "  fillOpacity = %s,\n", projection.Num(scene.DefaultFillOpacity))
	fmt.Fprintf(b, "  blur = %s,\n", projection.Num(scene.DefaultBlur))
	fmt.Fprintf(b, "  width = %s,\n", projection.Num(scene.DefaultSize))
	fmt.Fprintf(b, "  height = %s,\n", projection.Num(scene.DefaultSize))
	fmt.Fprintf(b, "  x = %s,\n", projection.Num(scene.DefaultPosition))
	fmt.Fprintf(b, "  y = %s,\n", projection.Num(scene.DefaultPosition))
	fmt.Fprintf(b, "  rotation = %s,\n", projection.Num(scene.DefaultRotation))
	fmt.Fprintf(b, "  opacity = %s,\n", projection.Num(scene.DefaultOpacity))
	b.WriteString("  flipX = false,\n")
	fmt.Fprintf(b, "  blendMode = %q,\n", projection.BlendNormal)
	fmt.Fprintf(b, "}: %sProps) {\n", ComponentName)

	fmt.Fprintf(b, "  const filterId = `%s${id}`;\n", projection.FilterIDPrefix)
	b.WriteString("  const style: CSSProperties = {\n")
	b.WriteString("    position: \"absolute\",\n")
	b.WriteString("    left: `${x}%`,\n")
	b.WriteString("    top: `${y}%`,\n")
	b.WriteString("    width,\n")
	b.WriteString("    height,\n")
	b.WriteString("    transform: `translate(-50%, -50%)${flipX ? \" scaleX(-1)\" : \"\"} rotate(${rotation}deg)`,\n")
	b.WriteString("    opacity,\n")
	b.WriteString("    mixBlendMode: blendMode,\n")
	b.WriteString("    pointerEvents: \"none\",\n")
	b.WriteString("    overflow: \"visible\",\n")
	b.WriteString("  };\n\n")

	b.WriteString("  return (\n")
	b.WriteString("    <svg style={style} width={width} height={height} aria-hidden=\"true\">\n")
	b.WriteString("      <defs>\n")
	fmt.Fprintf(b, "        <filter id={filterId} x=%q y=%q width=%q height=%q>\n",
		region.X, region.Y, region.Width, region.Height)
	b.WriteString("          <feGaussianBlur stdDeviation={blur} />\n")
	b.WriteString("        </filter>\n")
	b.WriteString("      </defs>\n")
	fmt.Fprintf(b, "      <ellipse cx=%q cy=%q rx=%q ry=%q fill={fill} fillOpacity={fillOpacity} filter={`url(#${filterId})`} />\n",
		ellipse.CX, ellipse.CY, ellipse.RX, ellipse.RY)
	b.WriteString("    </svg>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
}

func writeUsage(b *strings.Builder) {
	b.WriteString("/*\n")
	b.WriteString("Usage\n\n")
	b.WriteString("1. Save this file as Spotlight.tsx in your components folder.\n")
	b.WriteString("2. Render spotlights inside a container with position: relative and overflow: hidden.\n")
	b.WriteString("3. Give every spotlight a unique id so each keeps its own blur filter.\n\n")
	b.WriteString("<div style={{ position: \"relative\", overflow: \"hidden\", height: 600 }}>\n")
	fmt.Fprintf(b, "  <%s id={1} x={30} y={40} fill=\"#38bdf8\" />\n", ComponentName)
	fmt.Fprintf(b, "  <%s id={2} x={70} y={40} fill=\"#f472b6\" flipX blendMode=%q />\n", ComponentName, projection.BlendScreen)
	b.WriteString("</div>\n\n")
	fmt.Fprintf(b, "Ranges: blur %s-%s, width/height %s-%s, x/y %s-%s, rotation %s-%s, opacity %s-%s, fillOpacity %s-%s.\n",
		projection.Num(scene.MinBlur), projection.Num(scene.MaxBlur),
		projection.Num(scene.MinSize), projection.Num(scene.MaxSize),
		projection.Num(scene.MinPosition), projection.Num(scene.MaxPosition),
		projection.Num(scene.MinRotation), projection.Num(scene.MaxRotation),
		projection.Num(scene.MinOpacity), projection.Num(scene.MaxOpacity),
		projection.Num(scene.MinFillOpacity), projection.Num(scene.MaxFillOpacity))
	b.WriteString("*/\n")
}
