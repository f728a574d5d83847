// Package media rasterizes scenes into preview images
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/projection"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/style"
	"github.com/anthonynsimon/bild/blend"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// Format is a preview image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ReferenceWidth is the container width spotlight pixel sizes are relative to.
const ReferenceWidth = 1440

const (
	minPreviewSide = 16
	// blur is computed on a grid at most this many sigmas per cell
	blurCellSigma = 6.0
)

var (
	ErrUnsupportedFormat = errors.New("unsupported preview format")
	ErrInvalidSize       = errors.New("invalid preview size")
)

// ParseFormat resolves a file extension or format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// PreviewRenderer draws approximate raster previews of a scene.
type PreviewRenderer struct {
	maxWidth int
	quality  float32
}

// NewPreviewRenderer creates a renderer capping previews at maxWidth pixels
// and encoding WebP at quality (0-100).
func NewPreviewRenderer(maxWidth int, quality float64) *PreviewRenderer {
	if maxWidth < minPreviewSide {
		maxWidth = 1600
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &PreviewRenderer{maxWidth: maxWidth, quality: float32(quality)}
}

// Size validates a requested size. A zero height follows a 16:9 aspect.
func (r *PreviewRenderer) Size(width, height int) (int, int, error) {
	if width == 0 {
		width = r.maxWidth
	}
	if height == 0 {
		height = width * 9 / 16
	}
	if width < minPreviewSide || height < minPreviewSide || width > r.maxWidth || height > r.maxWidth {
		return 0, 0, fmt.Errorf("%w: %dx%d (max %d)", ErrInvalidSize, width, height, r.maxWidth)
	}
	return width, height, nil
}

// Render rasterizes s and encodes it.
func (r *PreviewRenderer) Render(s scene.Scene, width, height int, format Format) ([]byte, error) {
	width, height, err := r.Size(width, height)
	if err != nil {
		return nil, err
	}

	img := r.Rasterize(s, width, height)

	var buf bytes.Buffer
	if err := r.Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes img in format.
func (r *PreviewRenderer) Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		if err := imaging.Encode(w, img, imaging.PNG); err != nil {
			return fmt.Errorf("failed to encode png preview: %w", err)
		}
	case FormatWebP:
		if err := webp.Encode(w, img, &webp.Options{Quality: r.quality}); err != nil {
			return fmt.Errorf("failed to encode webp preview: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}

// Rasterize paints the background and every solid-fill spotlight in list
// order. Class and CSS fills are styled by the host page and are skipped.
func (r *PreviewRenderer) Rasterize(s scene.Scene, width, height int) *image.NRGBA {
	canvas := paintBackground(s.Background, width, height)
	scale := float64(width) / ReferenceWidth
	// no layer side exceeds twice the larger canvas side
	limit := float64(max(width, height))

	for _, spot := range s.Spotlights {
		if spot.Source == nil {
			spot.Source = scene.DefaultSource(scene.SourceSolid)
		}
		solid, ok := spot.Source.(scene.SolidFill)
		if !ok {
			continue
		}
		if !finite(spot.Width, spot.Height, spot.BlurIntensity, spot.X, spot.Y, spot.Rotation, spot.Opacity, solid.FillOpacity) {
			continue
		}

		cx := spot.X / 100 * float64(width)
		cy := spot.Y / 100 * float64(height)
		// the layer box spans twice the ellipse; reach covers it at any rotation
		reach := math.Hypot(spot.Width*scale, spot.Height*scale)
		if cx+reach < 0 || cx-reach > float64(width) || cy+reach < 0 || cy-reach > float64(height) {
			continue
		}

		layer, ok := spotlightLayer(spot, solid, scale, limit)
		if !ok {
			continue
		}
		pos := image.Pt(
			int(math.Round(cx-float64(layer.Bounds().Dx())/2)),
			int(math.Round(cy-float64(layer.Bounds().Dy())/2)),
		)

		if s.BlendMode == scene.BlendScreen {
			canvas = screenOver(canvas, layer, pos)
		} else {
			canvas = imaging.Overlay(canvas, layer, pos, 1.0)
		}
	}
	return canvas
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// spotlightLayer draws the blurred ellipse inside a box twice its size,
// matching the widened SVG filter region. Ellipses larger than limit on
// either axis are scaled down to it, keeping their aspect.
func spotlightLayer(spot scene.Spotlight, fill scene.SolidFill, scale, limit float64) (*image.NRGBA, bool) {
	c, ok := ParseColor(fill.Fill)
	if !ok {
		c, _ = ParseColor(scene.DefaultFill)
	}

	alpha := clampUnit(fill.FillOpacity) * clampUnit(spot.Opacity) * float64(c.A) / 255
	if alpha == 0 {
		return nil, false
	}

	w := math.Max(spot.Width*scale, 1)
	h := math.Max(spot.Height*scale, 1)
	sigma := math.Max(spot.BlurIntensity*scale, 0)
	if longest := math.Max(w, h); longest > limit {
		shrink := limit / longest
		w, h, sigma = math.Max(w*shrink, 1), math.Max(h*shrink, 1), sigma*shrink
	}

	// Blur on a coarser grid; the result is smooth so upsampling is lossless
	// to the eye.
	cell := math.Max(1, sigma/blurCellSigma)
	lw := int(math.Ceil(2 * w / cell))
	lh := int(math.Ceil(2 * h / cell))
	if lw < 2 || lh < 2 {
		return nil, false
	}

	layer := image.NewNRGBA(image.Rect(0, 0, lw, lh))
	fillEllipse(layer, color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(alpha*255 + 0.5)})
	if sigma/cell > 0.5 {
		layer = imaging.Blur(layer, sigma/cell)
	}
	if spot.FlipX {
		layer = imaging.FlipH(layer)
	}

	full := imaging.Resize(layer, int(math.Ceil(2*w)), int(math.Ceil(2*h)), imaging.Linear)
	if rot := math.Mod(spot.Rotation, 360); rot != 0 {
		// imaging rotates counter-clockwise; CSS rotates clockwise
		full = imaging.Rotate(full, -rot, color.Transparent)
	}
	return full, true
}

// kappa places cubic control points so four arcs approximate an ellipse.
const kappa = 0.5522847498

// fillEllipse paints the anti-aliased ellipse inscribed in the middle half
// of img.
func fillEllipse(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	cx, cy := float32(b.Dx())/2, float32(b.Dy())/2
	rx, ry := float32(b.Dx())/4, float32(b.Dy())/4
	kx, ky := rx*kappa, ry*kappa

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(cx+rx, cy)
	z.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	z.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	z.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	z.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	z.ClosePath()
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

// screenOver composites src onto dst at pos with the screen blend mode and
// returns the result. Only the overlapping region is blended.
func screenOver(dst, src *image.NRGBA, pos image.Point) *image.NRGBA {
	area := src.Bounds().Add(pos).Intersect(dst.Bounds())
	if area.Empty() {
		return dst
	}
	under := imaging.Crop(dst, area)
	over := imaging.Crop(src, area.Sub(pos))
	return imaging.Paste(dst, blend.Screen(under, over), area.Min)
}

func paintBackground(bg scene.Background, width, height int) *image.NRGBA {
	switch b := bg.(type) {
	case nil, scene.PresetGradient:
		return presetGradient(width, height)
	case scene.SolidBackground:
		c, ok := ParseColor(b.Color)
		if !ok {
			c, _ = ParseColor(projection.DefaultSolidColor)
		}
		return imaging.New(width, height, c)
	case scene.DarkBackground:
		c, _ := ParseColor(projection.DarkColor)
		return imaging.New(width, height, c)
	case scene.LightBackground:
		c, _ := ParseColor(projection.LightColor)
		return imaging.New(width, height, c)
	case scene.CustomCSS:
		// a plain colour is the only custom background a raster can honour
		decl := style.Parse(b.CSS)
		for _, prop := range []string{"backgroundColor", "background"} {
			if c, ok := ParseColor(decl[prop]); ok {
				return imaging.New(width, height, c)
			}
		}
	}
	return imaging.New(width, height, color.Transparent)
}

// presetGradient approximates the preset radial gradient, anchored at the
// top centre, with its three stops.
func presetGradient(width, height int) *image.NRGBA {
	stops := []struct {
		at float64
		c  color.NRGBA
	}{
		{0, color.NRGBA{0x1e, 0x29, 0x3b, 0xff}},
		{0.5, color.NRGBA{0x0f, 0x17, 0x2a, 0xff}},
		{1, color.NRGBA{0x02, 0x06, 0x17, 0xff}},
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	cx := float64(width) / 2
	// farthest-corner ellipse, as CSS sizes it
	rx := float64(width) / 2 * math.Sqrt2
	ry := float64(height) * math.Sqrt2

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			dy := (float64(y) + 0.5) / ry
			t := math.Min(math.Sqrt(dx*dx+dy*dy), 1)

			i := 0
			for i < len(stops)-2 && t > stops[i+1].at {
				i++
			}
			a, b := stops[i], stops[i+1]
			f := (t - a.at) / (b.at - a.at)
			lerp := func(p, q uint8) uint8 { return uint8(float64(p) + (float64(q)-float64(p))*f + 0.5) }
			img.SetNRGBA(x, y, color.NRGBA{lerp(a.c.R, b.c.R), lerp(a.c.G, b.c.G), lerp(a.c.B, b.c.B), 0xff})
		}
	}
	return img
}
