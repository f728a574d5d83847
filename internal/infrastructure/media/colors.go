package media

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor resolves CSS hex, rgb()/rgba() and named colours. Anything else,
// including gradients and var() references, is reported as unknown.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	low := strings.ToLower(s)

	switch low {
	case "":
		return color.NRGBA{}, false
	case "transparent", "none":
		return color.NRGBA{}, true
	}

	if strings.HasPrefix(low, "#") {
		return parseHex(low[1:])
	}

	if strings.HasPrefix(low, "rgb(") || strings.HasPrefix(low, "rgba(") {
		return parseRGB(low)
	}

	if c, ok := colornames.Map[low]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
	}
	return color.NRGBA{}, false
}

func parseHex(hex string) (color.NRGBA, bool) {
	if len(hex) == 3 || len(hex) == 4 {
		expanded := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseRGB(s string) (color.NRGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end <= open {
		return color.NRGBA{}, false
	}
	inner := strings.NewReplacer("/", " ", ",", " ").Replace(s[open+1 : end])
	parts := strings.Fields(inner)
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, false
	}

	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		pct := strings.HasSuffix(p, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		switch {
		case i == 3 && pct:
			v = v / 100 * 255
		case i == 3:
			v *= 255
		case pct:
			v = v / 100 * 255
		}
		ch[i] = uint8(clampUnit(v/255)*255 + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}

func clampUnit(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
