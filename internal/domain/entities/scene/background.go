package scene

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownBackground = errors.New("unknown background type")
	ErrUnknownBlendMode  = errors.New("unknown blend mode")
)

// BackgroundType discriminates the active background.
type BackgroundType string

const (
	BackgroundPreset              BackgroundType = "preset"
	BackgroundSolid               BackgroundType = "solid"
	BackgroundDark                BackgroundType = "dark"
	BackgroundLight               BackgroundType = "light"
	BackgroundTransparent         BackgroundType = "transparent"
	BackgroundCustomGradientClass BackgroundType = "custom-tailwind"
	BackgroundCustomCSS           BackgroundType = "custom-css"
)

// Background is exactly one of the background variants below.
type Background interface {
	Type() BackgroundType
	isBackground()
}

type PresetGradient struct{}

type SolidBackground struct {
	Color string
}

type DarkBackground struct{}

type LightBackground struct{}

type TransparentBackground struct{}

// CustomGradientClass leaves the visual effect to a class applied by the UI.
type CustomGradientClass struct {
	Class string
}

type CustomCSS struct {
	CSS string
}

func (PresetGradient) Type() BackgroundType        { return BackgroundPreset }
func (SolidBackground) Type() BackgroundType       { return BackgroundSolid }
func (DarkBackground) Type() BackgroundType        { return BackgroundDark }
func (LightBackground) Type() BackgroundType       { return BackgroundLight }
func (TransparentBackground) Type() BackgroundType { return BackgroundTransparent }
func (CustomGradientClass) Type() BackgroundType   { return BackgroundCustomGradientClass }
func (CustomCSS) Type() BackgroundType             { return BackgroundCustomCSS }

func (PresetGradient) isBackground()        {}
func (SolidBackground) isBackground()       {}
func (DarkBackground) isBackground()        {}
func (LightBackground) isBackground()       {}
func (TransparentBackground) isBackground() {}
func (CustomGradientClass) isBackground()   {}
func (CustomCSS) isBackground()             {}

// BackgroundConfig is the flat wire form of a Background. Only the field
// belonging to Type is read; the others are ignored.
type BackgroundConfig struct {
	Type          BackgroundType `json:"type"`
	Color         string         `json:"color,omitempty"`
	TailwindClass string         `json:"tailwindClass,omitempty"`
	CSSText       string         `json:"cssText,omitempty"`
}

// Background converts the config into its variant.
func (c BackgroundConfig) Background() (Background, error) {
	switch c.Type {
	case BackgroundPreset:
		return PresetGradient{}, nil
	case BackgroundSolid:
		return SolidBackground{Color: c.Color}, nil
	case BackgroundDark:
		return DarkBackground{}, nil
	case BackgroundLight:
		return LightBackground{}, nil
	case BackgroundTransparent:
		return TransparentBackground{}, nil
	case BackgroundCustomGradientClass:
		return CustomGradientClass{Class: c.TailwindClass}, nil
	case BackgroundCustomCSS:
		return CustomCSS{CSS: c.CSSText}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackground, c.Type)
}

// ConfigOf returns the wire form of bg. A nil background reads as the preset.
func ConfigOf(bg Background) BackgroundConfig {
	switch b := bg.(type) {
	case SolidBackground:
		return BackgroundConfig{Type: BackgroundSolid, Color: b.Color}
	case CustomGradientClass:
		return BackgroundConfig{Type: BackgroundCustomGradientClass, TailwindClass: b.Class}
	case CustomCSS:
		return BackgroundConfig{Type: BackgroundCustomCSS, CSSText: b.CSS}
	case nil:
		return BackgroundConfig{Type: BackgroundPreset}
	default:
		return BackgroundConfig{Type: bg.Type()}
	}
}

// BlendMode is the global compositing policy for every spotlight.
type BlendMode string

const (
	// BlendAbsolute composites with standard alpha-over.
	BlendAbsolute BlendMode = "absolute"
	// BlendScreen lightens whatever lies beneath each spotlight.
	BlendScreen BlendMode = "blend"
)

// ParseBlendMode validates a wire value.
func ParseBlendMode(raw string) (BlendMode, error) {
	switch mode := BlendMode(raw); mode {
	case BlendAbsolute, BlendScreen:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBlendMode, raw)
}
