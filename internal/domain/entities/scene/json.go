package scene

import (
	"encoding/json"
	"fmt"
)

type spotlightJSON struct {
	ID            int        `json:"id"`
	Source        SourceKind `json:"source"`
	Fill          *string    `json:"fill,omitempty"`
	FillOpacity   *float64   `json:"fillOpacity,omitempty"`
	GradientClass *string    `json:"gradientClass,omitempty"`
	CSSText       *string    `json:"cssText,omitempty"`
	BlurIntensity *float64   `json:"blurIntensity"`
	Width         *float64   `json:"width"`
	Height        *float64   `json:"height"`
	X             *float64   `json:"x"`
	Y             *float64   `json:"y"`
	Rotation      *float64   `json:"rotation"`
	Opacity       *float64   `json:"opacity"`
	FlipX         *bool      `json:"flipX"`
}

// MarshalJSON writes the flat wire form carrying only the active fill fields.
func (s Spotlight) MarshalJSON() ([]byte, error) {
	out := spotlightJSON{
		ID:            s.ID,
		Source:        s.SourceKind(),
		BlurIntensity: &s.BlurIntensity,
		Width:         &s.Width,
		Height:        &s.Height,
		X:             &s.X,
		Y:             &s.Y,
		Rotation:      &s.Rotation,
		Opacity:       &s.Opacity,
		FlipX:         &s.FlipX,
	}

	switch src := s.Source.(type) {
	case SolidFill:
		out.Fill, out.FillOpacity = &src.Fill, &src.FillOpacity
	case GradientClassFill:
		out.GradientClass = &src.Class
	case RawCSSFill:
		out.CSSText = &src.CSS
	default:
		def := DefaultSource(SourceSolid).(SolidFill)
		out.Fill, out.FillOpacity = &def.Fill, &def.FillOpacity
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads the flat wire form. Every missing field takes its
// NewSpotlight default; fields of inactive variants are ignored.
func (s *Spotlight) UnmarshalJSON(data []byte) error {
	var in spotlightJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	kind := in.Source
	if kind == "" {
		kind = SourceSolid
	}
	source := DefaultSource(kind)
	if source == nil {
		return fmt.Errorf("spotlight %d: %w %q: %v", in.ID, ErrInvalidValue, FieldSource, in.Source)
	}

	switch src := source.(type) {
	case SolidFill:
		if in.Fill != nil {
			src.Fill = *in.Fill
		}
		if in.FillOpacity != nil {
			src.FillOpacity = *in.FillOpacity
		}
		source = src
	case GradientClassFill:
		if in.GradientClass != nil {
			src.Class = *in.GradientClass
		}
		source = src
	case RawCSSFill:
		if in.CSSText != nil {
			src.CSS = *in.CSSText
		}
		source = src
	}

	out := NewSpotlight(in.ID)
	out.Source = source
	for dst, src := range map[*float64]*float64{
		&out.BlurIntensity: in.BlurIntensity,
		&out.Width:         in.Width,
		&out.Height:        in.Height,
		&out.X:             in.X,
		&out.Y:             in.Y,
		&out.Rotation:      in.Rotation,
		&out.Opacity:       in.Opacity,
	} {
		if src != nil {
			*dst = *src
		}
	}
	if in.FlipX != nil {
		out.FlipX = *in.FlipX
	}

	*s = out
	return nil
}

type sceneJSON struct {
	Spotlights []Spotlight      `json:"spotlights"`
	Background BackgroundConfig `json:"background"`
	BlendMode  BlendMode        `json:"blendMode"`
	LastID     int              `json:"lastId"`
}

func (s Scene) MarshalJSON() ([]byte, error) {
	spots := s.Spotlights
	if spots == nil {
		spots = []Spotlight{}
	}
	mode := s.BlendMode
	if mode == "" {
		mode = BlendAbsolute
	}
	return json.Marshal(sceneJSON{
		Spotlights: spots,
		Background: ConfigOf(s.Background),
		BlendMode:  mode,
		LastID:     s.LastID,
	})
}

// UnmarshalJSON reads a scene and rejects one that breaks the model's
// invariants (see Validate).
func (s *Scene) UnmarshalJSON(data []byte) error {
	var in sceneJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if in.Background.Type == "" {
		in.Background.Type = BackgroundPreset
	}
	bg, err := in.Background.Background()
	if err != nil {
		return err
	}

	mode := BlendAbsolute
	if in.BlendMode != "" {
		if mode, err = ParseBlendMode(string(in.BlendMode)); err != nil {
			return err
		}
	}

	normalized, err := Scene{
		Spotlights: in.Spotlights,
		Background: bg,
		BlendMode:  mode,
		LastID:     in.LastID,
	}.Normalize()
	if err != nil {
		return err
	}
	*s = normalized
	return nil
}
