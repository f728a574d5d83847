package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrUnknownField  = errors.New("unknown spotlight field")
	ErrInvalidValue  = errors.New("invalid value for spotlight field")
	ErrInactiveField = errors.New("field does not apply to the spotlight's fill source")
)

// Field is the JSON name of an editable spotlight property.
type Field string

const (
	FieldSource        Field = "source"
	FieldFill          Field = "fill"
	FieldFillOpacity   Field = "fillOpacity"
	FieldGradientClass Field = "gradientClass"
	FieldCSSText       Field = "cssText"
	FieldBlurIntensity Field = "blurIntensity"
	FieldWidth         Field = "width"
	FieldHeight        Field = "height"
	FieldX             Field = "x"
	FieldY             Field = "y"
	FieldRotation      Field = "rotation"
	FieldOpacity       Field = "opacity"
	FieldFlipX         Field = "flipX"
)

// Fields lists every editable field.
var Fields = []Field{
	FieldSource, FieldFill, FieldFillOpacity, FieldGradientClass, FieldCSSText,
	FieldBlurIntensity, FieldWidth, FieldHeight, FieldX, FieldY,
	FieldRotation, FieldOpacity, FieldFlipX,
}

// NextID returns one past the largest id in spots, or 1 when spots is empty.
func NextID(spots []Spotlight) int {
	next := 1
	for _, s := range spots {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}

// IndexOf returns the position of the spotlight with id, or -1.
func IndexOf(spots []Spotlight, id int) int {
	return slices.IndexFunc(spots, func(s Spotlight) bool { return s.ID == id })
}

// Add appends a default spotlight.
func Add(spots []Spotlight) []Spotlight {
	return addAs(spots, NextID(spots))
}

// Duplicate appends a copy of spotlight id nudged down and right by
// DuplicateOffset. Unknown ids leave the list unchanged.
func Duplicate(spots []Spotlight, id int) []Spotlight {
	out, _ := duplicateAs(spots, id, NextID(spots))
	return out
}

// MirrorDuplicate appends a copy of spotlight id reflected across the
// container's vertical centreline with FlipX toggled.
func MirrorDuplicate(spots []Spotlight, id int) []Spotlight {
	out, _ := mirrorAs(spots, id, NextID(spots))
	return out
}

// Remove drops spotlight id unless it is the only one left.
func Remove(spots []Spotlight, id int) []Spotlight {
	out, _ := remove(spots, id)
	return out
}

// Update replaces a single field of spotlight id. Unknown ids are a no-op.
func Update(spots []Spotlight, id int, field Field, value any) ([]Spotlight, error) {
	out, _, err := update(spots, id, field, value)
	return out, err
}

func addAs(spots []Spotlight, newID int) []Spotlight {
	return append(slices.Clone(spots), NewSpotlight(newID))
}

func duplicateAs(spots []Spotlight, id, newID int) ([]Spotlight, bool) {
	i := IndexOf(spots, id)
	if i < 0 {
		return slices.Clone(spots), false
	}

	dup := spots[i]
	dup.ID = newID
	dup.X += DuplicateOffset
	dup.Y += DuplicateOffset
	return append(slices.Clone(spots), dup), true
}

func mirrorAs(spots []Spotlight, id, newID int) ([]Spotlight, bool) {
	i := IndexOf(spots, id)
	if i < 0 {
		return slices.Clone(spots), false
	}

	mirror := spots[i]
	mirror.ID = newID
	mirror.X = MirrorX(mirror.X)
	mirror.FlipX = !mirror.FlipX
	return append(slices.Clone(spots), mirror), true
}

// MirrorX reflects a horizontal percentage across the centreline, clamped to
// the allowed placement range.
func MirrorX(x float64) float64 {
	return Clamp(MirrorAxis-x, MinPosition, MaxPosition)
}

func remove(spots []Spotlight, id int) ([]Spotlight, bool) {
	i := IndexOf(spots, id)
	if len(spots) <= 1 || i < 0 {
		return slices.Clone(spots), false
	}
	return slices.Delete(slices.Clone(spots), i, i+1), true
}

func update(spots []Spotlight, id int, field Field, value any) ([]Spotlight, bool, error) {
	out := slices.Clone(spots)
	i := IndexOf(out, id)
	if i < 0 {
		// a missing target is a no-op whatever the field
		return out, false, nil
	}

	updated, err := setField(out[i], field, value)
	if err != nil {
		return out, false, err
	}
	changed := out[i] != updated
	out[i] = updated
	return out, changed, nil
}

func setField(s Spotlight, field Field, value any) (Spotlight, error) {
	switch field {
	case FieldSource:
		raw, ok := value.(string)
		if !ok {
			return s, invalid(field, value)
		}
		kind := SourceKind(raw)
		if DefaultSource(kind) == nil {
			return s, invalid(field, value)
		}
		if s.SourceKind() != kind {
			s.Source = DefaultSource(kind)
		}
	case FieldFill, FieldFillOpacity:
		solid, ok := s.Source.(SolidFill)
		if !ok {
			return s, inactive(field, s)
		}
		if field == FieldFill {
			fill, ok := value.(string)
			if !ok {
				return s, invalid(field, value)
			}
			solid.Fill = fill
		} else {
			v, ok := toFloat(value)
			if !ok {
				return s, invalid(field, value)
			}
			solid.FillOpacity = v
		}
		s.Source = solid
	case FieldGradientClass:
		if _, ok := s.Source.(GradientClassFill); !ok {
			return s, inactive(field, s)
		}
		class, ok := value.(string)
		if !ok {
			return s, invalid(field, value)
		}
		s.Source = GradientClassFill{Class: class}
	case FieldCSSText:
		if _, ok := s.Source.(RawCSSFill); !ok {
			return s, inactive(field, s)
		}
		css, ok := value.(string)
		if !ok {
			return s, invalid(field, value)
		}
		s.Source = RawCSSFill{CSS: css}
	case FieldFlipX:
		flip, ok := value.(bool)
		if !ok {
			return s, invalid(field, value)
		}
		s.FlipX = flip
	case FieldBlurIntensity, FieldWidth, FieldHeight, FieldX, FieldY, FieldRotation, FieldOpacity:
		v, ok := toFloat(value)
		if !ok {
			return s, invalid(field, value)
		}
		*numericField(&s, field) = v
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return s, nil
}

func numericField(s *Spotlight, field Field) *float64 {
	switch field {
	case FieldBlurIntensity:
		return &s.BlurIntensity
	case FieldWidth:
		return &s.Width
	case FieldHeight:
		return &s.Height
	case FieldX:
		return &s.X
	case FieldY:
		return &s.Y
	case FieldRotation:
		return &s.Rotation
	default:
		return &s.Opacity
	}
}

func invalid(field Field, value any) error {
	return fmt.Errorf("%w %q: %v (%T)", ErrInvalidValue, field, value, value)
}

func inactive(field Field, s Spotlight) error {
	return fmt.Errorf("%w: %q on %s spotlight %d", ErrInactiveField, field, s.SourceKind(), s.ID)
}

// toFloat accepts finite numbers only.
func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
