package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidScene reports a scene that breaks the model's invariants.
var ErrInvalidScene = errors.New("invalid scene")

// Scene is the complete editable state of one editor session. Scene values
// are treated as immutable: every method returns a new Scene and never
// writes through the receiver's slice.
type Scene struct {
	Spotlights []Spotlight
	Background Background
	BlendMode  BlendMode
	// LastID is the largest id ever handed out, so removed ids stay retired.
	LastID int
}

// NewScene returns the editor's starting scene: two default spotlights over
// the preset gradient, composited alpha-over.
func NewScene() Scene {
	return Scene{
		Spotlights: []Spotlight{NewSpotlight(1), NewSpotlight(2)},
		Background: PresetGradient{},
		BlendMode:  BlendAbsolute,
		LastID:     2,
	}
}

// Clone returns a copy that shares no slice storage with s.
func (s Scene) Clone() Scene {
	s.Spotlights = slices.Clone(s.Spotlights)
	return s
}

// Validate checks that s has at least one spotlight, that every id is
// positive and unique, and that every number is finite.
func (s Scene) Validate() error {
	if len(s.Spotlights) == 0 {
		return fmt.Errorf("%w: a scene needs at least one spotlight", ErrInvalidScene)
	}
	seen := make(map[int]bool, len(s.Spotlights))
	for i, sp := range s.Spotlights {
		if sp.ID <= 0 {
			return fmt.Errorf("%w: spotlight %d has non-positive id %d", ErrInvalidScene, i, sp.ID)
		}
		if seen[sp.ID] {
			return fmt.Errorf("%w: duplicate spotlight id %d", ErrInvalidScene, sp.ID)
		}
		seen[sp.ID] = true
		if !sp.finite() {
			return fmt.Errorf("%w: spotlight %d has a non-finite value", ErrInvalidScene, sp.ID)
		}
	}
	return nil
}

// Normalize validates s and returns a copy whose LastID covers every id, with
// a nil background, blend mode or fill source replaced by its default.
func (s Scene) Normalize() (Scene, error) {
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	out := s.Clone()
	for i := range out.Spotlights {
		if out.Spotlights[i].Source == nil {
			out.Spotlights[i].Source = DefaultSource(SourceSolid)
		}
	}
	if out.Background == nil {
		out.Background = PresetGradient{}
	}
	if out.BlendMode == "" {
		out.BlendMode = BlendAbsolute
	}
	if maxID := NextID(out.Spotlights) - 1; out.LastID < maxID {
		out.LastID = maxID
	}
	return out, nil
}

func (s Spotlight) finite() bool {
	values := []float64{s.BlurIntensity, s.Width, s.Height, s.X, s.Y, s.Rotation, s.Opacity}
	if solid, ok := s.Source.(SolidFill); ok {
		values = append(values, solid.FillOpacity)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Spotlight looks up a spotlight by id.
func (s Scene) Spotlight(id int) (Spotlight, bool) {
	i := IndexOf(s.Spotlights, id)
	if i < 0 {
		return Spotlight{}, false
	}
	return s.Spotlights[i], true
}

func (s Scene) nextID() int {
	next := NextID(s.Spotlights)
	if s.LastID >= next {
		next = s.LastID + 1
	}
	return next
}

func (s Scene) withSpotlights(spots []Spotlight, issued int) Scene {
	s.Spotlights = spots
	if issued > s.LastID {
		s.LastID = issued
	}
	return s
}

// AddSpotlight appends a default spotlight.
func (s Scene) AddSpotlight() (Scene, bool) {
	id := s.nextID()
	return s.withSpotlights(addAs(s.Spotlights, id), id), true
}

// DuplicateSpotlight appends an offset copy of spotlight id.
func (s Scene) DuplicateSpotlight(id int) (Scene, bool) {
	newID := s.nextID()
	spots, ok := duplicateAs(s.Spotlights, id, newID)
	if !ok {
		return s.Clone(), false
	}
	return s.withSpotlights(spots, newID), true
}

// MirrorDuplicateSpotlight appends a horizontally mirrored copy of spotlight id.
func (s Scene) MirrorDuplicateSpotlight(id int) (Scene, bool) {
	newID := s.nextID()
	spots, ok := mirrorAs(s.Spotlights, id, newID)
	if !ok {
		return s.Clone(), false
	}
	return s.withSpotlights(spots, newID), true
}

// RemoveSpotlight removes spotlight id, refusing to remove the last one.
func (s Scene) RemoveSpotlight(id int) (Scene, bool) {
	spots, ok := remove(s.Spotlights, id)
	return s.withSpotlights(spots, 0), ok
}

// UpdateSpotlight sets one field of spotlight id.
func (s Scene) UpdateSpotlight(id int, field Field, value any) (Scene, bool, error) {
	spots, changed, err := update(s.Spotlights, id, field, value)
	if err != nil {
		return s.Clone(), false, err
	}
	return s.withSpotlights(spots, 0), changed, nil
}

// SetBackground replaces the background.
func (s Scene) SetBackground(bg Background) (Scene, bool) {
	out := s.Clone()
	changed := out.Background != bg
	out.Background = bg
	return out, changed
}

// SetBlendMode replaces the global blend mode.
func (s Scene) SetBlendMode(mode BlendMode) (Scene, bool) {
	out := s.Clone()
	changed := out.BlendMode != mode
	out.BlendMode = mode
	return out, changed
}
