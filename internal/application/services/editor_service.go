// Package services provides application-level services that coordinate the
// editor session store, the scene model and the render projector.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/projection"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/security"
)

var ErrSessionNotFound = errors.New("editor session not found")

// SceneState is a scene together with its projection.
type SceneState struct {
	Version    uint64               `json:"version"`
	Scene      scene.Scene          `json:"scene"`
	Projection rendering.Projection `json:"projection"`
}

// MutationResult is returned by every editor operation. Changed is false for
// no-ops such as removing the last spotlight or an unknown id.
type MutationResult struct {
	Changed bool `json:"changed"`
	SceneState
}

// NewSession is the response to session creation.
type NewSession struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	SceneState
}

// EditorService applies editor operations to stored sessions and publishes
// every change to the session's subscribers.
type EditorService struct {
	store         *stores.EditorSessionStore
	tokens        *security.TokenIssuer
	publisher     messaging.Publisher
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
	maxSpotlights int
}

// NewEditorService creates the editor service. maxSpotlights of zero or
// less leaves scenes uncapped; publisher may be nil.
func NewEditorService(
	store *stores.EditorSessionStore,
	tokens *security.TokenIssuer,
	publisher messaging.Publisher,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	maxSpotlights int,
) *EditorService {
	return &EditorService{
		store:         store,
		tokens:        tokens,
		publisher:     publisher,
		logger:        logger,
		perfTracker:   perfTracker,
		maxSpotlights: maxSpotlights,
	}
}

// CreateSession starts a session from initial, or from the default scene
// when initial is nil.
func (s *EditorService) CreateSession(initial *scene.Scene) (*NewSession, error) {
	marker := s.perfTracker.StartOperation("editor:create_session", "")
	defer marker.Complete()

	sc := scene.NewScene()
	if initial != nil {
		normalized, err := initial.Normalize()
		if err != nil {
			marker.SetError(err)
			return nil, err
		}
		if s.maxSpotlights > 0 && len(normalized.Spotlights) > s.maxSpotlights {
			err := fmt.Errorf("%w: %d spotlights exceeds the limit of %d",
				scene.ErrInvalidScene, len(normalized.Spotlights), s.maxSpotlights)
			marker.SetError(err)
			return nil, err
		}
		sc = normalized
	}

	id := security.GenerateSessionID()
	session, err := s.store.Create(id, sc)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to create editor session: %w", err)
	}

	token, expires, err := s.tokens.Issue(id)
	if err != nil {
		s.store.Delete(id)
		marker.SetError(err)
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	marker.SetSuccess(true)
	s.logger.LogSessionEvent("created", id, s.store.Count())

	return &NewSession{
		SessionID:  id,
		Token:      token,
		ExpiresAt:  expires,
		SceneState: s.snapshot(session),
	}, nil
}

// Session returns the current state of a session.
func (s *EditorService) Session(sessionID string) (*SceneState, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	state := s.snapshot(session)
	return &state, nil
}

// Scene returns the current scene of a session.
func (s *EditorService) Scene(sessionID string) (scene.Scene, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return scene.Scene{}, ErrSessionNotFound
	}
	session.Mu.Lock()
	defer session.Mu.Unlock()
	return session.Scene, nil
}

// Project returns the projection of a session's current scene.
func (s *EditorService) Project(sessionID string) (rendering.Projection, error) {
	marker := s.perfTracker.StartOperation("render:project", sessionID)
	defer marker.Complete()

	sc, err := s.Scene(sessionID)
	if err != nil {
		marker.SetError(err)
		return rendering.Projection{}, err
	}
	marker.SetSuccess(true)
	return projection.ProjectScene(sc), nil
}

// DeleteSession ends a session and disconnects its subscribers.
func (s *EditorService) DeleteSession(sessionID string) error {
	session, ok := s.store.Get(sessionID)
	if !ok || !s.store.Delete(sessionID) {
		return ErrSessionNotFound
	}
	if s.publisher != nil {
		// pairs with Subscribe so no subscriber outlives the session
		session.Mu.Lock()
		s.publisher.CloseSession(sessionID)
		session.Mu.Unlock()
	}
	s.logger.LogSessionEvent("deleted", sessionID, s.store.Count())
	return nil
}

// Subscribe registers a subscriber of sessionID whose first queued event is
// the current state. Registration and the snapshot happen under the session
// lock, the same lock mutations publish under, so the subscriber sees every
// later version and never an older one after a newer.
func (s *EditorService) Subscribe(sessionID string, subscriber messaging.Subscriber) (*messaging.Client, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if current, ok := s.store.Get(sessionID); !ok || current != session {
		return nil, ErrSessionNotFound
	}

	client := subscriber.AddClient(sessionID)
	state := s.stateLocked(session)
	payload, err := json.Marshal(messaging.Event{
		Type:      messaging.EventSceneUpdated,
		SessionID: sessionID,
		Version:   state.Version,
		Data:      state,
	})
	if err != nil {
		subscriber.RemoveClient(client)
		return nil, fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	select {
	case client.Send <- payload:
	default:
	}
	return client, nil
}

// VerifyToken checks that token was issued for sessionID.
func (s *EditorService) VerifyToken(token, sessionID string) error {
	return s.tokens.Verify(token, sessionID)
}

// ActiveSessions returns the number of live sessions.
func (s *EditorService) ActiveSessions() int {
	return s.store.Count()
}

// AddSpotlight appends a default spotlight.
func (s *EditorService) AddSpotlight(sessionID string) (*MutationResult, error) {
	return s.mutate(sessionID, "add", func(sc scene.Scene) (scene.Scene, bool, error) {
		return s.grow(sc, sc.AddSpotlight)
	})
}

// DuplicateSpotlight appends an offset copy of spotlightID.
func (s *EditorService) DuplicateSpotlight(sessionID string, spotlightID int) (*MutationResult, error) {
	return s.mutate(sessionID, "duplicate", func(sc scene.Scene) (scene.Scene, bool, error) {
		return s.grow(sc, func() (scene.Scene, bool) { return sc.DuplicateSpotlight(spotlightID) })
	})
}

// MirrorDuplicateSpotlight appends a mirrored copy of spotlightID.
func (s *EditorService) MirrorDuplicateSpotlight(sessionID string, spotlightID int) (*MutationResult, error) {
	return s.mutate(sessionID, "mirror", func(sc scene.Scene) (scene.Scene, bool, error) {
		return s.grow(sc, func() (scene.Scene, bool) { return sc.MirrorDuplicateSpotlight(spotlightID) })
	})
}

// RemoveSpotlight removes spotlightID unless it is the last one.
func (s *EditorService) RemoveSpotlight(sessionID string, spotlightID int) (*MutationResult, error) {
	return s.mutate(sessionID, "remove", func(sc scene.Scene) (scene.Scene, bool, error) {
		out, changed := sc.RemoveSpotlight(spotlightID)
		return out, changed, nil
	})
}

// UpdateSpotlight sets one field of spotlightID.
func (s *EditorService) UpdateSpotlight(sessionID string, spotlightID int, field scene.Field, value any) (*MutationResult, error) {
	return s.mutate(sessionID, "update", func(sc scene.Scene) (scene.Scene, bool, error) {
		return sc.UpdateSpotlight(spotlightID, field, value)
	})
}

// SetBackground replaces the scene background.
func (s *EditorService) SetBackground(sessionID string, bg scene.Background) (*MutationResult, error) {
	return s.mutate(sessionID, "set_background", func(sc scene.Scene) (scene.Scene, bool, error) {
		out, changed := sc.SetBackground(bg)
		return out, changed, nil
	})
}

// SetBlendMode replaces the global blend mode.
func (s *EditorService) SetBlendMode(sessionID string, mode scene.BlendMode) (*MutationResult, error) {
	return s.mutate(sessionID, "set_blend_mode", func(sc scene.Scene) (scene.Scene, bool, error) {
		out, changed := sc.SetBlendMode(mode)
		return out, changed, nil
	})
}

// grow applies an operation that adds a spotlight unless the scene is full.
func (s *EditorService) grow(sc scene.Scene, op func() (scene.Scene, bool)) (scene.Scene, bool, error) {
	if s.maxSpotlights > 0 && len(sc.Spotlights) >= s.maxSpotlights {
		return sc, false, nil
	}
	out, changed := op()
	return out, changed, nil
}

func (s *EditorService) mutate(sessionID, operation string, apply func(scene.Scene) (scene.Scene, bool, error)) (*MutationResult, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("editor:"+operation, sessionID)
	defer marker.Complete()

	session, ok := s.store.Get(sessionID)
	if !ok {
		marker.SetError(ErrSessionNotFound)
		return nil, ErrSessionNotFound
	}

	session.Mu.Lock()
	next, changed, err := apply(session.Scene)
	session.LastActivity = s.store.Now()
	if err != nil {
		session.Mu.Unlock()
		marker.SetError(err)
		return nil, err
	}
	if changed {
		session.Scene = next
		session.Version++
	}
	result := &MutationResult{Changed: changed, SceneState: s.stateLocked(session)}

	// publishing under the session lock keeps versions in order per session
	if changed && s.publisher != nil {
		s.publisher.Publish(sessionID, messaging.EventSceneUpdated, result.Version, result.SceneState)
	}
	session.Mu.Unlock()

	marker.AddMetadata("changed", changed)
	marker.SetSuccess(true)
	s.logger.LogSceneMutation(operation, sessionID, changed, len(result.Scene.Spotlights), time.Since(start))
	return result, nil
}

func (s *EditorService) snapshot(session *types.EditorSession) SceneState {
	session.Mu.Lock()
	defer session.Mu.Unlock()
	return s.stateLocked(session)
}

func (s *EditorService) stateLocked(session *types.EditorSession) SceneState {
	return SceneState{
		Version:    session.Version,
		Scene:      session.Scene,
		Projection: projection.ProjectScene(session.Scene),
	}
}
