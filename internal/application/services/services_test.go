package services

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/codegen"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	editor      *EditorService
	store       *stores.EditorSessionStore
	broadcaster *messaging.SceneBroadcaster
	tracker     *performance.Tracker
	logger      *logging.ChanneledLogger
}

func newFixture(t *testing.T, maxSessions, maxSpotlights int) *fixture {
	t.Helper()
	logger := logging.NewDiscardLogger()
	tokens, err := security.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		store:       stores.NewEditorSessionStore(maxSessions, logger),
		broadcaster: messaging.NewSceneBroadcaster(8, logger),
		tracker:     performance.NewTracker(nil),
		logger:      logger,
	}
	f.editor = NewEditorService(f.store, tokens, f.broadcaster, logger, f.tracker, maxSpotlights)
	return f
}

func (f *fixture) session(t *testing.T) string {
	t.Helper()
	created, err := f.editor.CreateSession(nil)
	require.NoError(t, err)
	return created.SessionID
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t, 2, 0)

	created, err := f.editor.CreateSession(nil)
	require.NoError(t, err)
	assert.True(t, security.IsSessionID(created.SessionID))
	assert.NotEmpty(t, created.Token)
	assert.True(t, created.ExpiresAt.After(time.Now()))
	assert.Equal(t, uint64(0), created.Version)
	assert.Len(t, created.Scene.Spotlights, 2)
	assert.Len(t, created.Projection.Shapes, 2)
	assert.NoError(t, f.editor.VerifyToken(created.Token, created.SessionID))
	assert.ErrorIs(t, f.editor.VerifyToken(created.Token, "other"), security.ErrInvalidToken)

	initial := scene.NewScene()
	initial, _ = initial.SetBlendMode(scene.BlendScreen)
	second, err := f.editor.CreateSession(&initial)
	require.NoError(t, err)
	assert.Equal(t, scene.BlendScreen, second.Scene.BlendMode)
	assert.Equal(t, "screen", second.Projection.BlendMode)

	_, err = f.editor.CreateSession(nil)
	assert.ErrorIs(t, err, stores.ErrSessionLimit)
	assert.Equal(t, 2, f.editor.ActiveSessions())
}

func TestCreateSessionRejectsInvalidSeed(t *testing.T) {
	f := newFixture(t, 0, 3)

	dup := scene.Scene{Spotlights: []scene.Spotlight{scene.NewSpotlight(1), scene.NewSpotlight(1)}}
	tooMany := scene.Scene{Spotlights: []scene.Spotlight{
		scene.NewSpotlight(1), scene.NewSpotlight(2), scene.NewSpotlight(3), scene.NewSpotlight(4),
	}}

	for name, seed := range map[string]scene.Scene{
		"empty":        {},
		"duplicate id": dup,
		"zero id":      {Spotlights: []scene.Spotlight{scene.NewSpotlight(0)}},
		"over the cap": tooMany,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.editor.CreateSession(&seed)
			assert.ErrorIs(t, err, scene.ErrInvalidScene)
		})
	}
	assert.Equal(t, 0, f.editor.ActiveSessions())

	bare := scene.Scene{Spotlights: []scene.Spotlight{scene.NewSpotlight(5)}}
	created, err := f.editor.CreateSession(&bare)
	require.NoError(t, err)
	assert.Equal(t, 5, created.Scene.LastID)
	assert.Equal(t, scene.BlendAbsolute, created.Scene.BlendMode)

	res, err := f.editor.AddSpotlight(created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Scene.Spotlights[1].ID)
}

func TestMutationsBumpVersionOnlyWhenChanged(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)

	res, err := f.editor.AddSpotlight(id)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint64(1), res.Version)
	assert.Len(t, res.Scene.Spotlights, 3)
	assert.Len(t, res.Projection.Shapes, 3)

	res, err = f.editor.DuplicateSpotlight(id, 99)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint64(1), res.Version)

	res, err = f.editor.MirrorDuplicateSpotlight(id, 1)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 4, res.Scene.Spotlights[3].ID)
	assert.True(t, res.Scene.Spotlights[3].FlipX)

	res, err = f.editor.UpdateSpotlight(id, 1, scene.FieldX, 30.0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	res, err = f.editor.UpdateSpotlight(id, 1, scene.FieldX, 30.0)
	require.NoError(t, err)
	assert.False(t, res.Changed, "same value is a no-op")

	res, err = f.editor.SetBackground(id, scene.DarkBackground{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "dark", res.Projection.Background.Type)

	res, err = f.editor.SetBlendMode(id, scene.BlendScreen)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint64(5), res.Version)

	state, err := f.editor.Session(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), state.Version)
	assert.Equal(t, res.Scene, state.Scene)
}

func TestRemoveKeepsLastSpotlight(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)

	res, err := f.editor.RemoveSpotlight(id, 1)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = f.editor.RemoveSpotlight(id, 2)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Len(t, res.Scene.Spotlights, 1)
}

func TestUpdateErrors(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)

	_, err := f.editor.UpdateSpotlight(id, 1, scene.Field("colour"), "red")
	assert.ErrorIs(t, err, scene.ErrUnknownField)

	_, err = f.editor.UpdateSpotlight(id, 1, scene.FieldWidth, "wide")
	assert.ErrorIs(t, err, scene.ErrInvalidValue)

	_, err = f.editor.UpdateSpotlight(id, 1, scene.FieldCSSText, "color: red")
	assert.ErrorIs(t, err, scene.ErrInactiveField)

	_, err = f.editor.UpdateSpotlight(id, 1, scene.FieldWidth, math.Inf(1))
	assert.ErrorIs(t, err, scene.ErrInvalidValue)

	res, err := f.editor.UpdateSpotlight(id, 404, scene.Field("colour"), "red")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	state, err := f.editor.Session(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), state.Version, "failed updates leave the scene untouched")
}

func TestSpotlightCap(t *testing.T) {
	f := newFixture(t, 0, 3)
	id := f.session(t)

	res, err := f.editor.AddSpotlight(id)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	for _, op := range []func() (*MutationResult, error){
		func() (*MutationResult, error) { return f.editor.AddSpotlight(id) },
		func() (*MutationResult, error) { return f.editor.DuplicateSpotlight(id, 1) },
		func() (*MutationResult, error) { return f.editor.MirrorDuplicateSpotlight(id, 1) },
	} {
		res, err := op()
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Len(t, res.Scene.Spotlights, 3)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t, 0, 0)

	_, err := f.editor.AddSpotlight("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.editor.Session("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.editor.Project("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.editor.DeleteSession("missing"), ErrSessionNotFound)
}

func TestMutationsArePublished(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)
	client := f.broadcaster.AddClient(id)

	_, err := f.editor.AddSpotlight(id)
	require.NoError(t, err)
	_, err = f.editor.RemoveSpotlight(id, 404)
	require.NoError(t, err)

	require.Len(t, client.Send, 1, "no-ops are not published")
	var event struct {
		Type    string          `json:"type"`
		Version uint64          `json:"version"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-client.Send, &event))
	assert.Equal(t, messaging.EventSceneUpdated, event.Type)
	assert.Equal(t, uint64(1), event.Version)

	var state struct {
		Scene scene.Scene `json:"scene"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &state))
	assert.Len(t, state.Scene.Spotlights, 3)

	require.NoError(t, f.editor.DeleteSession(id))
	msg, ok := <-client.Send
	require.True(t, ok)
	assert.Contains(t, string(msg), messaging.EventSessionEnded)
	_, ok = <-client.Send
	assert.False(t, ok, "subscriber channel is closed")
	assert.Equal(t, 0, f.editor.ActiveSessions())
}

func TestSubscribeQueuesSnapshotFirst(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)
	_, err := f.editor.AddSpotlight(id)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_, err := f.editor.UpdateSpotlight(id, 1, scene.FieldX, float64(10+i))
			assert.NoError(t, err)
		}
	}()
	client, err := f.editor.Subscribe(id, f.broadcaster)
	require.NoError(t, err)
	<-done

	var versions []uint64
	for len(client.Send) > 0 {
		var event messaging.Event
		require.NoError(t, json.Unmarshal(<-client.Send, &event))
		assert.Equal(t, messaging.EventSceneUpdated, event.Type)
		versions = append(versions, event.Version)
	}

	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i], "versions %v", versions)
	}
	assert.Equal(t, uint64(6), versions[len(versions)-1])

	require.NoError(t, f.editor.DeleteSession(id))
	msg, ok := <-client.Send
	require.True(t, ok)
	assert.Contains(t, string(msg), messaging.EventSessionEnded)

	_, err = f.editor.Subscribe(id, f.broadcaster)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, f.broadcaster.ClientCount(id))
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.editor.AddSpotlight(id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := f.editor.Session(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), state.Version)
	assert.Len(t, state.Scene.Spotlights, 22)

	seen := map[int]bool{}
	for _, s := range state.Scene.Spotlights {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
	}
}

func TestMutationsAreTracked(t *testing.T) {
	f := newFixture(t, 0, 0)
	id := f.session(t)
	_, err := f.editor.AddSpotlight(id)
	require.NoError(t, err)

	ops := map[string]int{}
	for _, s := range f.tracker.Stats() {
		ops[s.Operation] = s.Count
	}
	assert.Equal(t, 1, ops["editor:add"])
	assert.Equal(t, 1, ops["editor:create_session"])
}

func TestCodeService(t *testing.T) {
	f := newFixture(t, 0, 0)
	svc := NewCodeService(f.logger, f.tracker)

	text, err := svc.Generate(codegen.FormatText)
	require.NoError(t, err)
	assert.Equal(t, codegen.Generate(), text)

	_, err = svc.Generate(codegen.Format("doc"))
	assert.ErrorIs(t, err, codegen.ErrUnknownFormat)
}

func TestRenderService(t *testing.T) {
	f := newFixture(t, 0, 0)
	svc := NewRenderService(f.editor, media.NewPreviewRenderer(320, 80), f.logger, f.tracker)
	id := f.session(t)

	html, err := svc.Markup(id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(html, `<div class="spotlight-scene"`))

	data, err := svc.Preview(id, 160, 90, media.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))

	_, err = svc.Preview(id, 4000, 90, media.FormatPNG)
	assert.ErrorIs(t, err, media.ErrInvalidSize)

	_, err = svc.Markup("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSysOpService(t *testing.T) {
	f := newFixture(t, 10, 0)
	svc := NewSysOpService(f.editor, f.broadcaster, f.logger, f.tracker, 10)
	id := f.session(t)
	f.broadcaster.AddClient(id)

	stats := svc.Stats()
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 10, stats.MaxSessions)
	assert.Equal(t, 1, stats.WebsocketClients)

	require.NoError(t, svc.SetLogLevel("editor", "debug"))
	assert.Equal(t, "DEBUG", svc.LogLevels()["editor"])
	assert.ErrorIs(t, svc.SetLogLevel("nope", "debug"), ErrInvalidLogSetting)
	assert.ErrorIs(t, svc.SetLogLevel("editor", "loud"), ErrInvalidLogSetting)

	assert.NotEmpty(t, svc.Performance().Operations)
}
