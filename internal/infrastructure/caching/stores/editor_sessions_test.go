package stores

import (
	"testing"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetDelete(t *testing.T) {
	store := NewEditorSessionStore(0, nil)

	session, err := store.Create("a", scene.NewScene())
	require.NoError(t, err)
	assert.Equal(t, "a", session.ID)
	assert.Len(t, session.Scene.Spotlights, 2)

	_, err = store.Create("a", scene.NewScene())
	assert.ErrorIs(t, err, ErrSessionExists)

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Same(t, session, got)

	assert.True(t, store.Delete("a"))
	assert.False(t, store.Delete("a"))
	_, ok = store.Get("a")
	assert.False(t, ok)
}

func TestSessionLimit(t *testing.T) {
	store := NewEditorSessionStore(2, nil)

	_, err := store.Create("a", scene.NewScene())
	require.NoError(t, err)
	_, err = store.Create("b", scene.NewScene())
	require.NoError(t, err)
	_, err = store.Create("c", scene.NewScene())
	assert.ErrorIs(t, err, ErrSessionLimit)

	store.Delete("a")
	_, err = store.Create("c", scene.NewScene())
	assert.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, store.IDs())
}

func TestPurgeExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewEditorSessionStore(0, nil)
	store.SetClock(func() time.Time { return now })

	_, err := store.Create("old", scene.NewScene())
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	fresh, err := store.Create("fresh", scene.NewScene())
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	assert.Equal(t, []string{"old"}, store.PurgeExpired(time.Hour))
	assert.Equal(t, 1, store.Count())

	fresh.Mu.Lock()
	fresh.LastActivity = now
	fresh.Mu.Unlock()
	now = now.Add(59 * time.Minute)
	assert.Empty(t, store.PurgeExpired(time.Hour))
}
