// Package types defines the cached state of editor sessions.
package types

import (
	"sync"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
)

// EditorSession holds one editor's scene. Scene, Version and LastActivity
// are guarded by Mu.
type EditorSession struct {
	ID        string
	CreatedAt time.Time

	Scene        scene.Scene
	Version      uint64 // bumped on every changing mutation
	LastActivity time.Time
	Mu           sync.Mutex // Exported for access
}

// NewEditorSession returns a session holding s.
func NewEditorSession(id string, s scene.Scene, now time.Time) *EditorSession {
	return &EditorSession{
		ID:           id,
		CreatedAt:    now,
		Scene:        s,
		LastActivity: now,
	}
}

// IdleSince reports how long the session has been idle at now.
func (es *EditorSession) IdleSince(now time.Time) time.Duration {
	es.Mu.Lock()
	defer es.Mu.Unlock()
	return now.Sub(es.LastActivity)
}
