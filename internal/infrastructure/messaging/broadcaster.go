// Package messaging fans scene updates out to websocket subscribers.
package messaging

import (
	"encoding/json"
	"sync"

	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
)

// Event types published to session subscribers.
const (
	EventSceneUpdated = "scene_updated"
	EventSessionEnded = "session_ended"
	EventSysopStats   = "sysop_stats"
)

// Event is the JSON envelope every subscriber receives.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Version   uint64 `json:"version"`
	Data      any    `json:"data,omitempty"`
}

// Client is one subscriber. Send is closed when the client is removed.
type Client struct {
	SessionID string
	Send      chan []byte
	closeOnce sync.Once
}

func newClient(sessionID string, buffer int) *Client {
	return &Client{SessionID: sessionID, Send: make(chan []byte, buffer)}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// SceneBroadcaster manages session-scoped subscriber channels.
type SceneBroadcaster struct {
	sessions map[string]map[*Client]bool
	buffer   int
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

// NewSceneBroadcaster creates a broadcaster whose clients buffer up to
// buffer messages before dropping.
func NewSceneBroadcaster(buffer int, logger *logging.ChanneledLogger) *SceneBroadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &SceneBroadcaster{
		sessions: make(map[string]map[*Client]bool),
		buffer:   buffer,
		logger:   logger,
	}
}

// AddClient registers a new subscriber for sessionID.
func (b *SceneBroadcaster) AddClient(sessionID string) *Client {
	client := newClient(sessionID, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sessions[sessionID] == nil {
		b.sessions[sessionID] = make(map[*Client]bool)
	}
	b.sessions[sessionID][client] = true

	b.logger.Websocket().Debug("Websocket client registered",
		"sessionId", logging.MaskSessionID(sessionID), "clients", len(b.sessions[sessionID]))
	return client
}

// RemoveClient unregisters client and closes its channel.
func (b *SceneBroadcaster) RemoveClient(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.sessions[client.SessionID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(b.sessions, client.SessionID)
		}
	}
	client.close()

	b.logger.Websocket().Debug("Websocket client unregistered", "sessionId", logging.MaskSessionID(client.SessionID))
}

// Publish sends an event to every subscriber of sessionID without blocking
// and returns how many clients accepted it.
func (b *SceneBroadcaster) Publish(sessionID, eventType string, version uint64, data any) int {
	message, err := json.Marshal(Event{Type: eventType, SessionID: sessionID, Version: version, Data: data})
	if err != nil {
		b.logger.LogError(logging.ChannelWebsocket, "publish", err, map[string]any{"event": eventType})
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for client := range b.sessions[sessionID] {
		select {
		case client.Send <- message:
			delivered++
		default:
			b.logger.Websocket().Warn("Websocket channel full, message dropped",
				"sessionId", logging.MaskSessionID(sessionID), "event", eventType)
		}
	}
	b.logger.LogWebsocketEvent(eventType, sessionID, delivered)
	return delivered
}

// CloseSession tells subscribers the session ended and disconnects them.
func (b *SceneBroadcaster) CloseSession(sessionID string) {
	message, _ := json.Marshal(Event{Type: EventSessionEnded, SessionID: sessionID})

	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.sessions[sessionID] {
		select {
		case client.Send <- message:
		default:
		}
		client.close()
	}
	delete(b.sessions, sessionID)
}

// ClientCount returns the number of subscribers of sessionID.
func (b *SceneBroadcaster) ClientCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}

// TotalClients returns the number of subscribers across all sessions.
func (b *SceneBroadcaster) TotalClients() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, clients := range b.sessions {
		total += len(clients)
	}
	return total
}
