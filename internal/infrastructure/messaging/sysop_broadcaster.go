package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
)

// StatsFunc builds the payload pushed to sysop dashboards on every tick.
type StatsFunc func() any

// SysOpBroadcaster periodically pushes service stats to sysop clients.
type SysOpBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stats      StatsFunc
	interval   time.Duration
	mu         sync.RWMutex
	logger     *logging.ChanneledLogger
}

// NewSysOpBroadcaster creates a broadcaster ticking at interval.
func NewSysOpBroadcaster(stats StatsFunc, interval time.Duration, logger *logging.ChanneledLogger) *SysOpBroadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SysOpBroadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stats:      stats,
		interval:   interval,
		logger:     logger,
	}
}

// Run processes registrations and ticks until ctx ends. Run it as a goroutine.
func (b *SysOpBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for client := range b.clients {
				delete(b.clients, client)
				client.close()
			}
			b.mu.Unlock()
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.send(client, b.payload())
			b.logger.Websocket().Info("SysOp client registered")

		case client := <-b.unregister:
			b.mu.Lock()
			if b.clients[client] {
				delete(b.clients, client)
				client.close()
			}
			b.mu.Unlock()
			b.logger.Websocket().Info("SysOp client unregistered")

		case <-ticker.C:
			b.broadcast()
		}
	}
}

// NewClient returns an unregistered sysop client.
func (b *SysOpBroadcaster) NewClient() *Client {
	return newClient("", 4)
}

// Register queues a client for registration.
func (b *SysOpBroadcaster) Register(ctx context.Context, client *Client) {
	select {
	case b.register <- client:
	case <-ctx.Done():
	}
}

// Unregister queues a client for removal.
func (b *SysOpBroadcaster) Unregister(ctx context.Context, client *Client) {
	select {
	case b.unregister <- client:
	case <-ctx.Done():
	}
}

func (b *SysOpBroadcaster) payload() []byte {
	message, err := json.Marshal(Event{Type: EventSysopStats, Data: b.stats()})
	if err != nil {
		b.logger.LogError(logging.ChannelWebsocket, "sysop_stats", err, nil)
		return nil
	}
	return message
}

func (b *SysOpBroadcaster) send(client *Client, message []byte) {
	if message == nil {
		return
	}
	select {
	case client.Send <- message:
	default:
	}
}

func (b *SysOpBroadcaster) broadcast() {
	b.mu.RLock()
	empty := len(b.clients) == 0
	b.mu.RUnlock()
	if empty {
		return
	}

	message := b.payload()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		b.send(client, message)
	}
}
