package logging

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
)

// LogEntry is a single record streamed to sysop clients.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// Client is one connected log stream.
type Client struct {
	id      string
	Channel chan []byte
	filters AppliedFilters
}

// ID identifies the client in broadcaster logs.
func (c *Client) ID() string { return c.id }

// AllChannels matches every channel in AppliedFilters.
const AllChannels Channel = "all"

// AppliedFilters selects which records a client receives.
type AppliedFilters struct {
	Channel Channel
	Level   slog.Level
}

// Matches reports whether entry passes the filters.
func (f AppliedFilters) Matches(entry LogEntry) bool {
	if f.Channel != AllChannels && f.Channel != Channel(entry.Channel) {
		return false
	}
	level, err := ParseLevel(entry.Level)
	if err != nil {
		return false
	}
	return level >= f.Level
}

// LogBroadcaster fans log records out to registered clients.
type LogBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	stopOnce   sync.Once
	nextID     atomic.Uint64
	mu         sync.RWMutex
	dropped    atomic.Uint64
}

var (
	broadcaster *LogBroadcaster
	once        sync.Once
)

// GetBroadcaster returns the process-wide broadcaster, starting it on first use.
func GetBroadcaster() *LogBroadcaster {
	once.Do(func() {
		broadcaster = NewLogBroadcaster()
		go broadcaster.run()
	})
	return broadcaster
}

// NewLogBroadcaster returns a broadcaster that is not yet running. Call Run.
func NewLogBroadcaster() *LogBroadcaster {
	return &LogBroadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 1000),
		stop:       make(chan struct{}),
	}
}

// Run processes registrations and records until Shutdown.
func (b *LogBroadcaster) Run() { b.run() }

func (b *LogBroadcaster) run() {
	for {
		select {
		case <-b.stop:
			b.mu.Lock()
			for client := range b.clients {
				delete(b.clients, client)
				close(client.Channel)
			}
			b.mu.Unlock()
			return
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Channel)
			}
			b.mu.Unlock()
		case message := <-b.broadcast:
			b.distribute(message)
		}
	}
}

func (b *LogBroadcaster) distribute(message []byte) {
	var entry LogEntry
	if err := json.Unmarshal(message, &entry); err != nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		if !client.filters.Matches(entry) {
			continue
		}
		select {
		case client.Channel <- message:
		default:
			// slow reader
			b.dropped.Add(1)
		}
	}
}

// SubmitLog queues an entry without blocking the caller.
func (b *LogBroadcaster) SubmitLog(entry LogEntry) {
	message, err := json.Marshal(entry)
	if err != nil {
		return
	}
	select {
	case b.broadcast <- message:
	default:
		b.dropped.Add(1)
	}
}

// Dropped counts records discarded because a buffer was full.
func (b *LogBroadcaster) Dropped() uint64 { return b.dropped.Load() }

// ClientCount returns the number of registered clients.
func (b *LogBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// NewClient creates an unregistered client.
func (b *LogBroadcaster) NewClient(filters AppliedFilters) *Client {
	return &Client{
		id:      strconv.FormatUint(b.nextID.Add(1), 10),
		Channel: make(chan []byte, 100),
		filters: filters,
	}
}

// Shutdown stops the broadcaster and closes every client channel.
func (b *LogBroadcaster) Shutdown() {
	b.stopOnce.Do(func() { close(b.stop) })
}

// RegisterClient adds a client. It returns false once the broadcaster has stopped.
func (b *LogBroadcaster) RegisterClient(client *Client) bool {
	select {
	case b.register <- client:
		return true
	case <-b.stop:
		return false
	}
}

// UnregisterClient removes a client and closes its channel.
func (b *LogBroadcaster) UnregisterClient(client *Client) {
	select {
	case b.unregister <- client:
	case <-b.stop:
	}
}
