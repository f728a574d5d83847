package messaging

// Publisher pushes scene events to the subscribers of an editor session.
type Publisher interface {
	Publish(sessionID, eventType string, version uint64, data any) int
	CloseSession(sessionID string)
}

// Subscriber registers subscribers of an editor session.
type Subscriber interface {
	AddClient(sessionID string) *Client
	RemoveClient(client *Client)
}
