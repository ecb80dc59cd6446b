package core

// Client is a live connection as seen by the core layer. UserID is the
// authenticated identity owning the connection, set exactly once at admission.
type Client struct {
	ID       string
	UserID   string
	Commands chan *Command
	Events   chan *Event
	Rooms    map[string]struct{}

	// done is closed by the hub on unregister.
	done chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, userID string) *Client {
	return &Client{
		ID:       id,
		UserID:   userID,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
		Rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}
