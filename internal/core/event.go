package core

import "github.com/maulanarr/duochat-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a persisted chat message to chat room members.
	EventMessage EventKind = iota
	// EventChatUpdated notifies a participant's personal channel that one
	// of their chats gained a message, independent of room membership.
	EventChatUpdated
	// EventError reports an ingestion failure to the originating client only.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	ChatID  string
	Message *store.Message
	Error   *CoreError
}
