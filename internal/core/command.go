package core

import "github.com/maulanarr/duochat-server/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage submits a message to a chat's ingestion pipeline.
	CommandSendMessage CommandKind = iota
	// CommandJoinChat subscribes the client to a chat room.
	CommandJoinChat
	// CommandLeaveChat unsubscribes the client from a chat room.
	CommandLeaveChat
)

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	ChatID  string
	Message store.Message
}
