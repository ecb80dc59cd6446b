package core

import (
	"context"

	"github.com/maulanarr/duochat-server/internal/store"
)

// ChatService abstracts conversation persistence for the Hub.
// This interface allows the Hub to run the ingestion pipeline without
// depending directly on the service layer implementation.
type ChatService interface {
	// Append validates msg and durably appends it to its chat's log.
	// On success it returns the stored message with server-assigned
	// fields filled in, plus the owning chat (for participant fan-out).
	// On failure nothing is persisted and no broadcast may happen.
	Append(ctx context.Context, msg *store.Message) (*store.Message, *store.Chat, error)
}
