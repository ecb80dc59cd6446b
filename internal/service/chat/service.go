package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maulanarr/duochat-server/internal/store"
)

// Common errors for chat operations.
var (
	// ErrInvalidParticipant covers unknown users, degenerate self-pairs,
	// and senders that are not members of the chat.
	ErrInvalidParticipant = errors.New("invalid participant")
	// ErrInvalidMessage is returned when a message carries neither body
	// nor attachment, or an unknown kind.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrNotFound is returned when the chat id cannot be resolved.
	ErrNotFound = errors.New("chat not found")
	// ErrForbidden is returned when the requester is not a participant.
	ErrForbidden = errors.New("access denied")
)

// Service provides conversation business logic over the store.
type Service struct {
	store store.Store
}

// New creates a new chat service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// PairKey derives the canonical key of an unordered user pair.
// Both orderings of the same pair map to the same key.
func PairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// GetOrCreate returns the chat between the two users, creating it when absent.
// Repeated and concurrent calls for the same pair, in either order, yield the
// same chat; the store's unique pair key is the critical section.
func (s *Service) GetOrCreate(ctx context.Context, userAID, userBID string) (*store.Chat, error) {
	if userAID == userBID {
		return nil, fmt.Errorf("%w: cannot chat with yourself", ErrInvalidParticipant)
	}

	// Both identities must resolve.
	if _, err := s.store.GetUserByID(ctx, userAID); err != nil {
		return nil, fmt.Errorf("%w: unknown user %s", ErrInvalidParticipant, userAID)
	}
	if _, err := s.store.GetUserByID(ctx, userBID); err != nil {
		return nil, fmt.Errorf("%w: unknown user %s", ErrInvalidParticipant, userBID)
	}

	chat, err := s.store.GetOrCreateChat(ctx, PairKey(userAID, userBID), userAID, userBID)
	if err != nil {
		return nil, fmt.Errorf("get or create chat: %w", err)
	}

	return chat, nil
}

// Fetch returns a chat and its full message log in append order.
// The requester must be one of the chat's participants.
func (s *Service) Fetch(ctx context.Context, chatID, requesterID string) (*store.Chat, []*store.Message, error) {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get chat: %w", err)
	}

	if !chat.HasParticipant(requesterID) {
		return nil, nil, ErrForbidden
	}

	messages, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}

	return chat, messages, nil
}

// List returns all chats the user participates in, most recent activity first.
func (s *Service) List(ctx context.Context, userID string) ([]*store.Chat, error) {
	chats, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// Append validates msg and durably appends it to its chat's log.
// Validation order: payload carries a body or an attachment, kind is known,
// chat exists, sender is a participant. On success the stored message (with
// assigned id) and the owning chat are returned; on failure nothing is
// persisted.
func (s *Service) Append(ctx context.Context, msg *store.Message) (*store.Message, *store.Chat, error) {
	if msg.Body == "" && !msg.HasAttachment() {
		return nil, nil, fmt.Errorf("%w: empty body and no attachment", ErrInvalidMessage)
	}

	switch msg.Kind {
	case "":
		msg.Kind = store.MessageKindText
	case store.MessageKindText, store.MessageKindImage, store.MessageKindVideo:
	default:
		return nil, nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, msg.Kind)
	}

	chat, err := s.store.GetChatByID(ctx, msg.ChatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get chat: %w", err)
	}

	if !chat.HasParticipant(msg.SenderID) {
		return nil, nil, fmt.Errorf("%w: sender is not a member of this chat", ErrInvalidParticipant)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Avatar == "" {
		msg.Avatar = store.DefaultAvatar
	}

	stored, err := s.store.AppendMessage(ctx, msg)
	if err != nil {
		return nil, nil, fmt.Errorf("append message: %w", err)
	}

	return stored, chat, nil
}
