package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultAvatar is the avatar path assigned when none is supplied.
// It matches the users table column default.
const DefaultAvatar = "uploads/default-avatar.png"

// User represents a registered user.
type User struct {
	ID           string // UUID
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	CreatedAt    time.Time
}

// Chat represents a one-to-one conversation between two users.
// At most one chat exists per unordered user pair; PairKey is
// "{minUserID}:{maxUserID}" and carries a UNIQUE constraint.
type Chat struct {
	ID            string // UUID
	PairKey       string
	UserAID       string
	UserBID       string
	LastMessageAt time.Time
	CreatedAt     time.Time
}

// Participants returns both user IDs of the chat.
func (c *Chat) Participants() [2]string {
	return [2]string{c.UserAID, c.UserBID}
}

// HasParticipant reports whether userID is one of the chat's two members.
func (c *Chat) HasParticipant(userID string) bool {
	return userID == c.UserAID || userID == c.UserBID
}

// MessageKind classifies a message payload.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
	MessageKindVideo MessageKind = "video"
)

// Message is one entry of a chat's append-only log.
// ID is assigned by the store and reflects append order within the chat.
type Message struct {
	ID        int64
	ChatID    string
	SenderID  string
	Kind      MessageKind
	Body      string
	FileURL   string
	FileName  string
	Avatar    string // sender's avatar snapshot at send time
	CreatedAt time.Time
}

// HasAttachment reports whether the message carries a file reference.
func (m *Message) HasAttachment() bool {
	return m.FileURL != ""
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers lists all users except the given one.
	ListUsers(ctx context.Context, excludeUserID string) ([]*User, error)

	// UpdateUser updates username, email and avatar of an existing user.
	UpdateUser(ctx context.Context, user *User) error
}

// ChatStore handles conversation persistence.
type ChatStore interface {
	// GetOrCreateChat returns the chat for the unordered user pair,
	// creating it atomically when absent. Safe under concurrent calls
	// for the same pair: the UNIQUE pair key guarantees a single row.
	GetOrCreateChat(ctx context.Context, pairKey, userAID, userBID string) (*Chat, error)

	// GetChatByID retrieves a chat by ID.
	GetChatByID(ctx context.Context, id string) (*Chat, error)

	// ListChats lists all chats the user participates in,
	// ordered by last_message_at descending.
	ListChats(ctx context.Context, userID string) ([]*Chat, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage durably appends msg to its chat's log and advances
	// the chat's last_message_at, both in one transaction. The stored
	// message with its assigned ID is returned.
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)

	// ListMessages returns the full message log of a chat in append order.
	ListMessages(ctx context.Context, chatID string) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
