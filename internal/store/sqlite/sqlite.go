package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/maulanarr/duochat-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar        TEXT NOT NULL DEFAULT 'uploads/default-avatar.png',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chats (
	id              TEXT PRIMARY KEY,
	pair_key        TEXT NOT NULL UNIQUE,
	user_a_id       TEXT NOT NULL,
	user_b_id       TEXT NOT NULL,
	last_message_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_a_id) REFERENCES users(id),
	FOREIGN KEY (user_b_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id    TEXT NOT NULL,
	sender_id  TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'text',
	body       TEXT NOT NULL DEFAULT '',
	file_url   TEXT NOT NULL DEFAULT '',
	file_name  TEXT NOT NULL DEFAULT '',
	avatar     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (chat_id) REFERENCES chats(id),
	FOREIGN KEY (sender_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, id);
CREATE INDEX IF NOT EXISTS idx_chats_user_a ON chats(user_a_id);
CREATE INDEX IF NOT EXISTS idx_chats_user_b ON chats(user_b_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, username, email, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, avatar, created_at
		FROM users
		WHERE ` + where
	var user store.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ListUsers lists all users except the given one.
func (s *SQLiteStore) ListUsers(ctx context.Context, excludeUserID string) ([]*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, avatar, created_at
		FROM users
		WHERE id != ?
		ORDER BY username ASC
	`
	rows, err := s.db.QueryContext(ctx, query, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Avatar,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// UpdateUser updates username, email and avatar of an existing user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *store.User) error {
	query := `
		UPDATE users
		SET username = ?, email = ?, avatar = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, user.Username, user.Email, user.Avatar, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}

	return nil
}

// ==== ChatStore implementation ====

// GetOrCreateChat returns the chat for the unordered user pair, creating it
// atomically when absent. INSERT OR IGNORE against the UNIQUE pair_key makes
// concurrent calls for the same pair converge on a single row.
func (s *SQLiteStore) GetOrCreateChat(ctx context.Context, pairKey, userAID, userBID string) (*store.Chat, error) {
	now := time.Now().UTC()
	query := `
		INSERT OR IGNORE INTO chats (id, pair_key, user_a_id, user_b_id, last_message_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), pairKey, userAID, userBID, now, now); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	return s.getChat(ctx, "pair_key = ?", pairKey)
}

// GetChatByID retrieves a chat by ID.
func (s *SQLiteStore) GetChatByID(ctx context.Context, id string) (*store.Chat, error) {
	return s.getChat(ctx, "id = ?", id)
}

func (s *SQLiteStore) getChat(ctx context.Context, where string, arg any) (*store.Chat, error) {
	query := `
		SELECT id, pair_key, user_a_id, user_b_id, last_message_at, created_at
		FROM chats
		WHERE ` + where
	var chat store.Chat
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&chat.ID,
		&chat.PairKey,
		&chat.UserAID,
		&chat.UserBID,
		&chat.LastMessageAt,
		&chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query chat: %w", err)
	}

	return &chat, nil
}

// ListChats lists all chats the user participates in, most recent activity first.
func (s *SQLiteStore) ListChats(ctx context.Context, userID string) ([]*store.Chat, error) {
	query := `
		SELECT id, pair_key, user_a_id, user_b_id, last_message_at, created_at
		FROM chats
		WHERE user_a_id = ? OR user_b_id = ?
		ORDER BY last_message_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var chats []*store.Chat
	for rows.Next() {
		var chat store.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.PairKey,
			&chat.UserAID,
			&chat.UserBID,
			&chat.LastMessageAt,
			&chat.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}

	return chats, rows.Err()
}

// ==== MessageStore implementation ====

// AppendMessage appends msg to its chat's log and advances last_message_at,
// both in one transaction. Either both land or neither does.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := `
		INSERT INTO messages (chat_id, sender_id, kind, body, file_url, file_name, avatar, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insert,
		msg.ChatID, msg.SenderID, msg.Kind, msg.Body, msg.FileURL, msg.FileName, msg.Avatar, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	// last_message_at records when the append completed, not the
	// message's own timestamp; a client-dated message must not move a
	// chat's activity backwards.
	update := `
		UPDATE chats SET last_message_at = ? WHERE id = ?
	`
	updateResult, err := tx.ExecContext(ctx, update, time.Now().UTC(), msg.ChatID)
	if err != nil {
		return nil, fmt.Errorf("update chat activity: %w", err)
	}
	affected, err := updateResult.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("chat: %w", store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	stored := *msg
	stored.ID = id
	return &stored, nil
}

// ListMessages returns the full message log of a chat in append order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string) ([]*store.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, kind, body, file_url, file_name, avatar, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.Kind,
			&msg.Body,
			&msg.FileURL,
			&msg.FileName,
			&msg.Avatar,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}
