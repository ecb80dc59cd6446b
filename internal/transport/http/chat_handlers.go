package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maulanarr/duochat-server/internal/service/chat"
	"github.com/maulanarr/duochat-server/internal/store"
)

// ChatHandlers provides HTTP handlers for conversation endpoints.
type ChatHandlers struct {
	chats *chat.Service
	log   *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chats *chat.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chats: chats,
		log:   logger,
	}
}

// ChatResponse represents a conversation in API responses.
type ChatResponse struct {
	ID            string   `json:"id"`
	Participants  []string `json:"participants"`
	LastMessageAt string   `json:"lastMessageAt"`
	CreatedAt     string   `json:"createdAt"`
}

// MessageResponse represents a stored message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	ChatID    string `json:"chatId"`
	Sender    string `json:"sender"`
	Message   string `json:"message,omitempty"`
	FileType  string `json:"fileType"`
	FileURL   string `json:"fileUrl,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ChatDetailResponse represents a conversation with its full message history.
type ChatDetailResponse struct {
	ChatResponse
	Messages []MessageResponse `json:"messages"`
}

func chatResponseFrom(ch *store.Chat) ChatResponse {
	parts := ch.Participants()
	return ChatResponse{
		ID:            ch.ID,
		Participants:  []string{parts[0], parts[1]},
		LastMessageAt: ch.LastMessageAt.UTC().Format(time.RFC3339),
		CreatedAt:     ch.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func messageResponseFrom(msg *store.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Sender:    msg.SenderID,
		Message:   msg.Body,
		FileType:  string(msg.Kind),
		FileURL:   msg.FileURL,
		FileName:  msg.FileName,
		Avatar:    msg.Avatar,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// GetOrCreateChat resolves the conversation between the requester and another user.
// POST /api/chats/with/:userID
func (h *ChatHandlers) GetOrCreateChat(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID := c.Param("userID")
	ch, err := h.chats.GetOrCreate(c.Request.Context(), uid, otherID)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidParticipant) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat participant"})
			return
		}
		h.log.Error().Err(err).Str("user_id", uid).Str("other_id", otherID).Msg("failed to resolve chat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Debug().Str("chat_id", ch.ID).Str("user_id", uid).Msg("chat resolved")
	c.JSON(http.StatusOK, chatResponseFrom(ch))
}

// ListChats returns the requester's conversations ordered by recent activity.
// GET /api/chats
func (h *ChatHandlers) ListChats(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	chats, err := h.chats.List(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to list chats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ChatResponse, 0, len(chats))
	for _, ch := range chats {
		response = append(response, chatResponseFrom(ch))
	}

	h.log.Debug().Str("user_id", uid).Int("chat_count", len(chats)).Msg("chats listed")
	c.JSON(http.StatusOK, response)
}

// GetChat returns a conversation with its full message history.
// GET /api/chats/:chatID
func (h *ChatHandlers) GetChat(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	chatID := c.Param("chatID")
	ch, messages, err := h.chats.Fetch(c.Request.Context(), chatID, uid)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
			return
		}
		if errors.Is(err, chat.ErrForbidden) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a chat participant"})
			return
		}
		h.log.Error().Err(err).Str("chat_id", chatID).Str("user_id", uid).Msg("failed to fetch chat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	detail := ChatDetailResponse{
		ChatResponse: chatResponseFrom(ch),
		Messages:     make([]MessageResponse, 0, len(messages)),
	}
	for _, msg := range messages {
		detail.Messages = append(detail.Messages, messageResponseFrom(msg))
	}

	c.JSON(http.StatusOK, detail)
}
