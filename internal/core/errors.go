package core

import (
	"errors"

	"github.com/maulanarr/duochat-server/internal/service/chat"
)

// Error codes for client-visible errors.
const (
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInvalidParticipant = "invalid_participant"
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeNotFound           = "not_found"
	ErrCodeForbidden          = "forbidden"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInternal           = "internal_error"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// errorFromChat maps chat service errors onto client-visible codes.
// Unexpected store failures surface as a generic internal error; the
// persisted state is unchanged either way.
func errorFromChat(err error) *CoreError {
	switch {
	case errors.Is(err, chat.ErrInvalidParticipant):
		return coreError(ErrCodeInvalidParticipant, err.Error())
	case errors.Is(err, chat.ErrInvalidMessage):
		return coreError(ErrCodeInvalidMessage, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		return coreError(ErrCodeNotFound, err.Error())
	case errors.Is(err, chat.ErrForbidden):
		return coreError(ErrCodeForbidden, err.Error())
	default:
		return coreError(ErrCodeInternal, "failed to send message")
	}
}
