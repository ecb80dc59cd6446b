package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinChat    = "joinChat"
	InboundTypeLeaveChat   = "leaveChat"
	InboundTypeSendMessage = "sendMessage"

	OutboundTypeReceiveMessage = "receiveMessage"
	OutboundTypeChatUpdated    = "chatUpdated"
	OutboundTypeMessageError   = "messageError"
	OutboundTypeError          = "error"
)

// JoinChatData requests to join or leave a specific chat room.
type JoinChatData struct {
	ChatID string `json:"chatId"`
}

// SendMessageData is a chat message event from the client.
// Timestamp, when present, must be RFC3339; anything else is ignored
// and the server assigns the time.
type SendMessageData struct {
	ChatID    string `json:"chatId"`
	Sender    string `json:"sender"`
	Message   string `json:"message,omitempty"`
	FileType  string `json:"fileType,omitempty"`
	FileURL   string `json:"fileUrl,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// MessagePayload is a persisted message as delivered to clients.
type MessagePayload struct {
	ID        int64  `json:"id"`
	ChatID    string `json:"chatId"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	FileType  string `json:"fileType"`
	FileURL   string `json:"fileUrl,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ChatUpdatedData notifies a participant that one of their chats gained
// a message.
type ChatUpdatedData struct {
	ChatID      string         `json:"chatId"`
	LastMessage MessagePayload `json:"lastMessage"`
}

// MessageErrorData reports an ingestion failure to the sender.
type MessageErrorData struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
