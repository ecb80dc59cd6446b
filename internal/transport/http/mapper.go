package http

import (
	"encoding/json"
	"time"

	"github.com/maulanarr/duochat-server/internal/core"
	"github.com/maulanarr/duochat-server/internal/proto"
	"github.com/maulanarr/duochat-server/internal/store"
)

func inboundToCommand(client *core.Client, inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinChat:
		var join proto.JoinChatData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandJoinChat,
			ChatID: join.ChatID,
		}, nil, nil
	case proto.InboundTypeLeaveChat:
		var leave proto.JoinChatData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandLeaveChat,
			ChatID: leave.ChatID,
		}, nil, nil
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		if msg.Sender != "" && msg.Sender != client.UserID {
			return nil, &proto.Error{Code: core.ErrCodeForbidden, Msg: "sender does not match connection identity"}, nil
		}
		// The hub stamps the authenticated sender; a client-supplied
		// timestamp is accepted only when it parses as RFC3339.
		var createdAt time.Time
		if msg.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
				createdAt = ts
			}
		}
		return &core.Command{
			Kind:   core.CommandSendMessage,
			ChatID: msg.ChatID,
			Message: store.Message{
				ChatID:    msg.ChatID,
				Kind:      store.MessageKind(msg.FileType),
				Body:      msg.Message,
				FileURL:   msg.FileURL,
				FileName:  msg.FileName,
				Avatar:    msg.Avatar,
				CreatedAt: createdAt,
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func messagePayload(msg *store.Message) proto.MessagePayload {
	return proto.MessagePayload{
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

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeReceiveMessage,
			Data: messagePayload(event.Message),
		}
	case core.EventChatUpdated:
		return proto.Outbound{
			Type: proto.OutboundTypeChatUpdated,
			Data: proto.ChatUpdatedData{
				ChatID:      event.ChatID,
				LastMessage: messagePayload(event.Message),
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: core.ErrCodeInternal, Msg: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeMessageError,
			Data: proto.MessageErrorData{
				Message: event.Error.Message,
				Error:   event.Error.Code,
			},
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError}
	}
}
