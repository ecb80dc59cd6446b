package core

import (
	"context"
	"testing"
	"time"

	"github.com/maulanarr/duochat-server/internal/store"
)

func TestHubBroadcastsToJoinedRoomExactlyOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	bob := NewClient("b", "u2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	// Double join is a no-op, not an error.
	bob.Commands <- &Command{Kind: CommandJoinChat, ChatID: "c1"}
	bob.Commands <- &Command{Kind: CommandJoinChat, ChatID: "c1"}
	alice.Commands <- &Command{Kind: CommandJoinChat, ChatID: "c1"}

	alice.Commands <- &Command{
		Kind:    CommandSendMessage,
		ChatID:  "c1",
		Message: store.Message{Body: "hi"},
	}

	ev := mustEvent(t, bob.Events, EventMessage)
	if ev.ChatID != "c1" || ev.Message.Body != "hi" || ev.Message.SenderID != "u1" {
		t.Fatalf("unexpected message event: %+v", ev)
	}
	if ev.Message.ID == 0 {
		t.Fatalf("expected stored message with assigned id")
	}

	// No second copy despite the double join.
	mustNoEvent(t, bob.Events, EventMessage)
}

func TestHubNotifiesPersonalChannelsWithoutRoomJoin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	bob := NewClient("b", "u2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	// Nobody joined room c1: the append still succeeds and both
	// participants hear about it on their personal channels.
	alice.Commands <- &Command{
		Kind:    CommandSendMessage,
		ChatID:  "c1",
		Message: store.Message{Body: "hi"},
	}

	aliceNotice := mustEvent(t, alice.Events, EventChatUpdated)
	if aliceNotice.ChatID != "c1" || aliceNotice.Message.Body != "hi" {
		t.Fatalf("unexpected notice: %+v", aliceNotice)
	}
	bobNotice := mustEvent(t, bob.Events, EventChatUpdated)
	if bobNotice.ChatID != "c1" {
		t.Fatalf("unexpected notice: %+v", bobNotice)
	}

	mustNoEvent(t, alice.Events, EventMessage)
	mustNoEvent(t, bob.Events, EventMessage)

	if chats.appendCount() != 1 {
		t.Fatalf("expected 1 appended message, got %d", chats.appendCount())
	}
}

func TestHubRejectsNonParticipantSender(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	carol := NewClient("c", "u3")
	hub.RegisterClient(alice)
	hub.RegisterClient(carol)

	carol.Commands <- &Command{
		Kind:    CommandSendMessage,
		ChatID:  "c1",
		Message: store.Message{Body: "hi"},
	}

	ev := mustEvent(t, carol.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeInvalidParticipant {
		t.Fatalf("expected invalid_participant error, got %+v", ev)
	}

	// Reported to the origin only, nothing persisted or broadcast.
	mustNoEvent(t, alice.Events, EventError)
	mustNoEvent(t, alice.Events, EventChatUpdated)
	if chats.appendCount() != 0 {
		t.Fatalf("expected no appends, got %d", chats.appendCount())
	}
}

func TestHubRejectsUnknownChatAndEmptyMessage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{
		Kind:    CommandSendMessage,
		ChatID:  "ghost",
		Message: store.Message{Body: "hi"},
	}
	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotFound {
		t.Fatalf("expected not_found error, got %+v", ev)
	}

	alice.Commands <- &Command{Kind: CommandSendMessage, ChatID: "c1"}
	ev = mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message error, got %+v", ev)
	}
}

func TestHubPreservesOrderPerChat(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	bob := NewClient("b", "u2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandJoinChat, ChatID: "c1"}

	bodies := []string{"one", "two", "three"}
	for _, body := range bodies {
		alice.Commands <- &Command{
			Kind:    CommandSendMessage,
			ChatID:  "c1",
			Message: store.Message{Body: body},
		}
	}

	var lastID int64
	for _, want := range bodies {
		ev := mustEvent(t, bob.Events, EventMessage)
		if ev.Message.Body != want {
			t.Fatalf("expected %q, got %q", want, ev.Message.Body)
		}
		if ev.Message.ID <= lastID {
			t.Fatalf("broadcast out of append order: id %d after %d", ev.Message.ID, lastID)
		}
		lastID = ev.Message.ID
	}
}

func TestHubLeaveStopsRoomDelivery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	bob := NewClient("b", "u2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	bob.Commands <- &Command{Kind: CommandJoinChat, ChatID: "c1"}
	bob.Commands <- &Command{Kind: CommandLeaveChat, ChatID: "c1"}
	// Leaving a room never joined is a silent no-op.
	bob.Commands <- &Command{Kind: CommandLeaveChat, ChatID: "ghost"}

	alice.Commands <- &Command{
		Kind:    CommandSendMessage,
		ChatID:  "c1",
		Message: store.Message{Body: "hi"},
	}

	// Still a participant: the personal-channel notice arrives, the
	// room broadcast does not.
	mustEvent(t, bob.Events, EventChatUpdated)
	mustNoEvent(t, bob.Events, EventMessage)
	mustNoEvent(t, bob.Events, EventError)
}

func TestHubUnregisterRemovesAllMemberships(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("c1", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	alice := NewClient("a", "u1")
	bob := NewClient("b", "u2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandJoinChat, ChatID: "c1"}

	hub.UnregisterClient(bob)

	alice.Commands <- &Command{
		Kind:    CommandSendMessage,
		ChatID:  "c1",
		Message: store.Message{Body: "hi"},
	}
	mustEvent(t, alice.Events, EventChatUpdated)

	// The append persisted even though bob is gone.
	if chats.appendCount() != 1 {
		t.Fatalf("expected 1 appended message, got %d", chats.appendCount())
	}

	// Bob's event channel is closed with nothing delivered after removal.
	for ev := range bob.Events {
		if ev.Kind == EventMessage || ev.Kind == EventChatUpdated {
			t.Fatalf("event delivered after unregister: %+v", ev)
		}
	}
}
