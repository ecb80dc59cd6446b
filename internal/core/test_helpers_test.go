package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/maulanarr/duochat-server/internal/service/chat"
	"github.com/maulanarr/duochat-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// fakeChatService implements ChatService over an in-memory map of chats.
type fakeChatService struct {
	mu     sync.Mutex
	chats  map[string][2]string
	nextID int64
	stored []*store.Message
}

func newFakeChatService() *fakeChatService {
	return &fakeChatService{chats: make(map[string][2]string)}
}

func (f *fakeChatService) addChat(id, userA, userB string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[id] = [2]string{userA, userB}
}

func (f *fakeChatService) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

func (f *fakeChatService) Append(_ context.Context, msg *store.Message) (*store.Message, *store.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg.Body == "" && msg.FileURL == "" {
		return nil, nil, fmt.Errorf("%w: empty body and no attachment", chat.ErrInvalidMessage)
	}
	participants, ok := f.chats[msg.ChatID]
	if !ok {
		return nil, nil, chat.ErrNotFound
	}
	if msg.SenderID != participants[0] && msg.SenderID != participants[1] {
		return nil, nil, fmt.Errorf("%w: sender is not a member of this chat", chat.ErrInvalidParticipant)
	}

	f.nextID++
	stored := *msg
	stored.ID = f.nextID
	if stored.Kind == "" {
		stored.Kind = store.MessageKindText
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	f.stored = append(f.stored, &stored)

	return &stored, &store.Chat{
		ID:      msg.ChatID,
		UserAID: participants[0],
		UserBID: participants[1],
	}, nil
}
