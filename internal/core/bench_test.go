package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/maulanarr/duochat-server/internal/store"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chats := newFakeChatService()
	chats.addChat("bench", "u1", "u2")

	hub := NewHub(chats)
	go hub.Run(ctx)

	sender := NewClient("sender", "u1")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoinChat, ChatID: "bench"}

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), "u2")
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinChat, ChatID: "bench"}
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:    CommandSendMessage,
			ChatID:  "bench",
			Message: store.Message{Body: "payload"},
		}
		for {
			ev := <-target.Events
			if ev.Kind == EventMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
