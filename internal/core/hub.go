package core

import (
	"context"

	"github.com/maulanarr/duochat-server/internal/store"
)

// clientCommand pairs a command with the client that issued it.
type clientCommand struct {
	client *Client
	cmd    *Command
}

// ingestTask is one inbound message event queued for a chat's worker.
type ingestTask struct {
	origin *Client
	cmd    *Command
}

// delivery is a fan-out task processed on the hub loop. Either err is set
// and the event goes only to origin, or message is set and the event goes
// to the chat room plus both participants' personal channels.
type delivery struct {
	origin       *Client
	err          *CoreError
	chatID       string
	message      *store.Message
	participants [2]string
}

// ingestQueueSize bounds how many pending sends a single chat may hold
// before new events are rejected back to their sender.
const ingestQueueSize = 256

// Hub owns the live-connection registry and routes events between clients.
// All registry state (clients, rooms, memberships) is confined to the Run
// loop; membership is therefore always a consistent snapshot at the moment
// a delivery is processed. Message ingestion runs on one worker goroutine
// per chat: appends to the same chat are serialized in submission order,
// appends to different chats proceed independently.
type Hub struct {
	chats ChatService

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	deliveries chan delivery

	clients map[*Client]struct{}
	rooms   map[string]*Room
	workers map[string]chan ingestTask
}

// NewHub creates a new chat hub instance.
func NewHub(chats ChatService) *Hub {
	return &Hub{
		chats:      chats,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
		deliveries: make(chan delivery, 64),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]*Room),
		workers:    make(map[string]chan ingestTask),
	}
}

// RegisterClient admits an authenticated client. The client is auto-joined
// to its personal channel (the room named by its user id) and immediately
// eligible for chatUpdated notices.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient removes a client and all its room memberships.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes registrations, commands and deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(ctx, client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case cc := <-h.commands:
			h.handleCommand(ctx, cc.client, cc.cmd)
		case d := <-h.deliveries:
			h.handleDelivery(d)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	h.joinRoom(c, c.UserID)
	go h.pump(ctx, c)
}

func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for name := range c.Rooms {
		h.leaveRoom(c, name)
	}
	delete(h.clients, c)
	close(c.done)
	close(c.Events)
}

// pump forwards the client's commands into the hub loop. It exits when the
// client is unregistered or the hub shuts down.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinChat:
		h.joinRoom(c, cmd.ChatID)
	case CommandLeaveChat:
		h.leaveRoom(c, cmd.ChatID)
	case CommandSendMessage:
		h.dispatchSend(ctx, c, cmd)
	}
}

// dispatchSend hands the event to the chat's ingest worker. Enqueueing on
// the hub loop keeps one connection's sends in submission order; a full
// queue rejects the event back to the sender instead of stalling the loop.
func (h *Hub) dispatchSend(ctx context.Context, c *Client, cmd *Command) {
	tasks, ok := h.workers[cmd.ChatID]
	if !ok {
		tasks = make(chan ingestTask, ingestQueueSize)
		h.workers[cmd.ChatID] = tasks
		go h.ingestWorker(ctx, tasks)
	}

	select {
	case tasks <- ingestTask{origin: c, cmd: cmd}:
	default:
		h.sendToClient(c, &Event{
			Kind:  EventError,
			Error: coreError(ErrCodeInternal, "chat is busy, try again"),
		})
	}
}

// joinRoom is idempotent: joining twice is a no-op.
func (h *Hub) joinRoom(c *Client, name string) {
	room, ok := h.rooms[name]
	if !ok {
		room = NewRoom(name)
		h.rooms[name] = room
	}
	room.AddClient(c)
	c.Rooms[name] = struct{}{}
}

// leaveRoom is idempotent: leaving a room never joined is a no-op.
func (h *Hub) leaveRoom(c *Client, name string) {
	delete(c.Rooms, name)
	room, ok := h.rooms[name]
	if !ok {
		return
	}
	room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, name)
	}
}

// ingestWorker drains one chat's send queue for the hub's lifetime.
func (h *Hub) ingestWorker(ctx context.Context, tasks <-chan ingestTask) {
	for {
		select {
		case t := <-tasks:
			h.ingest(ctx, t.origin, t.cmd)
		case <-ctx.Done():
			return
		}
	}
}

// ingest runs the pipeline for one inbound message event:
// received -> validated -> persisted -> broadcast, with failures reported
// to the originating client only. The worker is serial per chat, so the
// persisted order equals the broadcast order for that chat.
func (h *Hub) ingest(ctx context.Context, origin *Client, cmd *Command) {
	msg := cmd.Message
	msg.ChatID = cmd.ChatID
	msg.SenderID = origin.UserID

	stored, chat, err := h.chats.Append(ctx, &msg)
	if err != nil {
		h.deliver(ctx, delivery{origin: origin, err: errorFromChat(err)})
		return
	}

	h.deliver(ctx, delivery{
		chatID:       chat.ID,
		message:      stored,
		participants: chat.Participants(),
	})
}

func (h *Hub) deliver(ctx context.Context, d delivery) {
	select {
	case h.deliveries <- d:
	case <-ctx.Done():
	}
}

// handleDelivery fans an event out using the membership as it stands right
// now. Per-client sends never block; a slow or dead receiver cannot stall
// the others or undo the persisted append.
func (h *Hub) handleDelivery(d delivery) {
	if d.err != nil {
		h.sendToClient(d.origin, &Event{Kind: EventError, Error: d.err})
		return
	}

	if room, ok := h.rooms[d.chatID]; ok {
		room.Broadcast(&Event{
			Kind:    EventMessage,
			ChatID:  d.chatID,
			Message: d.message,
		})
	}

	notice := &Event{
		Kind:    EventChatUpdated,
		ChatID:  d.chatID,
		Message: d.message,
	}
	for _, participant := range d.participants {
		if personal, ok := h.rooms[participant]; ok {
			personal.Broadcast(notice)
		}
	}
}

// sendToClient delivers an event to one client if it is still registered.
func (h *Hub) sendToClient(c *Client, event *Event) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.Events <- event:
	default:
	}
}
