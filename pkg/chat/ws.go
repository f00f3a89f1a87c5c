package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rhuss/hopper/pkg/storage"
	"github.com/rhuss/hopper/pkg/wire"
)

// Command is one inbound chat command. Type is "join" or "post".
type Command struct {
	Type   string `json:"type"`
	Room   string `json:"room,omitempty"`
	Author string `json:"author,omitempty"`
	Body   string `json:"body,omitempty"`
}

// Event is one outbound chat event. Type is "joined", "message", or
// "error".
type Event struct {
	Type    string           `json:"type"`
	Room    string           `json:"room,omitempty"`
	Message *storage.Message `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// sessions tracks the active room subscription of each chat connection so
// it can be torn down on disconnect or re-join.
type sessions struct {
	mu     sync.Mutex
	byConn map[string]func()
}

func newSessions() *sessions {
	return &sessions{byConn: make(map[string]func())}
}

// set installs the cancel function for a connection, cancelling any
// previous subscription first.
func (s *sessions) set(connID string, cancel func()) {
	s.mu.Lock()
	prev := s.byConn[connID]
	s.byConn[connID] = cancel
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// drop cancels and removes a connection's subscription, if any.
func (s *sessions) drop(connID string) {
	s.mu.Lock()
	cancel := s.byConn[connID]
	delete(s.byConn, connID)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Handler builds the /chat WebSocket endpoint. Clients join one room and
// receive its messages as they are published; posts go through the store
// so HTTP and SSE clients see them too.
func Handler(store storage.Store, h *Hub) wire.WebSocketHandler {
	active := newSessions()

	return wire.WebSocketHandler{
		OnMessage: func(ctx context.Context, conn *wire.WebSocketConn, message string) error {
			var cmd Command
			if err := json.Unmarshal([]byte(message), &cmd); err != nil {
				return sendEvent(conn, Event{Type: "error", Error: "message is not valid JSON"})
			}

			switch cmd.Type {
			case "join":
				return handleJoin(ctx, conn, store, h, active, cmd)
			case "post":
				return handlePost(ctx, conn, store, h, cmd)
			default:
				return sendEvent(conn, Event{Type: "error",
					Error: fmt.Sprintf("unknown command type %q", cmd.Type)})
			}
		},
		OnDisconnect: func(connID string, _ wire.Header) {
			active.drop(connID)
		},
	}
}

func handleJoin(ctx context.Context, conn *wire.WebSocketConn, store storage.Store, h *Hub, active *sessions, cmd Command) error {
	if _, err := store.GetRoom(ctx, cmd.Room); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return sendEvent(conn, Event{Type: "error", Room: cmd.Room, Error: "room not found"})
		}
		return fmt.Errorf("fetching room: %w", err)
	}

	live, cancel := h.Subscribe(cmd.Room)
	go func() {
		for msg := range live {
			if err := sendEvent(conn, Event{Type: "message", Room: msg.RoomID, Message: msg}); err != nil {
				cancel()
				return
			}
		}
	}()
	active.set(conn.ID(), cancel)

	return sendEvent(conn, Event{Type: "joined", Room: cmd.Room})
}

func handlePost(ctx context.Context, conn *wire.WebSocketConn, store storage.Store, h *Hub, cmd Command) error {
	if cmd.Body == "" {
		return sendEvent(conn, Event{Type: "error", Room: cmd.Room, Error: "body is required"})
	}
	author := cmd.Author
	if author == "" {
		author = "anonymous"
	}

	msg := &storage.Message{RoomID: cmd.Room, Author: author, Body: cmd.Body}
	err := store.AppendMessage(ctx, msg)
	if errors.Is(err, storage.ErrNotFound) {
		return sendEvent(conn, Event{Type: "error", Room: cmd.Room, Error: "room not found"})
	}
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}

	h.Publish(msg)
	return nil
}

func sendEvent(conn *wire.WebSocketConn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encoding chat event", "error", err)
		return nil
	}
	return conn.Send(string(data))
}
