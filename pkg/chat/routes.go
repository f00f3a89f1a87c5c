package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/hopper/pkg/auth"
	"github.com/rhuss/hopper/pkg/binding"
	"github.com/rhuss/hopper/pkg/router"
	"github.com/rhuss/hopper/pkg/server"
	"github.com/rhuss/hopper/pkg/storage"
)

// roomSchema validates the create-room request body.
var roomSchema = &binding.Schema{Fields: []binding.Field{
	{Name: "name", Type: binding.TypeString, Required: true},
	{Name: "topic", Type: binding.TypeString},
}}

// messageSchema validates the post-message request body. Author is
// optional; absent it falls back to the authenticated subject.
var messageSchema = &binding.Schema{Fields: []binding.Field{
	{Name: "author", Type: binding.TypeString},
	{Name: "body", Type: binding.TypeString, Required: true},
}}

// Register installs the chat application's routes: /healthz, the /rooms
// CRUD group with the per-room message history and SSE feed, and the
// /chat WebSocket endpoint.
func Register(srv *server.Server, store storage.Store, h *Hub) {
	srv.AddRoute(http.MethodGet, "/healthz", healthHandler(store),
		router.WithBypassValidation(), router.WithSummary("Liveness and store health"))

	rooms := router.NewGroup("/rooms")
	rooms.Handle(http.MethodGet, "", listRooms(store),
		router.WithParams(
			binding.Query("limit", binding.TypeInt,
				binding.WithDefault(50), binding.WithMin(1), binding.WithMax(500)),
		),
		router.WithSummary("List rooms, newest first"))
	rooms.Handle(http.MethodPost, "", createRoom(store),
		router.WithParams(binding.Body("room", roomSchema)),
		router.WithSummary("Create a room"))
	rooms.Handle(http.MethodGet, "/{id}", getRoom(store),
		router.WithParams(binding.Path("id", binding.TypeString)),
		router.WithSummary("Fetch one room"))
	rooms.Handle(http.MethodDelete, "/{id}", deleteRoom(store),
		router.WithParams(binding.Path("id", binding.TypeString)),
		router.WithSummary("Delete a room and its history"))
	rooms.Handle(http.MethodGet, "/{id}/messages", listMessages(store),
		router.WithParams(
			binding.Path("id", binding.TypeString),
			binding.Query("after", binding.TypeInt,
				binding.WithDefault(0), binding.WithMin(0)),
			binding.Query("limit", binding.TypeInt,
				binding.WithDefault(100), binding.WithMin(1), binding.WithMax(1000)),
		),
		router.WithSummary("Page through a room's history"))
	rooms.Handle(http.MethodPost, "/{id}/messages", postMessage(store, h),
		router.WithParams(
			binding.Path("id", binding.TypeString),
			binding.Body("message", messageSchema),
		),
		router.WithSummary("Post a message to a room"))
	rooms.Handle(http.MethodGet, "/{id}/feed", roomFeed(store, h),
		router.WithParams(
			binding.Path("id", binding.TypeString),
			binding.Query("after", binding.TypeInt,
				binding.WithDefault(0), binding.WithMin(0)),
		),
		router.WithSummary("Live SSE feed of a room"))
	srv.Include(rooms)

	srv.AddWebSocketRoute("/chat", Handler(store, h))
}

func healthHandler(store storage.Store) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		if err := store.HealthCheck(c.Context()); err != nil {
			return router.JSON(http.StatusServiceUnavailable,
				map[string]string{"status": "degraded", "error": err.Error()}), nil
		}
		return router.JSON(http.StatusOK, map[string]string{"status": "ok"}), nil
	}
}

func listRooms(store storage.Store) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		rooms, err := store.ListRooms(c.Context(), int(c.Args.Int("limit")))
		if err != nil {
			return nil, fmt.Errorf("listing rooms: %w", err)
		}
		return router.JSON(http.StatusOK, map[string]any{"rooms": rooms}), nil
	}
}

func createRoom(store storage.Store) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		body := c.Args.Map("room")
		name, _ := body["name"].(string)
		topic, _ := body["topic"].(string)

		room := &storage.Room{ID: storage.NewRoomID(), Name: name, Topic: topic}
		if err := store.CreateRoom(c.Context(), room); err != nil {
			return nil, fmt.Errorf("creating room: %w", err)
		}
		return router.JSON(http.StatusCreated, room), nil
	}
}

func getRoom(store storage.Store) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		room, err := store.GetRoom(c.Context(), c.Args.String("id"))
		if errors.Is(err, storage.ErrNotFound) {
			return roomNotFound(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("fetching room: %w", err)
		}
		return router.JSON(http.StatusOK, room), nil
	}
}

func deleteRoom(store storage.Store) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		err := store.DeleteRoom(c.Context(), c.Args.String("id"))
		if errors.Is(err, storage.ErrNotFound) {
			return roomNotFound(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("deleting room: %w", err)
		}
		return router.NoContent(), nil
	}
}

func listMessages(store storage.Store) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		msgs, err := store.ListMessages(c.Context(),
			c.Args.String("id"), c.Args.Int("after"), int(c.Args.Int("limit")))
		if errors.Is(err, storage.ErrNotFound) {
			return roomNotFound(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing messages: %w", err)
		}
		return router.JSON(http.StatusOK, map[string]any{"messages": msgs}), nil
	}
}

func postMessage(store storage.Store, h *Hub) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		body := c.Args.Map("message")
		author, _ := body["author"].(string)
		if author == "" {
			author = auth.SubjectFromContext(c.Context(), "anonymous")
		}
		text, _ := body["body"].(string)

		msg := &storage.Message{
			RoomID: c.Args.String("id"),
			Author: author,
			Body:   text,
		}
		err := store.AppendMessage(c.Context(), msg)
		if errors.Is(err, storage.ErrNotFound) {
			return roomNotFound(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("appending message: %w", err)
		}

		h.Publish(msg)
		return router.JSON(http.StatusCreated, msg), nil
	}
}

// roomFeed streams a room's messages as SSE: history past the cursor
// first, then live messages from the hub. The subscription is taken before
// the replay so nothing falls between; the cursor dedupes the overlap.
func roomFeed(store storage.Store, h *Hub) router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		roomID := c.Args.String("id")
		after := c.Args.Int("after")

		if _, err := store.GetRoom(c.Context(), roomID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return roomNotFound(), nil
			}
			return nil, fmt.Errorf("fetching room: %w", err)
		}

		return router.Stream(func(ctx context.Context, w router.StreamWriter) error {
			live, cancel := h.Subscribe(roomID)
			defer cancel()

			history, err := store.ListMessages(ctx, roomID, after, 0)
			if err != nil {
				return fmt.Errorf("replaying history: %w", err)
			}

			last := after
			for _, msg := range history {
				if err := sendMessageEvent(w, msg); err != nil {
					return err
				}
				last = msg.ID
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-live:
					if !ok {
						return nil
					}
					if msg.ID <= last {
						continue
					}
					if err := sendMessageEvent(w, msg); err != nil {
						return err
					}
					last = msg.ID
				}
			}
		}), nil
	}
}

func sendMessageEvent(w router.StreamWriter, msg *storage.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message %d: %w", msg.ID, err)
	}
	return w.Send("event: message\ndata: " + string(data) + "\n\n")
}

func roomNotFound() *router.Response {
	return router.Error(http.StatusNotFound, router.NewNotFoundError("room not found"))
}
