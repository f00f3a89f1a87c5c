// Package memory provides an in-memory Store for development and tests.
// Rooms and messages are lost when the process restarts; each room keeps a
// bounded message history, dropping the oldest messages past the cap.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rhuss/hopper/pkg/storage"
)

// roomEntry holds one room and its message history.
type roomEntry struct {
	room     *storage.Room
	messages []*storage.Message
	nextID   int64
}

// Store is an in-memory room store.
type Store struct {
	mu          sync.RWMutex
	rooms       map[string]*roomEntry
	maxMessages int // per room, 0 = unlimited
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an in-memory store. maxMessages caps each room's retained
// history; 0 keeps everything.
func New(maxMessages int) *Store {
	return &Store{
		rooms:       make(map[string]*roomEntry),
		maxMessages: maxMessages,
	}
}

// CreateRoom persists a new room.
func (s *Store) CreateRoom(_ context.Context, room *storage.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room.ID]; exists {
		return storage.ErrConflict
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}

	copied := *room
	s.rooms[room.ID] = &roomEntry{room: &copied, nextID: 1}
	return nil
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(_ context.Context, id string) (*storage.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rooms[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *e.room
	return &copied, nil
}

// ListRooms returns up to limit rooms, newest first.
func (s *Store) ListRooms(_ context.Context, limit int) ([]*storage.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*storage.Room, 0, len(s.rooms))
	for _, e := range s.rooms {
		copied := *e.room
		rooms = append(rooms, &copied)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
		}
		return rooms[i].ID > rooms[j].ID
	})

	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

// DeleteRoom removes a room and its messages.
func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

// AppendMessage adds a message to its room's history and assigns its ID.
func (s *Store) AppendMessage(_ context.Context, msg *storage.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rooms[msg.RoomID]
	if !ok {
		return storage.ErrNotFound
	}

	msg.ID = e.nextID
	e.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	copied := *msg
	e.messages = append(e.messages, &copied)
	if s.maxMessages > 0 && len(e.messages) > s.maxMessages {
		e.messages = e.messages[len(e.messages)-s.maxMessages:]
	}
	return nil
}

// ListMessages returns up to limit messages with IDs greater than afterID,
// in ID order.
func (s *Store) ListMessages(_ context.Context, roomID string, afterID int64, limit int) ([]*storage.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rooms[roomID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := make([]*storage.Message, 0, len(e.messages))
	for _, m := range e.messages {
		if m.ID <= afterID {
			continue
		}
		copied := *m
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
