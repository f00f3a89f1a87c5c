package storage

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// Room is one chat room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one message posted to a room. ID is assigned by the store on
// append and increases monotonically within a room, which is what clients
// page and resume on.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists rooms and their message history.
type Store interface {
	// CreateRoom persists a new room. Returns ErrConflict when the ID is
	// already taken.
	CreateRoom(ctx context.Context, room *Room) error

	// GetRoom retrieves a room by ID.
	GetRoom(ctx context.Context, id string) (*Room, error)

	// ListRooms returns up to limit rooms, newest first.
	ListRooms(ctx context.Context, limit int) ([]*Room, error)

	// DeleteRoom removes a room and its messages.
	DeleteRoom(ctx context.Context, id string) error

	// AppendMessage adds a message to its room's history and assigns its
	// ID. Returns ErrNotFound when the room does not exist.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListMessages returns up to limit messages of a room with IDs greater
	// than afterID, in ID order. afterID 0 starts from the beginning.
	ListMessages(ctx context.Context, roomID string, afterID int64, limit int) ([]*Message, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

const (
	roomIDPrefix = "room_"
	roomIDLength = 24
	idCharset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewRoomID generates a room identifier: "room_" followed by 24
// cryptographically random alphanumeric characters.
func NewRoomID() string {
	max := big.NewInt(int64(len(idCharset)))
	b := make([]byte, roomIDLength)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = idCharset[idx.Int64()]
	}
	return roomIDPrefix + string(b)
}
