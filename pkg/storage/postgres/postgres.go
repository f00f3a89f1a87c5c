// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling; message IDs come from a per-room
// counter maintained transactionally on append.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/hopper/pkg/storage"
)

// Store is a PostgreSQL-backed room store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateRoom persists a new room.
func (s *Store) CreateRoom(ctx context.Context, room *storage.Room) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, name, topic, next_message_id, created_at)
		VALUES ($1, $2, $3, 1, $4)
	`, room.ID, room.Name, room.Topic, room.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id string) (*storage.Room, error) {
	var room storage.Room
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, topic, created_at FROM rooms WHERE id = $1
	`, id).Scan(&room.ID, &room.Name, &room.Topic, &room.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying room: %w", err)
	}
	return &room, nil
}

// ListRooms returns up to limit rooms, newest first.
func (s *Store) ListRooms(ctx context.Context, limit int) ([]*storage.Room, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, topic, created_at
		FROM rooms
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*storage.Room, 0, limit)
	for rows.Next() {
		var room storage.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Topic, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return rooms, nil
}

// DeleteRoom removes a room; its messages go with it via the foreign key.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendMessage adds a message to its room's history, drawing its ID from
// the room's counter inside one transaction so IDs stay gapless and
// monotonic per room.
func (s *Store) AppendMessage(ctx context.Context, msg *storage.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var nextID int64
	err = tx.QueryRow(ctx, `
		UPDATE rooms SET next_message_id = next_message_id + 1
		WHERE id = $1
		RETURNING next_message_id - 1
	`, msg.RoomID).Scan(&nextID)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("allocating message id: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (room_id, id, author, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.RoomID, nextID, msg.Author, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}
	msg.ID = nextID
	return nil
}

// ListMessages returns up to limit messages of a room with IDs greater
// than afterID, in ID order.
func (s *Store) ListMessages(ctx context.Context, roomID string, afterID int64, limit int) ([]*storage.Message, error) {
	// The room must exist even when it has no messages yet.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)", roomID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking room: %w", err)
	}
	if !exists {
		return nil, storage.ErrNotFound
	}

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, author, body, created_at
		FROM messages
		WHERE room_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3
	`, roomID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*storage.Message, 0, limit)
	for rows.Next() {
		var msg storage.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Author, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
