package chat

import (
	"sync"

	"github.com/rhuss/hopper/pkg/storage"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind misses messages; feeds recover from the store via
// their message-ID cursor.
const subscriberBuffer = 16

// Hub fans appended messages out to the live subscribers of each room.
// Publish never blocks on a slow subscriber.
type Hub struct {
	mu     sync.Mutex
	nextID int
	rooms  map[string]map[int]chan *storage.Message
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[int]chan *storage.Message)}
}

// Subscribe registers a listener for one room and returns its channel plus
// a cancel function. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe(roomID string) (<-chan *storage.Message, func()) {
	ch := make(chan *storage.Message, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[int]chan *storage.Message)
		h.rooms[roomID] = subs
	}
	subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.rooms[roomID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.rooms, roomID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers msg to every subscriber of its room. Full subscriber
// queues are skipped rather than blocking the publisher.
func (h *Hub) Publish(msg *storage.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.rooms[msg.RoomID] {
		select {
		case ch <- msg:
		default:
		}
	}
}
