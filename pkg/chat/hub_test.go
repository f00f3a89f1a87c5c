package chat

import (
	"testing"
	"time"

	"github.com/rhuss/hopper/pkg/storage"
)

func TestHubDeliversToRoomSubscribers(t *testing.T) {
	h := NewHub()

	ch1, cancel1 := h.Subscribe("room_a")
	defer cancel1()
	ch2, cancel2 := h.Subscribe("room_a")
	defer cancel2()
	other, cancelOther := h.Subscribe("room_b")
	defer cancelOther()

	msg := &storage.Message{ID: 1, RoomID: "room_a", Author: "alice", Body: "hi"}
	h.Publish(msg)

	for i, ch := range []<-chan *storage.Message{ch1, ch2} {
		select {
		case got := <-ch:
			if got.ID != 1 || got.Body != "hi" {
				t.Errorf("subscriber %d got %+v, want published message", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive the message", i)
		}
	}

	select {
	case got := <-other:
		t.Errorf("room_b subscriber received %+v, want nothing", got)
	default:
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("room_a")
	cancel()

	// Publish after cancel must not panic and must not deliver.
	h.Publish(&storage.Message{ID: 1, RoomID: "room_a"})

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	h := NewHub()

	_, cancel := h.Subscribe("room_a")
	cancel()
	cancel()
}

func TestHubSkipsFullSubscriber(t *testing.T) {
	h := NewHub()

	slow, cancelSlow := h.Subscribe("room_a")
	defer cancelSlow()
	fast, cancelFast := h.Subscribe("room_a")
	defer cancelFast()

	// Overflow the slow subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(&storage.Message{ID: int64(i + 1), RoomID: "room_a"})
		// Keep the fast subscriber drained so it sees everything.
		select {
		case <-fast:
		case <-time.After(time.Second):
			t.Fatal("fast subscriber starved")
		}
	}

	if got := len(slow); got != subscriberBuffer {
		t.Errorf("slow subscriber buffered %d messages, want %d", got, subscriberBuffer)
	}
}

func TestSessionsReplaceCancelsPrevious(t *testing.T) {
	s := newSessions()

	firstCancelled := false
	s.set("conn_1", func() { firstCancelled = true })
	s.set("conn_1", func() {})

	if !firstCancelled {
		t.Error("replacing a subscription did not cancel the previous one")
	}

	dropped := false
	s.set("conn_2", func() { dropped = true })
	s.drop("conn_2")
	if !dropped {
		t.Error("drop did not cancel the subscription")
	}

	// Dropping an unknown connection is a no-op.
	s.drop("conn_unknown")
}
