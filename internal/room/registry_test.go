package room

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// recordingSubscriber implements Subscriber for testing.
type recordingSubscriber struct {
	id     string
	mu     sync.Mutex
	events []any
	fail   bool
}

func newSub(id string) *recordingSubscriber {
	return &recordingSubscriber{id: id}
}

func (s *recordingSubscriber) ID() string { return s.id }

func (s *recordingSubscriber) SendEvent(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("transport broken")
	}
	s.events = append(s.events, v)
	return nil
}

func (s *recordingSubscriber) received() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.events...)
}

func TestBroadcast_FanOut(t *testing.T) {
	r := NewRegistry()
	a, b := newSub("a"), newSub("b")
	r.AddObserver("agent_42", a)
	r.AddObserver("agent_42", b)

	r.Broadcast("agent_42", "event-1")

	for _, sub := range []*recordingSubscriber{a, b} {
		got := sub.received()
		if len(got) != 1 || got[0] != "event-1" {
			t.Errorf("subscriber %s received %v", sub.id, got)
		}
	}
}

func TestBroadcast_RoomScoped(t *testing.T) {
	r := NewRegistry()
	a, b := newSub("a"), newSub("b")
	r.AddObserver("room-1", a)
	r.AddObserver("room-2", b)

	r.Broadcast("room-1", "only-for-room-1")

	if len(a.received()) != 1 {
		t.Error("room-1 subscriber missed its event")
	}
	if len(b.received()) != 0 {
		t.Error("room-2 subscriber received a room-1 event")
	}
}

func TestBroadcast_EmptyRoomIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Broadcast("nobody-home", "event") // must not panic or error
	if r.RoomCount() != 0 {
		t.Error("broadcast created a room")
	}
}

func TestBroadcast_BrokenSubscriberIsolated(t *testing.T) {
	r := NewRegistry()
	broken, healthy := newSub("broken"), newSub("healthy")
	broken.fail = true
	r.AddObserver("room", broken)
	r.AddObserver("room", healthy)

	r.Broadcast("room", "event")

	if len(healthy.received()) != 1 {
		t.Error("healthy subscriber did not receive the event despite a broken peer")
	}
}

func TestBroadcastAll(t *testing.T) {
	r := NewRegistry()
	a, b := newSub("a"), newSub("b")
	r.AddObserver("room-1", a)
	r.AddObserver("room-2", b)

	r.BroadcastAll("global")

	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Error("BroadcastAll missed a subscriber")
	}
}

func TestRemoveObserver_GarbageCollectsRoom(t *testing.T) {
	r := NewRegistry()
	a, b := newSub("a"), newSub("b")
	r.AddObserver("room", a)
	r.AddObserver("room", b)

	if r.RoomCount() != 1 || r.ObserverCount("room") != 2 {
		t.Fatalf("unexpected counts: rooms=%d observers=%d", r.RoomCount(), r.ObserverCount("room"))
	}

	r.RemoveObserver(a)
	if r.RoomCount() != 1 {
		t.Error("room deleted while a subscriber remains")
	}

	r.RemoveObserver(b)
	if r.RoomCount() != 0 {
		t.Error("empty room not garbage collected")
	}
	if r.ObserverCount("room") != 0 {
		t.Error("observer count nonzero for deleted room")
	}

	// Removing again and broadcasting into the emptied room are no-ops.
	r.RemoveObserver(b)
	r.Broadcast("room", "event")
}

func TestAddObserver_MoveBetweenRooms(t *testing.T) {
	r := NewRegistry()
	a := newSub("a")
	r.AddObserver("room-1", a)
	r.AddObserver("room-2", a)

	if r.ObserverCount("room-1") != 0 {
		t.Error("subscriber still counted in the old room")
	}
	if r.ObserverCount("room-2") != 1 {
		t.Error("subscriber not counted in the new room")
	}
	if r.RoomCount() != 1 {
		t.Error("old empty room not garbage collected on move")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := newSub(fmt.Sprintf("sub-%d", i))
			room := fmt.Sprintf("room-%d", i%4)
			for j := 0; j < 100; j++ {
				r.AddObserver(room, sub)
				r.Broadcast(room, j)
				r.RemoveObserver(sub)
			}
		}(i)
	}
	wg.Wait()

	if r.RoomCount() != 0 {
		t.Errorf("expected all rooms garbage collected, have %d", r.RoomCount())
	}
}

func TestClose_DropsEverything(t *testing.T) {
	r := NewRegistry()
	r.AddObserver("room", newSub("a"))
	r.Close()
	if r.RoomCount() != 0 {
		t.Error("Close left rooms behind")
	}
}
