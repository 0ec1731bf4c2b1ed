// Package room implements the in-process fan-out fabric: a process-wide table
// mapping room identifiers to the observer connections subscribed to them.
// Rooms exist only while they have observers; emptiness is the sole deletion
// trigger.
package room

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/logging"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/metrics"
)

// Subscriber is one observer connection admitted to a room. SendEvent must be
// safe for concurrent use; a failing subscriber never fails the broadcast.
type Subscriber interface {
	ID() string
	SendEvent(v any) error
}

// Registry is the process-wide room table. Constructed once per process and
// passed by reference into every connection handler.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]map[string]Subscriber
	membership map[string]string // subscriber id -> room

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]map[string]Subscriber),
		membership: make(map[string]string),
		log:        logging.WithComponent("room-registry"),
		metrics:    metrics.DefaultMetrics,
	}
}

// AddObserver subscribes sub to room, creating the room on first use.
// Re-adding the same subscriber moves it to the new room.
func (r *Registry) AddObserver(room string, sub Subscriber) {
	r.mu.Lock()
	if prev, ok := r.membership[sub.ID()]; ok && prev != room {
		r.removeLocked(sub.ID(), prev)
	}
	set, ok := r.rooms[room]
	if !ok {
		set = make(map[string]Subscriber)
		r.rooms[room] = set
	}
	set[sub.ID()] = sub
	r.membership[sub.ID()] = room
	rooms, observers := len(r.rooms), len(r.membership)
	r.mu.Unlock()

	r.metrics.SetRoomCounts(rooms, observers)
	r.log.Debug().Str("room", room).Str("subscriber", sub.ID()).Msg("observer added")
}

// RemoveObserver unsubscribes sub from whatever room it belongs to. The room
// is deleted once its subscriber set empties. No-op for unknown subscribers.
func (r *Registry) RemoveObserver(sub Subscriber) {
	r.mu.Lock()
	room, ok := r.membership[sub.ID()]
	if ok {
		r.removeLocked(sub.ID(), room)
	}
	rooms, observers := len(r.rooms), len(r.membership)
	r.mu.Unlock()

	if ok {
		r.metrics.SetRoomCounts(rooms, observers)
		r.log.Debug().Str("room", room).Str("subscriber", sub.ID()).Msg("observer removed")
	}
}

func (r *Registry) removeLocked(id, room string) {
	delete(r.membership, id)
	if set, ok := r.rooms[room]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Broadcast delivers v to every subscriber of room. Delivery to an absent
// room is a no-op. Per-recipient transport failures are counted and ignored
// so one broken subscriber cannot halt delivery to the rest.
func (r *Registry) Broadcast(room string, v any) {
	r.mu.RLock()
	subs := snapshot(r.rooms[room])
	r.mu.RUnlock()

	r.deliver(subs, v)
}

// BroadcastAll delivers v to every subscriber of every room. Used when an
// event has no room scope.
func (r *Registry) BroadcastAll(v any) {
	r.mu.RLock()
	subs := make([]Subscriber, 0, len(r.membership))
	for _, set := range r.rooms {
		subs = append(subs, snapshot(set)...)
	}
	r.mu.RUnlock()

	r.deliver(subs, v)
}

func (r *Registry) deliver(subs []Subscriber, v any) {
	if len(subs) == 0 {
		return
	}
	failures := 0
	for _, sub := range subs {
		if err := sub.SendEvent(v); err != nil {
			failures++
			r.log.Debug().Err(err).Str("subscriber", sub.ID()).Msg("broadcast delivery failed")
		}
	}
	r.metrics.RecordBroadcast(failures)
}

// RoomCount returns the number of live rooms. Introspection hook for tests
// and metrics.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ObserverCount returns the number of subscribers in room, zero if absent.
func (r *Registry) ObserverCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Close drops every subscription. Called on process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	r.rooms = make(map[string]map[string]Subscriber)
	r.membership = make(map[string]string)
	r.mu.Unlock()
	r.metrics.SetRoomCounts(0, 0)
}

func snapshot(set map[string]Subscriber) []Subscriber {
	if len(set) == 0 {
		return nil
	}
	subs := make([]Subscriber, 0, len(set))
	for _, s := range set {
		subs = append(subs, s)
	}
	return subs
}
