// Package subscribe implements an in-process hub delivering versioned
// snapshots to live subscribers. It replaces per-callback remote listeners
// with an explicit, cancellable subscription handle.
package subscribe

import (
	"sync"
)

// Snapshot is one versioned state delivery for a topic.
// Versions are assigned by the hub and increase strictly per topic, so a
// subscriber never observes a snapshot older than one it already received.
type Snapshot struct {
	// Topic names the entity the snapshot belongs to, e.g. "group:<id>".
	Topic string
	// Version increases by one with every publish on the topic.
	Version uint64
	// Data is the typed payload. Consumers assert the concrete type.
	Data any
}

// Subscription is a live handle on a topic. Receive from C until it is
// closed; call Cancel to detach. Slow consumers are never blocked on:
// undelivered snapshots are coalesced to the latest one.
type Subscription struct {
	// C delivers snapshots in strictly increasing version order.
	C <-chan Snapshot

	ch    chan Snapshot
	topic string
	id    uint64
	hub   *Hub
	once  sync.Once
}

// Cancel detaches the subscription from the hub and closes C.
// Cancel is idempotent and safe to call concurrently with delivery.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.drop(s.topic, s.id)
		close(s.ch)
	})
}

type topicState struct {
	version uint64
	subs    map[uint64]*Subscription
}

// Hub fans versioned snapshots out to subscribers, one version counter per
// topic. The zero value is not usable; create hubs with NewHub. A nil *Hub
// accepts publishes as no-ops so services can run without live delivery.
type Hub struct {
	mu     sync.Mutex
	topics map[string]*topicState
	nextID uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]*topicState)}
}

// Subscribe attaches a new subscription to the topic. The returned handle
// must be cancelled when no longer needed; switching topics means cancelling
// the old handle before subscribing to the new one.
func (h *Hub) Subscribe(topic string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ts := h.topics[topic]
	if ts == nil {
		ts = &topicState{subs: make(map[uint64]*Subscription)}
		h.topics[topic] = ts
	}

	h.nextID++

	ch := make(chan Snapshot, 1)
	sub := &Subscription{
		C:     ch,
		ch:    ch,
		topic: topic,
		id:    h.nextID,
		hub:   h,
	}
	ts.subs[sub.id] = sub

	return sub
}

// Publish assigns the next version on the topic and delivers the snapshot to
// every subscriber. When a subscriber has not consumed the previous snapshot
// yet, the stale one is replaced, never the other way around. Returns the
// assigned version. Publishing on a nil hub is a no-op.
func (h *Hub) Publish(topic string, data any) uint64 {
	if h == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ts := h.topics[topic]
	if ts == nil {
		ts = &topicState{subs: make(map[uint64]*Subscription)}
		h.topics[topic] = ts
	}

	ts.version++
	snap := Snapshot{Topic: topic, Version: ts.version, Data: data}

	for _, sub := range ts.subs {
		select {
		case sub.ch <- snap:
		default:
			// coalesce: drop the undelivered older snapshot, keep the new one
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}

	return ts.version
}

// Version returns the current version of the topic, 0 if never published.
func (h *Hub) Version(topic string) uint64 {
	if h == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if ts := h.topics[topic]; ts != nil {
		return ts.version
	}

	return 0
}

func (h *Hub) drop(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ts := h.topics[topic]; ts != nil {
		delete(ts.subs, id)

		if len(ts.subs) == 0 && ts.version == 0 {
			delete(h.topics, topic)
		}
	}
}
