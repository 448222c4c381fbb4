package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/coolchillgy/pay/src/logger"
)

// AdminChannel receives every transaction event regardless of company.
const AdminChannel = "admin"

// CompanyChannel names the per-company broadcast channel.
func CompanyChannel(companyID int64) string {
	return fmt.Sprintf("company_%d", companyID)
}

// Subscriber is one live connection the hub can push JSON events to.
// *websocket.Conn satisfies it.
type Subscriber interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// subscriberState guards writes to one subscriber. The underlying
// websocket connection supports at most one concurrent writer, so every
// deadline+write pair must hold writeMu, even across channels. refs
// counts channel memberships so the state lives as long as any of them.
type subscriberState struct {
	writeMu sync.Mutex
	refs    int
}

// Hub is the channel registry: it owns the channel-name → subscriber-set
// mapping and serializes all membership changes behind a single mutex.
// Publishing snapshots the subscriber set first, so sends never iterate
// the live map while join/leave calls mutate it.
type Hub struct {
	mu           sync.Mutex
	channels     map[string]map[Subscriber]bool
	states       map[Subscriber]*subscriberState
	writeTimeout time.Duration
}

func NewHub(writeTimeout time.Duration) *Hub {
	return &Hub{
		channels:     make(map[string]map[Subscriber]bool),
		states:       make(map[Subscriber]*subscriberState),
		writeTimeout: writeTimeout,
	}
}

// Join registers a subscriber under a channel. Joining the same channel
// twice is a no-op: a subscriber is present at most once.
func (h *Hub) Join(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[Subscriber]bool)
		h.channels[channel] = subs
	}
	if subs[sub] {
		return
	}
	subs[sub] = true

	state, ok := h.states[sub]
	if !ok {
		state = &subscriberState{}
		h.states[sub] = state
	}
	state.refs++
}

// Leave removes a subscriber from a channel if present. Empty channels
// are pruned from the registry.
func (h *Hub) Leave(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(channel, sub)
}

func (h *Hub) removeLocked(channel string, sub Subscriber) {
	subs, ok := h.channels[channel]
	if !ok || !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}

	if state, ok := h.states[sub]; ok {
		state.refs--
		if state.refs <= 0 {
			delete(h.states, sub)
		}
	}
}

// Publish delivers an event to every current subscriber of a channel.
// Each subscriber gets exactly one delivery attempt, bounded by the
// hub's write timeout and serialized behind the subscriber's write
// lock so concurrent publishes never interleave frames on one
// connection. A subscriber whose send fails is removed and closed
// without affecting delivery to the others. Publishing to a channel
// with no subscribers is a no-op. Partial failure is never reported to
// the caller.
func (h *Hub) Publish(channel string, event interface{}) {
	type target struct {
		sub   Subscriber
		state *subscriberState
	}

	h.mu.Lock()
	targets := make([]target, 0, len(h.channels[channel]))
	for sub := range h.channels[channel] {
		targets = append(targets, target{sub: sub, state: h.states[sub]})
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	var failed []Subscriber
	for _, t := range targets {
		t.state.writeMu.Lock()
		t.sub.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		err := t.sub.WriteJSON(event)
		t.state.writeMu.Unlock()
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Dropping dead subscriber after failed publish", "channel", channel, "error", err)
			}
			failed = append(failed, t.sub)
		}
	}

	if len(failed) == 0 {
		return
	}
	h.mu.Lock()
	for _, sub := range failed {
		h.removeLocked(channel, sub)
	}
	h.mu.Unlock()
	for _, sub := range failed {
		sub.Close()
	}
}

// SubscriberCount reports how many subscribers a channel currently has.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}
