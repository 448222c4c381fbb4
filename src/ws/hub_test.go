package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	events   []interface{}
	writeErr error
	closed   bool
}

func (f *fakeSubscriber) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.events = append(f.events, v)
	return nil
}

func (f *fakeSubscriber) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) received() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interface{}{}, f.events...)
}

func newTestHub() *Hub {
	return NewHub(time.Second)
}

func TestPublishDeliversToJoinedSubscriber(t *testing.T) {
	hub := newTestHub()
	sub := &fakeSubscriber{}

	hub.Join("admin", sub)
	hub.Publish("admin", "event-1")

	assert.Equal(t, []interface{}{"event-1"}, sub.received())
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := newTestHub()
	sub := &fakeSubscriber{}

	hub.Join("admin", sub)
	hub.Join("admin", sub)

	assert.Equal(t, 1, hub.SubscriberCount("admin"))

	hub.Publish("admin", "event-1")
	assert.Len(t, sub.received(), 1, "duplicate join must not cause duplicate delivery")
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := newTestHub()
	sub := &fakeSubscriber{}

	hub.Join("admin", sub)
	hub.Leave("admin", sub)
	hub.Publish("admin", "event-1")

	assert.Empty(t, sub.received())
	assert.Equal(t, 0, hub.SubscriberCount("admin"))
}

func TestLeaveUnknownSubscriberIsNoop(t *testing.T) {
	hub := newTestHub()
	hub.Leave("admin", &fakeSubscriber{})
	hub.Leave("missing-channel", &fakeSubscriber{})
}

func TestPublishToEmptyChannelIsNoop(t *testing.T) {
	hub := newTestHub()
	hub.Publish("admin", "event-1")
}

func TestFailedSubscriberIsRemoved(t *testing.T) {
	hub := newTestHub()
	healthy := &fakeSubscriber{}
	dead := &fakeSubscriber{writeErr: errors.New("connection reset")}

	hub.Join("admin", healthy)
	hub.Join("admin", dead)

	hub.Publish("admin", "event-1")

	// The healthy subscriber is unaffected by the dead one.
	assert.Equal(t, []interface{}{"event-1"}, healthy.received())
	assert.Equal(t, 1, hub.SubscriberCount("admin"))
	assert.True(t, dead.closed)

	// The dead subscriber no longer receives anything.
	hub.Publish("admin", "event-2")
	assert.Equal(t, []interface{}{"event-1", "event-2"}, healthy.received())
	assert.Empty(t, dead.received())
}

func TestChannelsAreIndependent(t *testing.T) {
	hub := newTestHub()
	adminSub := &fakeSubscriber{}
	companySub := &fakeSubscriber{}

	hub.Join("admin", adminSub)
	hub.Join("company_1", companySub)

	hub.Publish("admin", "admin-event")
	hub.Publish("company_1", "company-event")

	assert.Equal(t, []interface{}{"admin-event"}, adminSub.received())
	assert.Equal(t, []interface{}{"company-event"}, companySub.received())
}

func TestCompanyChannelName(t *testing.T) {
	assert.Equal(t, "company_42", CompanyChannel(42))
}

// writeTrackingSubscriber records whether two WriteJSON calls ever ran
// at the same time. The real websocket connection allows at most one
// concurrent writer, so any overlap here would crash in production.
type writeTrackingSubscriber struct {
	fakeSubscriber
	inWrite    int32
	overlapped int32
}

func (s *writeTrackingSubscriber) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&s.inWrite, 1) > 1 {
		atomic.StoreInt32(&s.overlapped, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&s.inWrite, -1)
	return s.fakeSubscriber.WriteJSON(v)
}

func TestConcurrentPublishesNeverOverlapWrites(t *testing.T) {
	hub := newTestHub()
	sub := &writeTrackingSubscriber{}
	hub.Join("admin", sub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Publish("admin", n)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&sub.overlapped), "writes to a single subscriber must be serialized")
	assert.Len(t, sub.received(), 8)
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &fakeSubscriber{}
			hub.Join("admin", sub)
			hub.Publish("admin", "event")
			hub.Leave("admin", sub)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.SubscriberCount("admin"))
}
