package realtime

import "sync"

// Topic is an in-process publish/subscribe channel for one notification kind.
// Publish runs every subscriber synchronously on the publishing goroutine, so
// the order events arrive from the transport is the order consumers see them.
// Subscribing or unsubscribing never affects delivery to other subscribers.
type Topic[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

// Subscribe registers fn and returns its cancel func. Each consumer owns its
// own cancel and must call it on teardown.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[int]func(T))
	}
	id := t.next
	t.next++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish delivers v to every current subscriber exactly once.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	fns := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()
	// Subscribers run outside the lock so a handler may unsubscribe itself.
	for _, fn := range fns {
		fn(v)
	}
}

// Notifier is the set of process-wide notifications the client republishes.
// UI code subscribes here instead of attaching listeners to the transport, so
// mount/unmount cycles of individual views cannot double-register transport
// handlers or tear down someone else's subscription.
type Notifier struct {
	// Connectivity reports connected (true) / disconnected (false).
	Connectivity Topic[bool]

	RoomJoined Topic[RoomJoined]
	RoomLeft   Topic[RoomLeft]

	// OrderUpdated is a partial update (order_id + status only).
	OrderUpdated Topic[OrderUpdate]
	// NewOrder and OrderStatus carry the full order object.
	NewOrder    Topic[Order]
	OrderStatus Topic[Order]

	TrackingStarted Topic[TrackingStarted]

	WaiterCall       Topic[WaiterCall]
	WaiterCallUpdate Topic[WaiterCall]
	WaiterCallSent   Topic[WaiterCallSent]
}
