// Package waiter tracks table-side service calls fed by the realtime channel.
package waiter

import (
	"sort"
	"sync"

	"github.com/dinesync/dinesync/internal/realtime"
)

// Board is the live list of waiter calls. waiter_call and waiter_call_update
// both carry the full call object, so every event is an upsert.
type Board struct {
	mu    sync.RWMutex
	calls map[string]realtime.WaiterCall
}

func NewBoard() *Board {
	return &Board{calls: make(map[string]realtime.WaiterCall)}
}

func (b *Board) Apply(call realtime.WaiterCall) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[call.ID] = call
}

func (b *Board) Get(id string) (realtime.WaiterCall, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	call, ok := b.calls[id]
	return call, ok
}

// Active returns the calls still needing attention, oldest first.
func (b *Board) Active() []realtime.WaiterCall {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]realtime.WaiterCall, 0, len(b.calls))
	for _, call := range b.calls {
		if call.Status == realtime.CallCompleted {
			continue
		}
		out = append(out, call)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Bind subscribes the board to the notifier and returns one func that
// unsubscribes everything.
func (b *Board) Bind(n *realtime.Notifier) func() {
	cancels := []func(){
		n.WaiterCall.Subscribe(b.Apply),
		n.WaiterCallUpdate.Subscribe(b.Apply),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
