// Package orders keeps the live order view-state fed by the realtime channel.
package orders

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dinesync/dinesync/internal/realtime"
)

// Store is the in-memory order table a dashboard renders from. new_order and
// order_status carry the full order and replace the entry wholesale;
// order_updated carries only id + status and must be merged into the existing
// entry so fields like items_json survive a status-only push.
type Store struct {
	mu   sync.RWMutex
	byID map[int64]realtime.Order
}

func NewStore() *Store {
	return &Store{byID: make(map[int64]realtime.Order)}
}

// Put replaces the stored order wholesale.
func (s *Store) Put(o realtime.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[o.ID] = o
}

// ApplyStatus merges a partial status update into the existing order. An
// update for an order we have never seen has nothing to merge into and is
// dropped; the full object arrives via new_order or order_status.
func (s *Store) ApplyStatus(orderID int64, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[orderID]
	if !ok {
		log.Debug().Str("module", "orders").Int64("order_id", orderID).
			Msg("status update for unknown order dropped")
		return false
	}
	o.Status = status
	s.byID[orderID] = o
	return true
}

func (s *Store) Get(orderID int64) (realtime.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[orderID]
	return o, ok
}

// List returns the orders sorted by id, newest first.
func (s *Store) List() []realtime.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]realtime.Order, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Bind subscribes the store to the notifier and returns one func that
// unsubscribes everything.
func (s *Store) Bind(n *realtime.Notifier) func() {
	cancels := []func(){
		n.NewOrder.Subscribe(s.Put),
		n.OrderStatus.Subscribe(s.Put),
		n.OrderUpdated.Subscribe(func(u realtime.OrderUpdate) {
			s.ApplyStatus(u.OrderID, u.Status)
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
