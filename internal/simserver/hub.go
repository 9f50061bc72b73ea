package simserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dinesync/dinesync/internal/realtime"
)

var errBackpressure = errors.New("backpressure")

// session is one connected client.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{id: id, conn: conn, send: make(chan []byte, 32)}
}

func (s *session) trySend(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	select {
	case s.send <- data:
		return nil
	default:
		return errBackpressure
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
	_ = s.conn.Close()
}

// hub owns rooms, orders and waiter calls. All state is in-memory and dies
// with the process, matching the channel's best-effort contract.
type hub struct {
	mu        sync.RWMutex
	rooms     map[string]map[*session]struct{}
	orders    map[int64]realtime.Order
	calls     map[string]realtime.WaiterCall
	nextOrder int64
}

func newHub() *hub {
	return &hub{
		rooms:  make(map[string]map[*session]struct{}),
		orders: make(map[int64]realtime.Order),
		calls:  make(map[string]realtime.WaiterCall),
	}
}

// orderRoom names the per-order tracking room.
func orderRoom(orderID int64) string {
	return fmt.Sprintf("order_%d", orderID)
}

func (h *hub) join(s *session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
}

func (h *hub) leave(s *session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

func (h *hub) leaveLocked(s *session, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// drop removes the session from every room. Membership never survives the
// connection.
func (h *hub) drop(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.leaveLocked(s, room)
	}
}

// broadcast fans an event out to every member of a room.
func (h *hub) broadcast(room, event string, payload any) {
	env, err := realtime.NewEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "simserver").Str("event", event).Msg("marshal")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "simserver").Str("event", event).Msg("marshal")
		return
	}

	h.mu.RLock()
	members := make([]*session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		if err := s.trySend(data); err != nil {
			log.Warn().Err(err).Str("module", "simserver").
				Str("sid", s.id).Str("room", room).Msg("dropping frame")
		}
	}
}

func (h *hub) createOrder(o realtime.Order) realtime.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextOrder++
	o.ID = h.nextOrder
	if o.Status == "" {
		o.Status = "pending"
	}
	if o.CreatedAt == "" {
		o.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	h.orders[o.ID] = o
	return o
}

func (h *hub) getOrder(id int64) (realtime.Order, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	o, ok := h.orders[id]
	return o, ok
}

func (h *hub) setOrderStatus(id int64, status string) (realtime.Order, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.orders[id]
	if !ok {
		return realtime.Order{}, false
	}
	o.Status = status
	h.orders[id] = o
	return o, true
}

func (h *hub) createCall(call realtime.WaiterCall) realtime.WaiterCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	call.ID = uuid.NewString()
	call.Status = realtime.CallPending
	if call.Timestamp == "" {
		call.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	h.calls[call.ID] = call
	return call
}

func (h *hub) setCallStatus(id, status string) (realtime.WaiterCall, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	call, ok := h.calls[id]
	if !ok {
		return realtime.WaiterCall{}, false
	}
	call.Status = status
	h.calls[id] = call
	return call, true
}
