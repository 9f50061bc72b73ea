package realtime

import "sync"

// memberships tracks which rooms this connection has joined. A room is only
// marked joined once the server confirms it; a pending set keeps two rapid
// join calls from both sending join_room before the confirmation arrives.
// Server-side membership does not survive a dropped connection, so reset is
// called unconditionally on every disconnect.
type memberships struct {
	mu      sync.Mutex
	joined  map[string]struct{}
	pending map[string]struct{}
}

func newMemberships() *memberships {
	return &memberships{
		joined:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
}

// beginJoin reports whether a join command should be sent for room. It
// returns false when the room is already joined or a join is in flight.
func (m *memberships) beginJoin(room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.joined[room]; ok {
		return false
	}
	if _, ok := m.pending[room]; ok {
		return false
	}
	m.pending[room] = struct{}{}
	return true
}

// confirm moves room from pending to joined on a room_joined event.
func (m *memberships) confirm(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, room)
	m.joined[room] = struct{}{}
}

// leave reports whether a leave command should be sent, and forgets the room
// either way.
func (m *memberships) leave(room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, joined := m.joined[room]
	delete(m.joined, room)
	delete(m.pending, room)
	return joined
}

func (m *memberships) has(room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.joined[room]
	return ok
}

func (m *memberships) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined = make(map[string]struct{})
	m.pending = make(map[string]struct{})
}
