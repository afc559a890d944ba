package service

import "sync"

// Conn is one attached client connection, as the sync engine sees it.
//
// Send must not block: it enqueues the frame and reports false when the
// peer's outbound buffer is full or the connection is gone. Kick
// force-closes the transport; the transport is expected to call Leave
// afterwards as part of its normal teardown.
type Conn interface {
	ClientID() string
	Send(data []byte) bool
	Kick()
}

// registry tracks which connections are attached to which room.
//
// Multiple connections may share a client id; entries are keyed by the
// connection value itself.
type registry struct {
	mu    sync.Mutex
	rooms map[string]map[Conn]struct{}
}

func newRegistry() *registry {
	return &registry{rooms: make(map[string]map[Conn]struct{})}
}

func (r *registry) add(roomID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers, ok := r.rooms[roomID]
	if !ok {
		peers = make(map[Conn]struct{})
		r.rooms[roomID] = peers
	}
	peers[conn] = struct{}{}
}

// remove detaches conn and reports whether it was attached.
func (r *registry) remove(roomID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := peers[conn]; !ok {
		return false
	}
	delete(peers, conn)
	if len(peers) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// peers returns a snapshot of the connections attached to roomID.
func (r *registry) peers(roomID string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Conn, 0, len(r.rooms[roomID]))
	for c := range r.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

func (r *registry) count(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}
