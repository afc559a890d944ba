// Package memory holds the resident rooms.
//
// Every room a client has touched since startup stays resident here;
// the snapshot store is only read once, when the room first becomes
// resident. Each entry carries the mutex that serializes all access to
// its room, so callers can hold ordering-sensitive sections (append
// plus broadcast) closed against concurrent writers.
package memory

import (
	"sync"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/pkg/cmap"
)

// Entry is one resident room and its lock.
//
// Callers must hold the lock while reading or mutating Room. The Room
// pointer itself is set once at creation and never replaced.
type Entry struct {
	mu   sync.Mutex
	Room *domain.Room
}

// Lock acquires the room lock.
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the room lock.
func (e *Entry) Unlock() { e.mu.Unlock() }

// Store is the registry of resident rooms.
type Store struct {
	rooms *cmap.Map[*Entry]
}

// NewStore creates an empty room registry.
func NewStore() *Store {
	return &Store{rooms: cmap.New[*Entry]()}
}

// Get returns the resident entry for roomID, if any.
func (s *Store) Get(roomID string) (*Entry, bool) {
	return s.rooms.Get(roomID)
}

// GetOrCreate returns the resident entry for roomID, creating it with
// load on first touch. load runs at most once per room; concurrent
// callers all receive the same entry.
func (s *Store) GetOrCreate(roomID string, load func(id string) *domain.Room) *Entry {
	entry, _ := s.rooms.GetOrCreate(roomID, func() *Entry {
		return &Entry{Room: load(roomID)}
	})
	return entry
}

// Delete evicts a room from the registry.
func (s *Store) Delete(roomID string) {
	s.rooms.Delete(roomID)
}

// Count returns the number of resident rooms.
func (s *Store) Count() int {
	return s.rooms.Count()
}

// IDs returns the ids of all resident rooms.
func (s *Store) IDs() []string {
	return s.rooms.Keys()
}

// Range calls fn for each resident room until fn returns false.
func (s *Store) Range(fn func(id string, e *Entry) bool) {
	s.rooms.Range(fn)
}
