package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/storage/memory"
	"github.com/inkroom-io/inkroom-go/internal/storage/snapshot"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
)

// ErrEngineClosed is returned by operations on a closed engine.
var ErrEngineClosed = errors.New("storage engine closed")

// EngineConfig configures the storage engine.
type EngineConfig struct {
	// Snapshots is the persistence backend. The engine takes ownership
	// and closes it on Close.
	Snapshots snapshot.Store

	// SaveInterval is the per-room debounce window for snapshot writes.
	SaveInterval time.Duration

	Logger  logger.Logger
	Metrics *metric.Metrics

	// now overrides the clock in tests.
	now func() time.Time
}

// Engine owns all room state and its persistence schedule.
type Engine struct {
	mem   *memory.Store
	snaps snapshot.Store
	log   logger.Logger
	met   *metric.Metrics

	interval time.Duration
	now      func() time.Time

	// mu guards saves and closed. It is never held while writing a
	// snapshot; only the per-room entry lock is.
	mu     sync.Mutex
	saves  map[string]*saveState
	closed bool

	// inflight counts scheduled snapshot writes so Close can wait for
	// them before closing the store.
	inflight sync.WaitGroup
}

// saveState tracks the debounce window of one room.
type saveState struct {
	lastAttempt time.Time
	dirty       bool
	timer       *time.Timer
}

// NewEngine creates a storage engine over the given snapshot store.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.New()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Engine{
		mem:      memory.NewStore(),
		snaps:    cfg.Snapshots,
		log:      cfg.Logger.With("component", "storage"),
		met:      cfg.Metrics,
		interval: cfg.SaveInterval,
		now:      cfg.now,
		saves:    make(map[string]*saveState),
	}
}

// Room returns the resident entry for roomID, loading its snapshot on
// first touch. A missing or corrupt snapshot yields an empty room; a
// room is never refused because its history cannot be read.
func (e *Engine) Room(roomID string) *memory.Entry {
	entry := e.mem.GetOrCreate(roomID, func(id string) *domain.Room {
		room, err := e.snaps.Load(id)
		switch {
		case err == nil:
			e.log.Info("room loaded from snapshot",
				"room", id, "events", len(room.Events), "pages", room.PageCount)
		case errors.Is(err, snapshot.ErrNotFound):
			room = domain.NewRoom(id)
		default:
			e.log.Warn("snapshot unreadable, starting room empty", "room", id, "error", err)
			room = domain.NewRoom(id)
		}
		return room
	})
	e.met.RoomsResident.Set(float64(e.mem.Count()))
	return entry
}

// Lookup returns the resident entry for roomID without loading it.
func (e *Engine) Lookup(roomID string) (*memory.Entry, bool) {
	return e.mem.Get(roomID)
}

// RoomIDs returns the ids of all resident rooms.
func (e *Engine) RoomIDs() []string {
	return e.mem.IDs()
}

// RequestSave schedules a snapshot write for roomID.
//
// The first request in a quiet period writes immediately. Requests
// arriving inside the debounce window only mark the room dirty; a
// trailing timer fires when the window closes and writes the state
// current at that moment, so the last event of a burst is never lost.
//
// The write itself always runs off the caller's goroutine. RequestSave
// sits on the message path, and a slow disk must not hold up the
// sender's next frame.
func (e *Engine) RequestSave(roomID string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	st, ok := e.saves[roomID]
	if !ok {
		st = &saveState{}
		e.saves[roomID] = st
	}

	now := e.now()
	if now.Sub(st.lastAttempt) >= e.interval {
		st.lastAttempt = now
		st.dirty = false
		e.inflight.Add(1)
		e.mu.Unlock()
		go func() {
			defer e.inflight.Done()
			e.saveRoom(roomID)
		}()
		return
	}

	st.dirty = true
	if st.timer == nil {
		delay := e.interval - now.Sub(st.lastAttempt)
		st.timer = time.AfterFunc(delay, func() { e.windowClosed(roomID) })
	}
	e.mu.Unlock()
}

// windowClosed runs when a room's debounce window expires.
func (e *Engine) windowClosed(roomID string) {
	e.mu.Lock()
	st, ok := e.saves[roomID]
	if !ok || e.closed {
		e.mu.Unlock()
		return
	}
	st.timer = nil
	if !st.dirty {
		e.mu.Unlock()
		return
	}
	st.dirty = false
	st.lastAttempt = e.now()
	e.inflight.Add(1)
	e.mu.Unlock()

	defer e.inflight.Done()
	e.saveRoom(roomID)
}

// SaveNow writes roomID's snapshot immediately, bypassing the debounce
// window, and clears any pending deferred write.
func (e *Engine) SaveNow(roomID string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	st, ok := e.saves[roomID]
	if !ok {
		st = &saveState{}
		e.saves[roomID] = st
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.dirty = false
	st.lastAttempt = e.now()
	e.mu.Unlock()

	return e.saveRoom(roomID)
}

// saveRoom snapshots the room's current state. The entry lock is held
// only long enough to stamp SavedAt and clone the log; the write itself
// runs unlocked.
func (e *Engine) saveRoom(roomID string) error {
	entry, ok := e.mem.Get(roomID)
	if !ok {
		return nil
	}

	entry.Lock()
	entry.Room.SavedAt = e.now().UnixMilli()
	clone := entry.Room.Clone()
	entry.Unlock()

	start := time.Now()
	err := e.snaps.Save(clone)
	e.met.SnapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.met.SnapshotFailures.Inc()
		e.log.Error("snapshot write failed", "room", roomID, "error", err)
		return err
	}
	e.met.SnapshotSaves.Inc()
	e.log.Debug("snapshot written", "room", roomID, "events", len(clone.Events))
	return nil
}

// Close stops all pending save timers, flushes every dirty room, and
// closes the snapshot store.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true

	var pending []string
	for id, st := range e.saves {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		if st.dirty {
			st.dirty = false
			pending = append(pending, id)
		}
	}
	e.mu.Unlock()

	// Let scheduled writes finish before flushing and closing the store.
	e.inflight.Wait()

	var firstErr error
	for _, id := range pending {
		if err := e.saveRoom(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if len(pending) > 0 {
		e.log.Info("flushed dirty rooms on shutdown", "rooms", len(pending))
	}

	if err := e.snaps.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
