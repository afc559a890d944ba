package service

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/core/normalize"
	"github.com/inkroom-io/inkroom-go/internal/storage"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
)

// helloMessage is the state replay sent to a connection when it joins.
// The room is implied by the connection; each history event carries its
// own room field.
type helloMessage struct {
	Type      string         `json:"type"`
	PageCount int            `json:"pageCount"`
	History   []domain.Event `json:"history"`
}

// RoomInfo is a read-only summary of one resident room.
type RoomInfo struct {
	ID        string `json:"room"`
	PageCount int    `json:"pageCount"`
	Events    int    `json:"events"`
	Peers     int    `json:"peers"`
	SavedAt   int64  `json:"savedAt"`
}

// Config configures the room service.
type Config struct {
	Engine  *storage.Engine
	Logger  logger.Logger
	Metrics *metric.Metrics

	// now overrides the event timestamp clock in tests.
	now func() time.Time
}

// RoomService synchronizes rooms across their attached connections.
type RoomService struct {
	engine *storage.Engine
	reg    *registry
	log    logger.Logger
	met    *metric.Metrics
	now    func() time.Time
}

// NewRoomService creates a room service over the given storage engine.
func NewRoomService(cfg Config) *RoomService {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.New()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &RoomService{
		engine: cfg.Engine,
		reg:    newRegistry(),
		log:    cfg.Logger.With("component", "sync"),
		met:    cfg.Metrics,
		now:    cfg.now,
	}
}

// Join attaches conn to roomID and replays the room's full state.
//
// The replay is sent under the room lock, so events appended after Join
// returns are guaranteed to reach the connection as ordinary broadcasts
// and never to be missing from both the replay and the stream.
func (s *RoomService) Join(roomID string, conn Conn) error {
	entry := s.engine.Room(roomID)

	entry.Lock()
	hello, err := json.Marshal(helloMessage{
		Type:      "hello",
		PageCount: entry.Room.PageCount,
		History:   entry.Room.Events,
	})
	if err == nil {
		s.reg.add(roomID, conn)
		if !conn.Send(hello) {
			s.reg.remove(roomID, conn)
			err = errors.New("replay did not fit the send buffer")
		}
	}
	entry.Unlock()

	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}

	s.met.ConnectionsOpen.Inc()
	s.log.Info("peer joined",
		"room", roomID, "client", conn.ClientID(), "peers", s.reg.count(roomID))
	return nil
}

// Leave detaches conn from roomID. Safe to call more than once.
func (s *RoomService) Leave(roomID string, conn Conn) {
	if !s.reg.remove(roomID, conn) {
		return
	}
	s.met.ConnectionsOpen.Dec()
	s.log.Info("peer left",
		"room", roomID, "client", conn.ClientID(), "peers", s.reg.count(roomID))
}

// HandleMessage processes one decoded inbound message from conn.
//
// Messages that fail normalization are dropped without disturbing the
// connection; the stream carries best-effort drawing traffic and a bad
// frame is cheaper to lose than the socket.
func (s *RoomService) HandleMessage(roomID string, conn Conn, raw map[string]any) {
	entry := s.engine.Room(roomID)

	entry.Lock()
	ev, err := normalize.Event(raw, roomID)
	if err != nil {
		entry.Unlock()
		s.reject(roomID, conn, err)
		return
	}

	if ev.Type == domain.EventPageInfo && ev.Count <= entry.Room.PageCount {
		entry.Unlock()
		s.met.EventsRejected.WithLabelValues(metric.ReasonStaleCount).Inc()
		s.log.Debug("stale pageinfo dropped",
			"room", roomID, "client", conn.ClientID(), "count", ev.Count)
		return
	}

	ev.TS = s.now().UnixMilli()
	entry.Room.Append(ev)

	data, err := json.Marshal(entry.Room.Events[len(entry.Room.Events)-1])
	if err != nil {
		entry.Unlock()
		s.log.Error("event marshal failed", "room", roomID, "error", err)
		return
	}

	// Strokes echo to everyone but their author, who has already drawn
	// them locally. Page-count changes go to the author too, as the
	// acknowledgement that the new count is authoritative.
	includeSender := ev.Type == domain.EventPageInfo
	stalled := s.broadcast(roomID, conn, data, includeSender)
	entry.Unlock()

	for _, peer := range stalled {
		s.dropPeer(roomID, peer)
	}

	s.met.EventsAccepted.WithLabelValues(string(ev.Type)).Inc()
	s.engine.RequestSave(roomID)
}

// broadcast fans data out to the room's peers and returns the ones
// whose send buffer was full. Must be called with the room lock held.
func (s *RoomService) broadcast(roomID string, sender Conn, data []byte, includeSender bool) []Conn {
	var stalled []Conn
	for _, peer := range s.reg.peers(roomID) {
		if peer == sender && !includeSender {
			continue
		}
		if !peer.Send(data) {
			stalled = append(stalled, peer)
		}
	}
	s.met.Broadcasts.Inc()
	return stalled
}

// dropPeer disconnects a peer that cannot keep up with the room. Only
// the stalled connection is affected; the rest of the room continues.
func (s *RoomService) dropPeer(roomID string, peer Conn) {
	if s.reg.remove(roomID, peer) {
		s.met.ConnectionsOpen.Dec()
	}
	s.met.PeersDropped.Inc()
	s.log.Warn("dropping slow peer", "room", roomID, "client", peer.ClientID())
	peer.Kick()
}

// reject accounts for a message dropped before append.
func (s *RoomService) reject(roomID string, conn Conn, err error) {
	reason := metric.ReasonBadPayload
	switch {
	case errors.Is(err, domain.ErrRoomMismatch):
		reason = metric.ReasonRoomMismatch
	case errors.Is(err, domain.ErrUnknownEventType):
		reason = metric.ReasonUnknownType
	}
	s.met.EventsRejected.WithLabelValues(reason).Inc()
	s.log.Debug("message rejected",
		"room", roomID, "client", conn.ClientID(), "reason", reason, "error", err)
}

// Rooms summarizes every resident room, sorted by id.
func (s *RoomService) Rooms() []RoomInfo {
	ids := s.engine.RoomIDs()
	sort.Strings(ids)

	out := make([]RoomInfo, 0, len(ids))
	for _, id := range ids {
		entry, ok := s.engine.Lookup(id)
		if !ok {
			continue
		}
		entry.Lock()
		info := RoomInfo{
			ID:        id,
			PageCount: entry.Room.PageCount,
			Events:    len(entry.Room.Events),
			SavedAt:   entry.Room.SavedAt,
		}
		entry.Unlock()
		info.Peers = s.reg.count(id)
		out = append(out, info)
	}
	return out
}

// Save persists roomID immediately, bypassing the debounce window.
// Returns domain.ErrRoomNotFound for a room that is not resident.
func (s *RoomService) Save(roomID string) error {
	if _, ok := s.engine.Lookup(roomID); !ok {
		return domain.ErrRoomNotFound
	}
	if err := s.engine.SaveNow(roomID); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}
