package service

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/storage"
	"github.com/inkroom-io/inkroom-go/internal/storage/snapshot"
)

// fakeConn records every frame the service sends it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	full   bool
	kicked bool
}

func (c *fakeConn) ClientID() string { return c.id }

func (c *fakeConn) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) Kick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kicked = true
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) frame(t *testing.T, i int) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.frames) {
		t.Fatalf("frame(%d): only %d frames", i, len(c.frames))
	}
	var m map[string]any
	if err := json.Unmarshal(c.frames[i], &m); err != nil {
		t.Fatalf("frame(%d): %v", i, err)
	}
	return m
}

func newTestService(t *testing.T) *RoomService {
	t.Helper()
	snaps, err := snapshot.New(snapshot.Config{Dir: t.TempDir(), Backend: snapshot.BackendFile})
	if err != nil {
		t.Fatalf("snapshot.New: %v", err)
	}
	engine := storage.NewEngine(storage.EngineConfig{
		Snapshots:    snaps,
		SaveInterval: time.Hour,
	})
	t.Cleanup(func() { engine.Close() })
	return NewRoomService(Config{Engine: engine})
}

func join(t *testing.T, s *RoomService, roomID, clientID string) *fakeConn {
	t.Helper()
	conn := &fakeConn{id: clientID}
	if err := s.Join(roomID, conn); err != nil {
		t.Fatalf("Join(%s): %v", clientID, err)
	}
	return conn
}

func stroke(x, y float64) map[string]any {
	return map[string]any{
		"type": "seg",
		"from": "tester",
		"tool": "pen",
		"size": float64(8),
		"a":    map[string]any{"x": x, "y": y},
		"b":    map[string]any{"x": x + 0.1, "y": y + 0.1},
	}
}

func TestJoin_EmptyRoomReplay(t *testing.T) {
	s := newTestService(t)
	conn := join(t, s, "main", "alice")

	if conn.frameCount() != 1 {
		t.Fatalf("frameCount = %d, want 1 hello", conn.frameCount())
	}
	hello := conn.frame(t, 0)
	if hello["type"] != "hello" {
		t.Fatalf("hello = %v", hello)
	}
	if hello["pageCount"] != float64(1) {
		t.Errorf("pageCount = %v, want 1", hello["pageCount"])
	}
	if hist, ok := hello["history"].([]any); !ok || len(hist) != 0 {
		t.Errorf("history = %v, want empty array", hello["history"])
	}
	// The frame carries exactly type, pageCount and history.
	if len(hello) != 3 {
		t.Errorf("hello has extra fields: %v", hello)
	}
}

func TestJoin_ReplaysExistingHistory(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")

	s.HandleMessage("main", alice, stroke(0.1, 0.1))
	s.HandleMessage("main", alice, stroke(0.2, 0.2))
	s.HandleMessage("main", alice, map[string]any{"type": "pageinfo", "count": float64(3)})

	bob := join(t, s, "main", "bob")
	hello := bob.frame(t, 0)
	if hello["pageCount"] != float64(3) {
		t.Errorf("pageCount = %v, want 3", hello["pageCount"])
	}
	hist, ok := hello["history"].([]any)
	if !ok || len(hist) != 3 {
		t.Fatalf("history = %v, want 3 events", hello["history"])
	}
	first, ok := hist[0].(map[string]any)
	if !ok || first["type"] != "seg" || first["room"] != "main" {
		t.Errorf("first replayed event = %v", hist[0])
	}
	// Replay order is append order.
	last, _ := hist[2].(map[string]any)
	if last["type"] != "pageinfo" || last["count"] != float64(3) {
		t.Errorf("last replayed event = %v", hist[2])
	}
}

func TestHandleMessage_StrokeFanOut(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")
	carol := join(t, s, "main", "carol")
	outsider := join(t, s, "other", "dave")

	s.HandleMessage("main", alice, stroke(0.5, 0.5))

	// The author already drew the stroke locally and gets no echo.
	if alice.frameCount() != 1 {
		t.Errorf("alice frames = %d, want 1 (hello only)", alice.frameCount())
	}
	// Same-room peers each get exactly the event.
	for _, peer := range []*fakeConn{bob, carol} {
		if peer.frameCount() != 2 {
			t.Fatalf("%s frames = %d, want 2", peer.id, peer.frameCount())
		}
		ev := peer.frame(t, 1)
		if ev["type"] != "seg" || ev["from"] != "tester" || ev["room"] != "main" {
			t.Errorf("%s got %v", peer.id, ev)
		}
		if ev["ts"] == nil || ev["ts"] == float64(0) {
			t.Errorf("%s: event missing server timestamp: %v", peer.id, ev)
		}
	}
	// Other rooms hear nothing.
	if outsider.frameCount() != 1 {
		t.Errorf("outsider frames = %d, want 1 (hello only)", outsider.frameCount())
	}
}

func TestHandleMessage_NormalizesJunkStroke(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")

	s.HandleMessage("main", alice, map[string]any{
		"type":  "seg",
		"tool":  "chainsaw",
		"size":  float64(9000),
		"color": float64(42),
		"page":  float64(-3),
		"a":     map[string]any{"x": 1.7, "y": -0.3},
	})

	ev := bob.frame(t, 1)
	if ev["tool"] != domain.ToolPen {
		t.Errorf("tool = %v, want pen", ev["tool"])
	}
	if ev["size"] != float64(domain.MaxStrokeSize) {
		t.Errorf("size = %v, want %d", ev["size"], domain.MaxStrokeSize)
	}
	if ev["color"] != domain.DefaultColor {
		t.Errorf("color = %v, want default", ev["color"])
	}
	if ev["page"] != float64(0) {
		t.Errorf("page = %v, want 0", ev["page"])
	}
	a, _ := ev["a"].(map[string]any)
	if a["x"] != float64(1) || a["y"] != float64(0) {
		t.Errorf("a = %v, want clamped to unit square", ev["a"])
	}
}

func TestHandleMessage_PageInfo(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")

	s.HandleMessage("main", alice, map[string]any{"type": "pageinfo", "count": float64(4)})

	// Page-count changes echo to the author too.
	for _, peer := range []*fakeConn{alice, bob} {
		if peer.frameCount() != 2 {
			t.Fatalf("%s frames = %d, want 2", peer.id, peer.frameCount())
		}
		ev := peer.frame(t, 1)
		if ev["type"] != "pageinfo" || ev["count"] != float64(4) {
			t.Errorf("%s got %v", peer.id, ev)
		}
		// The pageinfo variant carries no stroke fields.
		if _, present := ev["tool"]; present {
			t.Errorf("%s: pageinfo carries stroke fields: %v", peer.id, ev)
		}
	}

	// A count that does not raise the page count is dropped silently.
	s.HandleMessage("main", bob, map[string]any{"type": "pageinfo", "count": float64(4)})
	s.HandleMessage("main", bob, map[string]any{"type": "pageinfo", "count": float64(2)})
	if alice.frameCount() != 2 || bob.frameCount() != 2 {
		t.Errorf("stale pageinfo was broadcast: alice=%d bob=%d",
			alice.frameCount(), bob.frameCount())
	}
}

func TestHandleMessage_RejectsBadMessages(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")

	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"unknown type", map[string]any{"type": "chat", "text": "hi"}},
		{"missing type", map[string]any{"from": "alice"}},
		{"room mismatch", map[string]any{"type": "seg", "room": "other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.HandleMessage("main", alice, tt.raw)
			if bob.frameCount() != 1 {
				t.Fatalf("rejected message was broadcast: %v", bob.frame(t, 1))
			}
		})
	}

	// Nothing was appended either.
	carol := join(t, s, "main", "carol")
	if hist, _ := carol.frame(t, 0)["history"].([]any); len(hist) != 0 {
		t.Fatalf("rejected messages reached the log: %v", hist)
	}
}

func TestHandleMessage_AbsentRoomBindsToConnection(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "atelier", "alice")
	bob := join(t, s, "atelier", "bob")

	s.HandleMessage("atelier", alice, stroke(0.3, 0.3)) // no "room" key

	ev := bob.frame(t, 1)
	if ev["room"] != "atelier" {
		t.Fatalf("room = %v, want atelier", ev["room"])
	}
}

func TestHandleMessage_DropsSlowPeerAlone(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")
	slow := join(t, s, "main", "slow")
	slow.full = true

	s.HandleMessage("main", alice, stroke(0.1, 0.1))

	if !slow.kicked {
		t.Fatal("stalled peer was not kicked")
	}
	if bob.frameCount() != 2 {
		t.Fatalf("bob frames = %d, want 2 (healthy peer disturbed)", bob.frameCount())
	}

	// The dropped peer is out of the room; later traffic skips it.
	slow.full = false
	s.HandleMessage("main", bob, stroke(0.2, 0.2))
	if slow.frameCount() != 1 {
		t.Fatalf("dropped peer still receives frames: %d", slow.frameCount())
	}
	if alice.frameCount() != 2 {
		t.Fatalf("alice frames = %d, want 2", alice.frameCount())
	}
}

func TestLeave_StopsDelivery(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")

	s.Leave("main", bob)
	s.Leave("main", bob) // idempotent

	s.HandleMessage("main", alice, stroke(0.1, 0.1))
	if bob.frameCount() != 1 {
		t.Fatalf("bob frames = %d, want 1 (received after leave)", bob.frameCount())
	}
}

func TestTimestamps_NonDecreasingAcrossSenders(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "main", "alice")
	bob := join(t, s, "main", "bob")

	for i := 0; i < 10; i++ {
		s.HandleMessage("main", alice, stroke(0.1, 0.1))
		s.HandleMessage("main", bob, stroke(0.2, 0.2))
	}

	carol := join(t, s, "main", "carol")
	hist, _ := carol.frame(t, 0)["history"].([]any)
	if len(hist) != 20 {
		t.Fatalf("history length = %d, want 20", len(hist))
	}
	var last float64
	for i, h := range hist {
		ev, _ := h.(map[string]any)
		ts, _ := ev["ts"].(float64)
		if ts < last {
			t.Fatalf("event %d: ts %v < previous %v", i, ts, last)
		}
		last = ts
	}
}

func TestRooms_Summary(t *testing.T) {
	s := newTestService(t)
	alice := join(t, s, "a", "alice")
	join(t, s, "b", "bob")
	s.HandleMessage("a", alice, stroke(0.1, 0.1))

	rooms := s.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("len(Rooms) = %d, want 2", len(rooms))
	}
	if rooms[0].ID != "a" || rooms[1].ID != "b" {
		t.Fatalf("Rooms order = %v, want sorted by id", rooms)
	}
	if rooms[0].Events != 1 || rooms[0].Peers != 1 {
		t.Errorf("room a = %+v", rooms[0])
	}
	if rooms[0].SavedAt == 0 {
		t.Errorf("room a never saved: %+v", rooms[0])
	}
}

func TestSave(t *testing.T) {
	s := newTestService(t)

	if err := s.Save("ghost"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("Save(ghost) = %v, want ErrRoomNotFound", err)
	}

	alice := join(t, s, "main", "alice")
	s.HandleMessage("main", alice, stroke(0.1, 0.1))
	if err := s.Save("main"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rooms := s.Rooms(); rooms[0].SavedAt == 0 {
		t.Fatal("Save did not stamp SavedAt")
	}
}
