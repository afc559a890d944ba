package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inkroom-io/inkroom-go/internal/core/service"
	"github.com/inkroom-io/inkroom-go/internal/storage"
	"github.com/inkroom-io/inkroom-go/internal/storage/snapshot"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
)

// nopConn joins rooms in tests without a real socket.
type nopConn struct{ id string }

func (c *nopConn) ClientID() string { return c.id }
func (c *nopConn) Send([]byte) bool { return true }
func (c *nopConn) Kick()            {}

func newTestRouter(t *testing.T, staticDir string, rateLimit int) (http.Handler, *service.RoomService) {
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

	met := metric.New()
	svc := service.NewRoomService(service.Config{Engine: engine, Metrics: met})
	log, _ := logger.New(logger.Config{Level: "error"})

	router := NewRouter(&RouterConfig{
		RoomService: svc,
		WSHandler:   http.NotFoundHandler(),
		Metrics:     met,
		Logger:      log,
		StaticDir:   staticDir,
		RateLimit:   rateLimit,
	})
	return router, svc
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, "", 0)

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
		if body := rec.Body.String(); body != "ok" {
			t.Errorf("GET %s body = %q, want %q", path, body, "ok")
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t, "", 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "inkroom_rooms_resident") {
		t.Error("metrics output is missing inkroom series")
	}
}

func TestRouter_AdminRooms(t *testing.T) {
	router, svc := newTestRouter(t, "", 0)

	conn := &nopConn{id: "alice"}
	if err := svc.Join("atelier", conn); err != nil {
		t.Fatalf("Join: %v", err)
	}
	svc.HandleMessage("atelier", conn, map[string]any{
		"type": "seg",
		"a":    map[string]any{"x": 0.1, "y": 0.1},
		"b":    map[string]any{"x": 0.2, "y": 0.2},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/v1/rooms", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/v1/rooms = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Code string `json:"code"`
		Data struct {
			Rooms []service.RoomInfo `json:"rooms"`
			Total int                `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "OK" || resp.Data.Total != 1 {
		t.Fatalf("response = %+v", resp)
	}
	room := resp.Data.Rooms[0]
	if room.ID != "atelier" || room.Events != 1 || room.Peers != 1 {
		t.Fatalf("room = %+v", room)
	}
}

func TestRouter_AdminSave(t *testing.T) {
	router, svc := newTestRouter(t, "", 0)

	// Unknown room is a 404 with the room error code.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/v1/rooms/ghost/save", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("save ghost = %d, want 404", rec.Code)
	}
	if code := rec.Header().Get("X-Error-Code"); code != "IR-ROOM-4040" {
		t.Errorf("X-Error-Code = %q", code)
	}

	if err := svc.Join("atelier", &nopConn{id: "alice"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/v1/rooms/atelier/save", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("save atelier = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_StaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas>"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	router, _ := newTestRouter(t, dir, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<canvas>") {
		t.Fatalf("GET / = %d, body %q", rec.Code, rec.Body.String())
	}

	// Without a static dir the root is a 404, not a panic.
	bare, _ := newTestRouter(t, "", 0)
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET / without static dir = %d, want 404", rec.Code)
	}
}
