package metric

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_CountersAccumulate(t *testing.T) {
	m := New()

	m.ConnectionsOpen.Inc()
	m.ConnectionsOpen.Inc()
	m.ConnectionsOpen.Dec()
	if got := testutil.ToFloat64(m.ConnectionsOpen); got != 1 {
		t.Fatalf("ConnectionsOpen = %v, want 1", got)
	}

	m.EventsAccepted.WithLabelValues("seg").Add(3)
	if got := testutil.ToFloat64(m.EventsAccepted.WithLabelValues("seg")); got != 3 {
		t.Fatalf("EventsAccepted[seg] = %v, want 3", got)
	}
}

func TestHandler_ServesRegistry(t *testing.T) {
	m := New()
	m.SnapshotSaves.Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "inkroom_snapshot_saves_total 1") {
		t.Fatalf("metrics output missing snapshot counter:\n%s", body)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	a.Broadcasts.Inc()
	if got := testutil.ToFloat64(b.Broadcasts); got != 0 {
		t.Fatalf("second registry Broadcasts = %v, want 0", got)
	}
}
