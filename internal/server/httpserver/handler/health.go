package handler

import (
	"net/http"
)

// handleHealth handles GET /health. The body is the literal "ok" for
// probes that string-match.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReady handles GET /ready. The server has no warm-up phase, so
// readiness and liveness coincide.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.handleHealth(w, r)
}
