package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/inkroom-io/inkroom-go/internal/core/domain"
	"github.com/inkroom-io/inkroom-go/internal/core/service"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
)

// Handler routes HTTP requests to the room service.
type Handler struct {
	rooms *service.RoomService
	log   logger.Logger
	mux   *http.ServeMux
}

// New creates a new Handler over the room service.
func New(rooms *service.RoomService, log logger.Logger) *Handler {
	h := &Handler{
		rooms: rooms,
		log:   log,
		mux:   http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /admin/v1/rooms", h.handleListRooms)
	h.mux.HandleFunc("POST /admin/v1/rooms/{room}/save", h.handleSaveRoom)
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	response := NewErrorResponse(getRequestID(r), code, message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error())
		return
	}
	h.log.Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "IR-SYS-5000", "internal server error")
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// getRequestID extracts the request ID set by the middleware.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
