package httpserver

import (
	"net/http"

	"github.com/inkroom-io/inkroom-go/internal/core/service"
	"github.com/inkroom-io/inkroom-go/internal/server/httpserver/handler"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// RoomService backs the admin API.
	RoomService *service.RoomService

	// WSHandler is the WebSocket sync endpoint, mounted at /ws.
	WSHandler http.Handler

	// Metrics serves GET /metrics.
	Metrics *metric.Metrics

	// Logger for request logging.
	Logger logger.Logger

	// StaticDir optionally serves a client bundle at /. Empty disables it.
	StaticDir string

	// RateLimit is the per-IP request limit in requests/second for the
	// plain HTTP surface. Zero disables it. The WebSocket endpoint is
	// exempt: one upgrade carries a whole session.
	RateLimit int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.RoomService, cfg.Logger)

	// Probes stay cheap: no logging, no rate limit.
	probeChain := []Middleware{RequestID(), Recover(cfg.Logger)}

	httpChain := []Middleware{RequestID(), Recover(cfg.Logger), CORS()}
	if cfg.RateLimit > 0 {
		httpChain = append(httpChain, RateLimit(cfg.RateLimit))
	}
	httpChain = append(httpChain, RequestLog(cfg.Logger))

	mux := http.NewServeMux()

	mux.Handle("GET /health", Chain(h, probeChain...))
	mux.Handle("GET /ready", Chain(h, probeChain...))
	mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), probeChain...))

	mux.Handle("GET /ws", Chain(cfg.WSHandler, RequestID(), Recover(cfg.Logger)))

	mux.Handle("GET /admin/v1/rooms", Chain(h, httpChain...))
	mux.Handle("POST /admin/v1/rooms/{room}/save", Chain(h, httpChain...))

	if cfg.StaticDir != "" {
		static := http.FileServer(http.Dir(cfg.StaticDir))
		mux.Handle("/", Chain(static, httpChain...))
	}

	return mux
}
