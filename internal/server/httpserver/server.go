// Package httpserver provides the HTTP server for inkroom.
//
// It carries the WebSocket sync endpoint, the health and metrics
// endpoints, the admin API, and the optional static client bundle.
package httpserver

import (
	"context"
	"net"
	"net/http"
)

// Server wraps the standard library HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
		handler: handler,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Listen binds the configured address without serving yet, so a bind
// failure can be reported before startup is declared successful.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.httpServer.Addr)
}

// Serve serves on a listener obtained from Listen.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server. In-flight requests get
// until ctx expires; WebSocket connections are closed by the listener
// going away.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
