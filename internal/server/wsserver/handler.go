package wsserver

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/inkroom-io/inkroom-go/internal/core/service"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
	"github.com/inkroom-io/inkroom-go/pkg/token"
)

// DefaultRoom is the room a connection joins when it names none.
const DefaultRoom = "main"

// upgrader accepts any origin. Rooms are open: the room id is the only
// admission control this server has.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler upgrades HTTP requests to sync sessions.
type Handler struct {
	svc        *service.RoomService
	log        logger.Logger
	met        *metric.Metrics
	sendBuffer int
}

// Config configures the WebSocket handler.
type Config struct {
	Service *service.RoomService
	Logger  logger.Logger
	Metrics *metric.Metrics

	// SendBuffer is the per-session outbound queue length.
	SendBuffer int
}

// NewHandler creates the WebSocket endpoint handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.New()
	}
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = 256
	}
	return &Handler{
		svc:        cfg.Service,
		log:        cfg.Logger.With("component", "ws"),
		met:        cfg.Metrics,
		sendBuffer: cfg.SendBuffer,
	}
}

// ServeHTTP upgrades the request and attaches the session to its room.
//
// The room comes from the "room" query parameter, defaulting to
// DefaultRoom. The client id comes from "client"; a connection that
// declares none gets a random one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}
	clientID := r.URL.Query().Get("client")
	if clientID == "" {
		generated, err := token.Generate()
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		clientID = generated
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := &session{
		id:       ulid.Make().String(),
		clientID: clientID,
		roomID:   roomID,
		conn:     conn,
		svc:      h.svc,
		log:      h.log,
		met:      h.met,
		send:     make(chan []byte, h.sendBuffer),
	}

	// Start the write pump before Join so the replay frame has a
	// consumer even if it is large.
	go sess.writePump()

	if err := h.svc.Join(roomID, sess); err != nil {
		h.log.Error("join failed", "room", roomID, "client", clientID, "error", err)
		sess.Kick()
		return
	}
	go sess.readPump()
}
