package wsserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inkroom-io/inkroom-go/internal/core/service"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/logger"
	"github.com/inkroom-io/inkroom-go/internal/telemetry/metric"
)

const (
	// writeWait is how long a single frame write may take.
	writeWait = 10 * time.Second

	// pongWait is how long the peer has to answer a ping.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames. Drawing events are tiny;
	// anything near this limit is not a drawing event.
	maxMessageSize = 64 * 1024
)

// session is one WebSocket connection attached to a room.
//
// session implements service.Conn. Send enqueues onto the buffered
// send channel without blocking; the write pump owns all writes to the
// socket.
type session struct {
	id       string
	clientID string
	roomID   string

	conn *websocket.Conn
	svc  *service.RoomService
	log  logger.Logger
	met  *metric.Metrics

	send chan []byte

	closeOnce sync.Once
}

func (s *session) ClientID() string { return s.clientID }

// Send enqueues a frame for the write pump. It reports false when the
// queue is full, which the room service treats as a stalled peer.
func (s *session) Send(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Kick force-closes the socket. Both pumps unwind from the resulting
// read and write errors, and the read pump's teardown detaches the
// session from its room.
func (s *session) Kick() {
	s.closeOnce.Do(func() { s.conn.Close() })
}

// readPump decodes inbound frames and hands them to the room service.
// It runs on the connection's handler goroutine and owns teardown.
func (s *session) readPump() {
	defer func() {
		s.svc.Leave(s.roomID, s)
		s.Kick()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("read error", "conn", s.id, "error", err)
			}
			return
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			// A malformed frame is dropped, not fatal to the socket.
			s.met.EventsRejected.WithLabelValues(metric.ReasonBadPayload).Inc()
			s.log.Debug("undecodable frame dropped", "conn", s.id, "error", err)
			continue
		}
		s.svc.HandleMessage(s.roomID, s, raw)
	}
}

// writePump drains the send queue to the socket and keeps the
// connection alive with pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Kick()
	}()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
