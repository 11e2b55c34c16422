package ws

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one live websocket connection. Writes go through a buffered
// queue drained by a single write loop; reads happen only on the router's
// per-session read loop, so the connection never sees concurrent readers or
// writers.
type Session struct {
	ID string

	conn      *websocket.Conn
	sendQueue chan []byte
	done      chan struct{}
	closed    atomic.Int32
	log       *zap.Logger
}

func NewSession(id string, conn *websocket.Conn, queueSize int, log *zap.Logger) *Session {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Session{
		ID:        id,
		conn:      conn,
		sendQueue: make(chan []byte, queueSize),
		done:      make(chan struct{}),
		log:       log,
	}
}

func (s *Session) Start() {
	go s.writeLoop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send marshals and enqueues an event without blocking the caller. A full
// queue means the client cannot keep up; the session is dropped rather than
// stalling every other sender.
func (s *Session) Send(event string, data interface{}) bool {
	if s.closed.Load() == 1 {
		return false
	}

	payload, err := encode(event, data)
	if err != nil {
		s.log.Error("session: encode failed", zap.String("session_id", s.ID), zap.String("event", event), zap.Error(err))
		return false
	}

	select {
	case s.sendQueue <- payload:
		return true
	default:
		s.log.Warn("session: backpressure overflow, dropping connection", zap.String("session_id", s.ID))
		s.CloseWithReason(websocket.CloseInternalServerErr, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseNormalClosure, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}

	close(s.done)

	if s.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		s.conn.Close()
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg := <-s.sendQueue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Error("session: write error", zap.String("session_id", s.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
