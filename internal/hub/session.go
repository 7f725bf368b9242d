package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Session is one live subscriber connection. The hub owns registration; the
// session owns its two pumps and its outbound buffer.
type Session struct {
	id   string
	role Role
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// close shuts the outbound channel exactly once. The write pump observes the
// closed channel, sends a close frame and tears down the connection.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// trySend enqueues without blocking; false means the subscriber cannot keep
// up and must be dropped rather than buffered unboundedly.
func (s *Session) trySend(data []byte) (ok bool) {
	defer func() {
		// Send on a closed channel means the session lost a race with
		// its own teardown; treat as not writable.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// readPump consumes inbound frames and hands them to the hub until the
// connection errors or closes. Runs on the connection's goroutine.
func (s *Session) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.conn.Close()
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
			return
		}
		s.hub.handleMessage(s, data)
	}
}

// writePump drains the outbound buffer and keeps the connection alive with
// periodic pings. A subscriber that never answers a ping misses its read
// deadline and is reaped by readPump.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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
