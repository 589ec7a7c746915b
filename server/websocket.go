// SPDX-License-Identifier: EPL-2.0

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	subBuffer     = 16
)

// handleWebSocket streams every new reading as a JSON text message,
// starting with the current one.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Added before the hijack so Serve's Wait always sees it.
	s.wg.Add(1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.wg.Done()
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	go func() {
		defer s.wg.Done()
		s.streamReadings(conn, r.RemoteAddr)
	}()
}

func (s *Server) streamReadings(conn *websocket.Conn, remote string) {
	defer conn.Close()

	readings, cancel := s.deps.Session.Subscribe(subBuffer)
	defer cancel()

	log := s.log.With().Str("remote", remote).Logger()
	log.Debug().Msg("websocket client connected")
	defer log.Debug().Msg("websocket client disconnected")

	// The reader only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.writeReading(conn, s.deps.Session.Current()); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case reading, ok := <-readings:
			if !ok {
				s.closeConn(conn, websocket.CloseGoingAway, "session closed")
				return
			}
			if err := s.writeReading(conn, reading); err != nil {
				log.Debug().Err(err).Msg("websocket write")
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}

		case <-gone:
			return

		case <-s.done:
			s.closeConn(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

func (s *Server) writeReading(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeDeadline))
}
