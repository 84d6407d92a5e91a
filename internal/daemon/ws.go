package daemon

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"aerial/internal/api"
	"aerial/internal/logging"
)

var taskFeedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The daemon binds to loopback; the UI connects from file:// or a
	// local dev server, so origin checking buys nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	taskFeedWriteWait    = 10 * time.Second
	taskFeedPingInterval = 30 * time.Second
)

// handleTaskFeed streams task updates to a websocket client until it
// disconnects or the daemon shuts down.
func (s *apiServer) handleTaskFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := taskFeedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := s.daemon.hub.Subscribe()
	defer cancel()

	// Drain client frames so close messages are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(taskFeedPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case task, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(taskFeedWriteWait))
			if err := conn.WriteJSON(api.FromTask(&task)); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(taskFeedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
