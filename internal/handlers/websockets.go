package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"camerahub/internal/logger"
	"camerahub/internal/services"
)

const (
	// pongWait is how long a viewer may stay silent before the connection
	// is considered dead. Pings go out at pingPeriod so a healthy browser
	// always answers within the window.
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler upgrades viewer connections and registers them with
// the hub.
func ViewWebsocketHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		serveViewer(manager, connection, pongWait)
	}
}

// serveViewer keeps a viewer connection alive with periodic pings and
// unregisters it when the read loop fails. Viewers never send data, so the
// read deadline is only ever extended by their pong replies.
func serveViewer(manager *services.Manager, connection *websocket.Conn, wait time.Duration) {
	connection.SetReadLimit(maxMessageSize)
	connection.SetReadDeadline(time.Now().Add(wait))
	connection.SetPongHandler(func(appData string) error {
		connection.SetReadDeadline(time.Now().Add(wait))
		return nil
	})

	hub := manager.GetHub()
	hub.Register(connection)

	done := make(chan struct{})
	go pingLoop(connection, wait*9/10, done)

	// The read loop only exists to process control frames and detect
	// disconnects.
	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			break
		}
	}
	close(done)
	hub.Unregister(connection)
}

// pingLoop writes a ping every period until done is closed or a write
// fails. WriteControl is safe to call concurrently with the hub's frame
// writes.
func pingLoop(connection *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
