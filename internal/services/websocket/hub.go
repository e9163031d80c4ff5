package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"camerahub/internal/logger"
)

// FrameMessage is the payload sent to browser viewers for each frame.
type FrameMessage struct {
	Camera string `json:"camera"`
	Image  string `json:"image"` // base64-encoded JPEG
}

// HubService fans annotated frames out to all connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(log *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", h.GetClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", h.GetClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending frame to viewer: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// BroadcastFrame sends a frame message to every viewer. Frames are dropped
// when the broadcast channel is full so the capture loop never stalls.
func (h *HubService) BroadcastFrame(msg FrameMessage) {
	if h.GetClientCount() == 0 {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error encoding frame message: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
