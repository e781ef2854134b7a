package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/payperplay/profiles/internal/events"
	"github.com/payperplay/profiles/internal/monitoring"
	"github.com/payperplay/profiles/internal/service"
	"github.com/payperplay/profiles/pkg/logger"
)

const (
	watchWriteWait  = 10 * time.Second
	watchPongWait   = 60 * time.Second
	watchPingPeriod = 30 * time.Second
	watchSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchMessage is sent to editors watching a project's profile
type WatchMessage struct {
	Type      string                 `json:"type"`
	ProjectID string                 `json:"project_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type watchClient struct {
	conn      *websocket.Conn
	projectID string
	send      chan WatchMessage
}

// ProfileWatchHub tells open editors when a project's profile was saved, so
// they can reopen before their own save overwrites it.
type ProfileWatchHub struct {
	profileService *service.ProfileService

	clients      map[*watchClient]bool
	clientsMutex sync.RWMutex
	broadcast    chan WatchMessage
	register     chan *watchClient
	unregister   chan *watchClient
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewProfileWatchHub creates a hub fed by profile.saved events on bus
func NewProfileWatchHub(profileService *service.ProfileService, bus *events.EventBus) *ProfileWatchHub {
	hub := &ProfileWatchHub{
		profileService: profileService,
		clients:        make(map[*watchClient]bool),
		broadcast:      make(chan WatchMessage, 256),
		register:       make(chan *watchClient),
		unregister:     make(chan *watchClient),
		shutdownChan:   make(chan struct{}),
	}
	bus.Subscribe(events.EventProfileSaved, hub.onProfileSaved)
	return hub
}

// Run dispatches registrations and broadcasts until Shutdown (run in goroutine)
func (h *ProfileWatchHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.clientsMutex.Unlock()
			monitoring.WatchClients.Set(float64(total))

			logger.Debug("ProfileWatch: client connected", map[string]interface{}{
				"project_id":    client.projectID,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.clientsMutex.Unlock()
			monitoring.WatchClients.Set(float64(total))

		case msg := <-h.broadcast:
			h.clientsMutex.RLock()
			for client := range h.clients {
				if client.projectID != msg.ProjectID {
					continue
				}
				select {
				case client.send <- msg:
				default:
					// slow reader; its writer notices the closed conn and unregisters
					client.conn.Close()
				}
			}
			h.clientsMutex.RUnlock()

		case <-h.shutdownChan:
			h.clientsMutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMutex.Unlock()
			monitoring.WatchClients.Set(0)
			return
		}
	}
}

// ClientCount returns the number of connected watchers
func (h *ProfileWatchHub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Publish queues msg for every watcher of msg.ProjectID. It never blocks.
func (h *ProfileWatchHub) Publish(msg WatchMessage) {
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("ProfileWatch: broadcast channel full, dropping message", map[string]interface{}{
			"project_id": msg.ProjectID,
			"type":       msg.Type,
		})
	}
}

func (h *ProfileWatchHub) onProfileSaved(event events.Event) {
	h.Publish(WatchMessage{
		Type:      string(event.Type),
		ProjectID: event.ProjectID,
		Timestamp: event.Timestamp,
		Data:      event.Data,
	})
}

// HandleConnection handles GET /api/projects/:id/profile/watch
func (h *ProfileWatchHub) HandleConnection(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := h.profileService.FetchProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Info("ProfileWatch: failed to upgrade connection", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := &watchClient{
		conn:      conn,
		projectID: projectID,
		send:      make(chan WatchMessage, watchSendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.shutdownChan:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump drains client frames so pong handling works; it ends the
// connection on the first read error
func (h *ProfileWatchHub) readPump(client *watchClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.shutdownChan:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(watchPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(watchPongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Info("ProfileWatch: unexpected close", map[string]interface{}{
					"project_id": client.projectID,
					"error":      err.Error(),
				})
			}
			return
		}
	}
}

// writePump is the only goroutine writing to the connection
func (h *ProfileWatchHub) writePump(client *watchClient) {
	ticker := time.NewTicker(watchPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown disconnects all watchers and stops Run
func (h *ProfileWatchHub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdownChan)
	})
}
