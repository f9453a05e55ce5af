package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fuelbot/internal/logging"
	"fuelbot/internal/notification"
)

const (
	// maxConnections caps concurrent websocket subscribers.
	maxConnections = 100
	// sendBuffer is how many run results may wait for a slow subscriber before it is dropped.
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscriber owns one connection. Only its writer goroutine writes to conn.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run results out to every connected websocket subscriber.
// Broadcast never blocks on the network.
type Hub struct {
	connections map[*websocket.Conn]*subscriber
	mutex       sync.Mutex
	logger      *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{connections: make(map[*websocket.Conn]*subscriber), logger: logger}
}

// AddConnection registers conn and starts its writer. It reports false when the hub is full.
func (m *Hub) AddConnection(conn *websocket.Conn) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.connections) >= maxConnections {
		m.logger.Warnf("Max websocket connections reached (%d)", maxConnections)
		return false
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	m.connections[conn] = sub
	go m.writeLoop(sub)
	m.logger.Infof("Added WebSocket connection (total: %d)", len(m.connections))
	return true
}

func (m *Hub) RemoveConnection(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.removeLocked(conn)
}

func (m *Hub) removeLocked(conn *websocket.Conn) {
	sub, exists := m.connections[conn]
	if !exists {
		return
	}
	delete(m.connections, conn)
	close(sub.send)
	m.logger.Infof("Removed WebSocket connection (remaining: %d)", len(m.connections))
}

// Len returns the number of connected subscribers.
func (m *Hub) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.connections)
}

// Broadcast queues message for all subscribers, dropping those whose queue is full.
func (m *Hub) Broadcast(message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for conn, sub := range m.connections {
		select {
		case sub.send <- message:
		default:
			m.logger.Warnf("WebSocket subscriber %s is not reading, dropping it", conn.RemoteAddr())
			m.removeLocked(conn)
		}
	}
}

// BroadcastRun publishes a completed run as JSON.
func (m *Hub) BroadcastRun(res notification.RunResult) {
	message, err := json.Marshal(res)
	if err != nil {
		m.logger.Errorf("Failed to encode run %s: %v", res.RunID, err)
		return
	}
	m.Broadcast(message)
}

func (m *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for message := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			m.logger.Errorf("Failed to send WebSocket message: %v", err)
			m.RemoveConnection(sub.conn)
			return
		}
	}
	_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// HandleWebSocket upgrades the request and keeps the subscriber until it disconnects.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	if !h.hub.AddConnection(conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many subscribers"))
		_ = conn.Close()
		return
	}
	defer h.hub.RemoveConnection(conn)

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
