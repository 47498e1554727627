package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal caps stream viewers across all IPs
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps stream viewers per IP
	MaxWSConnectionsPerIP = 10

	maxWSMessageBytes = 4096

	// A viewer that cannot take a frame within writeWait is dropped
	writeWait  = 2 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ Stream viewer rejected from origin: %q", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// ClientCommand is a message a viewer may send over the socket.
type ClientCommand struct {
	// Scene switches the shared stream to another built-in scene.
	Scene string `json:"scene,omitempty"`
}

type viewer struct {
	conn        *websocket.Conn
	ip          string
	connectedAt time.Time
	delivered   uint64 // messages written; owned by Run
}

// WebSocketHub fans encoded frames out to stream viewers. Run is the only
// goroutine that writes data messages.
type WebSocketHub struct {
	viewers    map[*websocket.Conn]*viewer
	broadcast  chan []byte
	register   chan *viewer
	unregister chan *websocket.Conn
	stop       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	conns *ConnLimiter

	// onCommand handles decoded viewer commands; nil ignores them
	onCommand func(ClientCommand)
}

// NewWebSocketHub creates an idle hub.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		viewers:    make(map[*websocket.Conn]*viewer),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *viewer),
		unregister: make(chan *websocket.Conn),
		stop:       make(chan struct{}),
		conns:      NewConnLimiter(MaxWSConnectionsPerIP),
	}
}

// OnCommand sets the command handler. Call before Run.
func (h *WebSocketHub) OnCommand(fn func(ClientCommand)) {
	h.onCommand = fn
}

// Run serves registrations and broadcasts until Stop.
func (h *WebSocketHub) Run() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-h.stop:
			h.closeAll()
			return

		case v := <-h.register:
			h.mu.Lock()
			h.viewers[v.conn] = v
			count := len(h.viewers)
			h.mu.Unlock()

			log.Printf("📱 Viewer connected from %s (%d watching)", v.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			v, ok := h.viewers[conn]
			h.remove(conn)
			count := len(h.viewers)
			h.mu.Unlock()

			if ok {
				log.Printf("📱 Viewer %s left after %v, %d messages (%d watching)",
					v.ip, time.Since(v.connectedAt).Round(time.Second), v.delivered, count)
			}
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.writeAll(func(v *viewer) error {
				v.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := v.conn.WriteMessage(websocket.TextMessage, message); err != nil {
					return err
				}
				v.delivered++
				return nil
			})
			IncrementWSMessages()

		case <-ping.C:
			h.writeAll(func(v *viewer) error {
				return v.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			})
		}
	}
}

// writeAll applies write to every viewer and drops those that fail.
func (h *WebSocketHub) writeAll(write func(*viewer) error) {
	h.mu.RLock()
	var failed []*websocket.Conn
	for conn, v := range h.viewers {
		if err := write(v); err != nil {
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	if len(failed) == 0 {
		return
	}
	h.mu.Lock()
	for _, conn := range failed {
		h.remove(conn)
	}
	count := len(h.viewers)
	h.mu.Unlock()

	log.Printf("⚠️ Dropped %d slow viewers (%d watching)", len(failed), count)
	UpdateWSConnections(count)
}

// remove drops conn and releases its IP slot. Caller holds h.mu.
func (h *WebSocketHub) remove(conn *websocket.Conn) {
	if v, ok := h.viewers[conn]; ok {
		h.conns.Release(v.ip)
		delete(h.viewers, conn)
		conn.Close()
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.viewers {
		h.remove(conn)
	}
	UpdateWSConnections(0)
}

// Stop closes every connection and ends Run.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// Broadcast sends {"event": event, "data": data} to every viewer.
func (h *WebSocketHub) Broadcast(event string, data any) {
	msg, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		log.Printf("⚠️ Broadcast %s: %v", event, err)
		return
	}
	h.send(msg)
}

// BroadcastRaw sends an already encoded message. message is copied, so the
// caller may reuse it.
func (h *WebSocketHub) BroadcastRaw(message []byte) {
	h.send(append([]byte(nil), message...))
}

// send never blocks; a full queue drops the message.
func (h *WebSocketHub) send(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}

// ClientCount returns the number of connected viewers.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// RejectedCount returns viewers refused by the per-IP cap.
func (h *WebSocketHub) RejectedCount() uint64 {
	return h.conns.Rejected()
}

// HandleWebSocket upgrades a viewer and reads its commands until it leaves.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ Stream viewer rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.conns.Acquire(ip) {
		log.Printf("⚠️ Stream viewer rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.conns.Release(ip)
		return
	}
	conn.SetReadLimit(maxWSMessageBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	select {
	case h.register <- &viewer{conn: conn, ip: ip, connectedAt: time.Now()}:
	case <-h.stop:
		h.conns.Release(ip)
		conn.Close()
		return
	}

	go h.readCommands(conn)
}

func (h *WebSocketHub) readCommands(conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}
		if h.onCommand != nil {
			h.onCommand(cmd)
		}
	}
}
