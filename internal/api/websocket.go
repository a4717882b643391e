package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"fight-core/internal/command"
	"fight-core/internal/match"
	"fight-core/internal/moves"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 200

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// MaxWSMessageSize bounds one inbound message
	MaxWSMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Non-browser clients (bots, training tools) send no origin
		if origin == "" || IsAllowedOrigin(origin) {
			return true
		}

		// Log rejected origin for security monitoring
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn       *websocket.Conn
	ip         string
	canControl bool
}

// WebSocketHub manages all WebSocket connections with DoS protection
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	seq        atomic.Uint64

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter

	inputs *RemoteInput
	auth   *ControlAuth
}

// NewWebSocketHub creates a new hub with connection limiting. inputs may be
// nil, in which case inbound control messages are ignored.
func NewWebSocketHub(inputs *RemoteInput, auth *ControlAuth) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		inputs:     inputs,
		auth:       auth,
	}
}

// Run starts the hub
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.wsLimiter.Release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				// Release the connection slot for this IP
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.wsLimiter.Release(client.ip)
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
			IncrementWSMessages()
		}
	}
}

// Stop closes every connection and ends Run
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// encodeEnvelope wraps a payload as {"event","seq","ts","data"}
func (h *WebSocketHub) encodeEnvelope(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg, err := sjson.SetBytes([]byte(`{}`), "event", event)
	if err != nil {
		return nil, err
	}
	if msg, err = sjson.SetBytes(msg, "seq", h.seq.Add(1)); err != nil {
		return nil, err
	}
	if msg, err = sjson.SetBytes(msg, "ts", time.Now().UnixMilli()); err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(msg, "data", raw)
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg, err := h.encodeEnvelope(event, data)
	if err != nil {
		log.Printf("⚠️ WebSocket encode %s: %v", event, err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the match snapshot every interval while clients
// are connected. Unchanged snapshots are not resent.
func (h *WebSocketHub) StartBroadcastLoop(engine EngineInterface, every time.Duration) {
	if every <= 0 {
		every = 100 * time.Millisecond
	}
	ticker := time.NewTicker(every)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
			}

			UpdateEventLogStats(engine.GetEventLogStats())
			if h.ClientCount() == 0 {
				continue
			}

			snap := engine.GetSnapshot()
			if snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			h.Broadcast("match:state", snap)
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := GetClientIP(r)

	// Check total connection limit
	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Control rights are decided once, at upgrade time
	canControl := h.inputs != nil && (h.auth == nil || h.auth.Check(r))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}
	conn.SetReadLimit(MaxWSMessageSize)

	client := &wsClient{conn: conn, ip: ip, canControl: canControl}
	select {
	case h.register <- client:
	case <-h.done:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	// Read messages (commands from client)
	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := h.handleClientMessage(client, message); err != nil {
				RecordInbound(false)
				continue
			}
			RecordInbound(true)
		}
	}()
}

// =============================================================================
// INBOUND MESSAGES
// =============================================================================

// clientMessage is a decoded inbound message
type clientMessage struct {
	Type     string
	Slot     match.Slot
	Commands command.FighterCommands
	Action   moves.ActionID
}

var errInvalidMessage = errors.New("api: invalid message")

// decodeClientMessage reads an inbound message without building a generic map:
//
//	{"type":"commands","slot":1,"commands":{"horizontal":1,"light":true}}
//	{"type":"action","slot":1,"action":"Super"}
//	{"type":"ping"}
func decodeClientMessage(data []byte) (clientMessage, error) {
	if !gjson.ValidBytes(data) {
		return clientMessage{}, errInvalidMessage
	}
	root := gjson.ParseBytes(data)

	msg := clientMessage{Type: root.Get("type").String()}
	switch msg.Type {
	case "ping":
		return msg, nil

	case "commands":
		c := root.Get("commands")
		if !c.IsObject() {
			return msg, fmt.Errorf("%w: commands must be an object", errInvalidMessage)
		}
		msg.Commands = command.FighterCommands{
			Horizontal: max(-1, min(1, c.Get("horizontal").Float())),
			Jump:       c.Get("jump").Bool(),
			Crouch:     c.Get("crouch").Bool(),
			Light:      c.Get("light").Bool(),
			Heavy:      c.Get("heavy").Bool(),
			Block:      c.Get("block").Bool(),
			Dodge:      c.Get("dodge").Bool(),
		}

	case "action":
		id, err := moves.ParseActionID(root.Get("action").String())
		if err != nil {
			return msg, err
		}
		msg.Action = id

	default:
		return msg, fmt.Errorf("%w: unknown type %q", errInvalidMessage, msg.Type)
	}

	msg.Slot = match.Slot(root.Get("slot").Int())
	if !msg.Slot.Valid() {
		return msg, match.ErrInvalidSlot
	}
	return msg, nil
}

func (h *WebSocketHub) handleClientMessage(client *wsClient, data []byte) error {
	msg, err := decodeClientMessage(data)
	if err != nil {
		return err
	}

	switch msg.Type {
	case "ping":
		reply, err := h.encodeEnvelope("pong", nil)
		if err != nil {
			return err
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		client.conn.SetWriteDeadline(time.Now().Add(time.Second))
		return client.conn.WriteMessage(websocket.TextMessage, reply)

	case "commands":
		if !client.canControl {
			return ErrSlotNotRemote
		}
		return h.inputs.SetCommands(msg.Slot, msg.Commands)

	case "action":
		if !client.canControl {
			return ErrSlotNotRemote
		}
		return h.inputs.RequestAction(msg.Slot, msg.Action)
	}
	return nil
}
