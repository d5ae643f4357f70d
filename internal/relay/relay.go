// Package relay implements the live-update fan-out channel of the site. Any
// client holding an open websocket receives every update published by other
// clients or by the API itself.
package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope is the frame format delivered to subscribers.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const envelopeTypeUpdate = "update"

// Registry tracks the set of open connections. It is owned by the Relay and
// shared with handlers that need connection counts.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewRegistry initialises an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[*Client]struct{})}
}

// Add registers the client.
func (r *Registry) Add(client *Client) {
	r.mu.Lock()
	r.clients[client] = struct{}{}
	r.mu.Unlock()
}

// Remove deregisters the client. Removing an absent client is a no-op.
func (r *Registry) Remove(client *Client) {
	r.mu.Lock()
	delete(r.clients, client)
	r.mu.Unlock()
}

// Snapshot returns the currently registered clients.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// Len reports the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Config adjusts relay behaviour.
type Config struct {
	Logger *slog.Logger
	// ExcludeSender stops update frames from echoing back to the
	// connection that produced them. The default broadcasts to every open
	// connection, the sender included.
	ExcludeSender     bool
	HeartbeatInterval time.Duration
	SendBuffer        int
}

// Relay upgrades HTTP requests to websocket connections and broadcasts every
// decoded inbound payload to all registered connections.
type Relay struct {
	registry      *Registry
	upgrader      websocket.Upgrader
	logger        *slog.Logger
	excludeSender bool
	heartbeat     time.Duration
	sendBuffer    int
}

// New constructs a Relay around the provided registry.
func New(registry *Registry, cfg Config) *Relay {
	if registry == nil {
		registry = NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Relay{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:        logger,
		excludeSender: cfg.ExcludeSender,
		heartbeat:     heartbeat,
		sendBuffer:    sendBuffer,
	}
}

// Registry exposes the connection registry.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// ConnectionCount reports the number of open connections.
func (r *Relay) ConnectionCount() int {
	return r.registry.Len()
}

// HandleConnection upgrades the request and wires the connection into the
// broadcast set. It is invoked for any request carrying websocket upgrade
// headers, regardless of path.
func (r *Relay) HandleConnection(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "remote_addr", req.RemoteAddr, "error", err)
		return
	}
	client := newClient(r, conn)
	r.registry.Add(client)
	r.logger.Debug("websocket connected", "remote_addr", req.RemoteAddr, "connections", r.registry.Len())

	go client.writePump()
	go client.readPump()
}

// Publish broadcasts a server-originated update to every open connection.
func (r *Relay) Publish(data json.RawMessage) {
	r.broadcast(data, nil)
}

// Shutdown closes every open connection.
func (r *Relay) Shutdown() {
	for _, client := range r.registry.Snapshot() {
		client.close()
	}
}

func (r *Relay) broadcast(data json.RawMessage, sender *Client) {
	payload, err := json.Marshal(Envelope{Type: envelopeTypeUpdate, Data: data})
	if err != nil {
		r.logger.Error("failed to encode update envelope", "error", err)
		return
	}
	for _, client := range r.registry.Snapshot() {
		if r.excludeSender && client == sender {
			continue
		}
		client.trySend(payload)
	}
}

func (r *Relay) dropClient(client *Client) {
	r.registry.Remove(client)
	client.close()
}
