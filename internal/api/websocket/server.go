package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fortuna/kader/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the REST CORS layer
	},
}

// DatasetReloaded is the payload of a dataset.reloaded message
type DatasetReloaded struct {
	Players  int          `json:"players"`
	Layout   store.Layout `json:"layout"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// Server pushes roster reload notifications to dashboard clients
type Server struct {
	hub *Hub
	ctx context.Context
}

// NewServer starts a hub bound to ctx; the hub stops and closes every client when ctx ends
func NewServer(ctx context.Context) *Server {
	hub := NewHub()
	go hub.Run(ctx)
	return &Server{hub: hub, ctx: ctx}
}

// Hub exposes the broadcast hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP upgrades the request and registers the client
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  WebSocket upgrade error: %v", err)
		return
	}

	client := NewClient(uuid.New().String(), conn, s.hub)
	client.TrySend(Message{
		Type:      MessageTypeHello,
		Payload:   map[string]string{"client_id": client.ID},
		Timestamp: time.Now(),
	})
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// pumps outlive the request, so they use the server context
	go client.WritePump(s.ctx)
	go client.ReadPump()
}

// BroadcastReload notifies every client that a new roster was loaded
func (s *Server) BroadcastReload(table *store.Table) {
	s.hub.Broadcast(Message{
		Type: MessageTypeDatasetReloaded,
		Payload: DatasetReloaded{
			Players:  table.Len(),
			Layout:   table.Layout,
			LoadedAt: time.Now(),
		},
	})
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}
