package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"card-battle-server/config"
	"card-battle-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegistryInterface defines what the Hub needs from the room registry.
type RegistryInterface interface {
	Create(creatorID string) *session.Session
	Get(id string) (*session.Session, error)
	Exists(id string) bool
	Count() int
}

// Hub maintains the set of active connections and routes inbound events.
// It is the connection tracker: each connection maps to at most one session.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Registry   RegistryInterface
	Config     *config.Config

	// counts queries are answered by the hub loop so Clients stays
	// single-writer.
	counts chan chan int
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, reg RegistryInterface) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Registry:   reg,
		Config:     cfg,
		counts:     make(chan chan int),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer
// accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("hub shutting down", "tag", "ws")
			return

		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "total", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				slog.Info("client disconnected", "tag", "ws", "total", len(h.Clients))

				// Abrupt loss: let the session decide whether this abandons
				// the room.
				if client.Session != nil && client.sub != nil {
					select {
					case client.Session.Actions <- session.Action{
						Type:     session.ActionDisconnect,
						Sub:      client.sub,
						PlayerID: client.PlayerID,
					}:
					case <-client.Session.Done:
					}
				}
			}

		case reply := <-h.counts:
			reply <- len(h.Clients)
		}
	}
}

// ConnectionCount returns the number of registered connections. Used by the
// health probe.
func (h *Hub) ConnectionCount() int {
	reply := make(chan int, 1)
	h.counts <- reply
	return <-reply
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
