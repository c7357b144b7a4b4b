package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"vpnspectra/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from arbitrary hosts behind reverse proxies.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveMessage is the envelope pushed to every live-feed subscriber after a
// completed poll cycle.
type liveMessage struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      *model.AggregatedStats `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan liveMessage
}

// Hub manages the connected live-feed clients and fans fresh stats out to
// them.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan liveMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// NewHub creates an idle hub; call Start to run its event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan liveMessage, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Start launches the hub's event loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop shuts down the event loop and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues fresh stats for delivery to every connected client.
// If the hub's queue is full the update is dropped; the next cycle will
// deliver a newer one anyway.
func (h *Hub) Broadcast(stats *model.AggregatedStats) {
	msg := liveMessage{Type: "stats", Timestamp: time.Now(), Data: stats}
	select {
	case h.broadcast <- msg:
	default:
		log.Println("Live feed queue full, dropping stats update")
	}
}

// ServeWS upgrades the request and registers the connection with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade live-feed connection: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan liveMessage, 4)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writeLoop(h)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

func (c *client) writeLoop(h *Hub) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
			return
		}
	}
}
