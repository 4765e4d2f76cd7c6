/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the real-time side of the server.

    It keeps a registry of connected miners and a broadcast channel. Clients
    push their position as "presence" messages; the hub records them in the
    presence registry. Anything sent to 'Broadcast' (presence pulses, player
    notifications) is written to every connected socket.

    Architecture:
    - Hub: The singleton manager.
    - Client: One browser connection, identified by an opaque session id.
    - ServeWs: Upgrades a GET request to a WebSocket.
*/

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/deepdrill/internal/logger"
	"github.com/everforgeworks/deepdrill/internal/presence"
)

// Message types carried by the envelope.
const (
	TypeWelcome  = "welcome"
	TypePresence = "presence"
	TypeNotice   = "notice"
	TypeStats    = "stats"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// Message is the JSON envelope for all real-time traffic.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Sender  string      `json:"sender"`
}

// inbound is a Message whose payload is decoded later, once the type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client is a single connected miner.
type Client struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	// Broadcast fans a serialized Message out to every client.
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	peers *presence.Registry
	now   func() time.Time
}

// NewHub creates a hub that records client positions in peers.
// Run it once in a goroutine: `go hub.Run()`.
func NewHub(peers *presence.Registry) *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		peers:      peers,
		now:        time.Now,
	}
}

// Run is the hub event loop. It blocks.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logger.Log.WithField("peer", client.id).Info("ws: client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.peers.Leave(client.id)
				logger.Log.WithField("peer", client.id).Info("ws: client left")
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the client is stuck, drop it.
					close(client.send)
					delete(h.clients, client)
					h.peers.Leave(client.id)
				}
			}
		}
	}
}

// Publish wraps payload in a Message and queues it for broadcast.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) Publish(msgType string, payload interface{}) {
	b, err := json.Marshal(Message{Type: msgType, Payload: payload, Sender: "system"})
	if err != nil {
		logger.Log.WithError(err).Error("ws: marshal broadcast")
		return
	}
	select {
	case h.Broadcast <- b:
	default:
		logger.Log.WithField("type", msgType).Warn("ws: broadcast queue full, message dropped")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and attaches the connection to the hub.
// The client may pick its session id with ?id=; otherwise one is assigned.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("ws: upgrade failed")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = uuid.NewString()
	}
	client := &Client{hub: hub, id: id, conn: conn, send: make(chan []byte, sendBuffer)}

	if b, err := json.Marshal(Message{Type: TypeWelcome, Payload: map[string]string{"id": id}, Sender: "system"}); err == nil {
		client.send <- b
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads presence updates until the socket closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithField("peer", c.id).WithError(err).Warn("ws: read")
			}
			break
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Log.WithField("peer", c.id).Debug("ws: malformed message ignored")
			continue
		}
		switch msg.Type {
		case TypePresence:
			var pos presence.Position
			if err := json.Unmarshal(msg.Payload, &pos); err != nil {
				continue
			}
			// The sender field is not trusted; the connection decides who this is.
			c.hub.peers.Observe(c.id, pos, c.hub.now())
		default:
			logger.Log.WithFields(logrus.Fields{"peer": c.id, "type": msg.Type}).Debug("ws: unknown message type")
		}
	}
}

// writePump drains the send channel onto the socket.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
