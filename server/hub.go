package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/notify"
)

// controlFrame is the subscription message clients send after connecting
type controlFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Hub fans notification events out to websocket clients by topic
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn

	mu     sync.Mutex // guards writes and topics
	topics map[string]struct{}
}

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*hubClient]struct{}),
	}
}

// Handle upgrades the request and serves the client until it disconnects
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &hubClient{
		conn:   conn,
		topics: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		conn.Close()
		h.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame controlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.logger.Warn().Err(err).Msg("discarding malformed control frame")
			continue
		}

		client.mu.Lock()
		switch frame.Action {
		case "subscribe":
			client.topics[frame.Topic] = struct{}{}
		case "unsubscribe":
			delete(client.topics, frame.Topic)
		}
		client.mu.Unlock()
	}
}

// Broadcast sends the event to every client subscribed to the topic
func (h *Hub) Broadcast(topic string, event notify.Event) {
	h.mu.RLock()
	clients := make([]*hubClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.mu.Lock()
		_, subscribed := client.topics[topic]
		if subscribed {
			if err := client.conn.WriteJSON(event); err != nil {
				h.logger.Warn().Err(err).Msg("websocket write failed")
			}
		}
		client.mu.Unlock()
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.Close()
	}
	h.clients = make(map[*hubClient]struct{})
}
