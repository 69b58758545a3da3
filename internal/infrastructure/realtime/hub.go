package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisPubSubChannel = "detour:realtime"

// Frame is what a WebSocket client receives.
type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type targetedFrame struct {
	UserID string          `json:"user_id"`
	Frame  json.RawMessage `json:"frame"`
}

// Hub keeps the live connections of every user and fans frames out to them.
// With Redis configured, frames are also relayed to the other instances.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *targetedFrame

	mu          sync.RWMutex
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *targetedFrame, 256),
		redisClient: redisClient,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Run is the hub's main loop; it returns after Stop.
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.UserID] {
				select {
				case client.send <- msg.Frame:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
}

// SendToUser delivers a frame to the user's local connections and publishes
// it for the other instances.
func (h *Hub) SendToUser(userID string, eventType string, payload interface{}) {
	data, err := json.Marshal(&Frame{Type: eventType, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to encode realtime frame")
		return
	}
	msg := &targetedFrame{UserID: userID, Frame: data}

	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
		return
	}

	if h.redisClient != nil {
		raw, err := json.Marshal(msg)
		if err != nil {
			return
		}
		if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, raw).Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to publish realtime frame")
		}
	}
}

// Connected reports how many live connections userID has.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var tf targetedFrame
			if err := json.Unmarshal([]byte(msg.Payload), &tf); err != nil {
				continue
			}
			// local only, never re-published
			select {
			case h.broadcast <- &tf:
			case <-h.ctx.Done():
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}
