package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisPubSubChannel = "skillbridge:events"

// Event types pushed to connected participants
const (
	EventNewMessage        = "new-message"
	EventMessagesRead      = "messages-read"
	EventApplicationStatus = "application-status"
)

// Event represents a real-time event sent via WebSocket. Delivery is
// best-effort: a recipient without a live connection simply misses it and
// reconciles through a REST re-fetch on reconnect.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub manages WebSocket clients and broadcasts events to per-user topics
type Hub struct {
	// Registered clients grouped by user ID
	clients map[uint64]map[*Client]bool

	// Register/unregister channels
	register   chan *Client
	unregister chan *Client

	// Broadcast to a specific user
	broadcast chan *targetedEvent

	mu          sync.RWMutex
	total       int
	onCount     func(int)
	instanceID  string
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
}

type targetedEvent struct {
	UserID uint64
	Event  *Event
}

// NewHub creates a new Hub
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uint64]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *targetedEvent, 256),
		instanceID:  uuid.NewString(),
		redisClient: redisClient,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// OnClientCountChange sets an optional callback invoked with the total
// connected client count after each register/unregister. Set before Run.
func (h *Hub) OnClientCountChange(fn func(int)) {
	h.onCount = fn
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
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
			h.total++
			count := h.total
			h.mu.Unlock()
			if h.onCount != nil {
				h.onCount(count)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.userID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					h.total--
					if len(clients) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			count := h.total
			h.mu.Unlock()
			if h.onCount != nil {
				h.onCount(count)
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.UserID]; ok {
				data, err := json.Marshal(msg.Event)
				if err == nil {
					for client := range clients {
						select {
						case client.send <- data:
						default:
							close(client.send)
							delete(clients, client)
							h.total--
						}
					}
				}
			}
			h.mu.RUnlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// SendToUser sends an event to a specific user (local + Redis publish).
// An unreachable recipient is silently dropped.
func (h *Hub) SendToUser(userID uint64, event *Event) {
	// Local broadcast
	h.broadcast <- &targetedEvent{UserID: userID, Event: event}

	// Publish to Redis for multi-instance support
	if h.redisClient != nil {
		msg := &redisMessage{Origin: h.instanceID, UserID: userID, Event: event}
		data, err := json.Marshal(msg)
		if err == nil {
			h.redisClient.Publish(h.ctx, redisPubSubChannel, data) //nolint:errcheck
		}
	}
}

type redisMessage struct {
	Origin string `json:"origin"`
	UserID uint64 `json:"user_id"`
	Event  *Event `json:"event"`
}

// subscribeRedis listens for events from other instances
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
			h.handleRedisPayload([]byte(msg.Payload))
		case <-h.ctx.Done():
			return
		}
	}
}

// handleRedisPayload relays a pub/sub message to local clients. Messages
// this instance published are skipped: SendToUser already delivered them
// locally, so relaying again would double-deliver.
func (h *Hub) handleRedisPayload(payload []byte) {
	var rm redisMessage
	if err := json.Unmarshal(payload, &rm); err != nil {
		return
	}
	if rm.Origin == h.instanceID {
		return
	}
	h.broadcast <- &targetedEvent{UserID: rm.UserID, Event: rm.Event}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
