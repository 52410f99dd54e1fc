package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains interview_id -> set of connections and broadcasts messages.
// An interview room usually holds one connection (the candidate), but a
// reconnecting tab or an observing coach may add more. Uses Redis pub/sub for
// horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// interviewID -> map[clientID]*Client
	rooms  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per interview
	mu     sync.RWMutex
	logger *zap.Logger
	redis  RedisPublisher
	sub    RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishSessionEvent(interviewID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to interview channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeSession(interviewID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		redis:  redisPub,
		sub:    redisSub,
	}
}

// Register adds a client to an interview room. Starts the Redis subscription
// for the room on the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.InterviewID] == nil {
		h.rooms[c.InterviewID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeSession(c.InterviewID, func(event string, payload []byte) {
				h.BroadcastToInterview(c.InterviewID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.InterviewID] = cancel
			}
		}
	}
	h.rooms[c.InterviewID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined interview", zap.String("client_id", c.ID), zap.String("interview_id", c.InterviewID.String()))
}

// Unregister removes a client from its room. Cancels the Redis subscription
// when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.InterviewID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.InterviewID)
			if cancel, ok := h.subs[c.InterviewID]; ok {
				cancel()
				delete(h.subs, c.InterviewID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left interview", zap.String("client_id", c.ID), zap.String("interview_id", c.InterviewID.String()))
}

// BroadcastToInterview sends a message to all clients in a room (local only).
func (h *Hub) BroadcastToInterview(interviewID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[interviewID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishToInterviewOnly publishes to Redis only (no local broadcast), so the
// Redis subscriber callback performs the broadcast once for all instances
// (including this one) and local clients never see the event twice.
func (h *Hub) PublishToInterviewOnly(interviewID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishSessionEvent(interviewID, event, data)
		return
	}
	h.BroadcastToInterview(interviewID, event, payload)
}

// ConnectionCount returns the number of connected clients in a room.
func (h *Hub) ConnectionCount(interviewID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[interviewID])
}
