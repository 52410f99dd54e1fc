package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CommandHandler receives inbound messages from a connected client. Text
// frames arrive as parsed envelopes, binary frames (audio) as raw bytes.
type CommandHandler interface {
	HandleCommand(c *Client, event string, data json.RawMessage)
	HandleBinary(c *Client, data []byte)
	ClientClosed(c *Client)
}

// Authorizer validates a session token for an interview connection.
type Authorizer func(token string) (userID uuid.UUID, err error)

// Client represents a single WebSocket connection to an interview session.
type Client struct {
	ID          string
	InterviewID uuid.UUID
	UserID      uuid.UUID
	JoinedAt    time.Time
	hub         *Hub
	commands    CommandHandler
	conn        *websocket.Conn
	send        chan WSMessage
	logger      *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger, authorize Authorizer, commands CommandHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		interviewIDStr := c.Query("interview_id")
		token := c.Query("token")
		if interviewIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interview_id and token required"})
			return
		}
		interviewID, err := uuid.Parse(interviewIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interview_id"})
			return
		}
		userID, err := authorize(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:          uuid.New().String(),
			InterviewID: interviewID,
			UserID:      userID,
			JoinedAt:    time.Now(),
			hub:         hub,
			commands:    commands,
			conn:        conn,
			send:        make(chan WSMessage, 256),
			logger:      logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

// Send queues a message for this client only.
func (c *Client) Send(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		if c.commands != nil {
			c.commands.ClientClosed(c)
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	// Audio chunks dominate frame size; transcripts and commands are small.
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch messageType {
		case websocket.BinaryMessage:
			if c.commands != nil {
				c.commands.HandleBinary(c, raw)
			}
		case websocket.TextMessage:
			var msg WSMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				c.logger.Debug("invalid client message", zap.String("client_id", c.ID), zap.Error(err))
				continue
			}
			if c.commands != nil {
				c.commands.HandleCommand(c, msg.Event, msg.Data)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
