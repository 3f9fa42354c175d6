package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Command is an incoming request from a ward client.
type Command struct {
	Type    string                `json:"type"` // "ADMIT" or "STATUS"
	Patient *engine.PatientRecord `json:"patient,omitempty"`
}

// Status is the reply to a STATUS command.
type Status struct {
	RunID       string             `json:"run_id"`
	Day         int                `json:"day"`
	QueueLength int                `json:"queue_length"`
	Board       []engine.BedStatus `json:"board"`
}

// Envelope is every message the server writes to a websocket.
type Envelope struct {
	Type      string        `json:"type"` // EVENT, ADMITTED, STATUS, ERROR
	Event     *events.Event `json:"event,omitempty"`
	PatientID string        `json:"patient_id,omitempty"`
	Status    *Status       `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	minInterval time.Duration
	lastCommand time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	buffer := hub.opts.ClientSendBuffer
	if buffer <= 0 {
		buffer = 64
	}
	var minInterval time.Duration
	if hub.opts.MaxMessagesPerSecond > 0 {
		minInterval = time.Second / time.Duration(hub.opts.MaxMessagesPerSecond)
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, buffer),
		minInterval: minInterval,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

// ReadPump reads commands from the websocket connection.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Err(err, "websocket read failed")
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.reply(Envelope{Type: "ERROR", Error: "invalid command"})
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd Command) {
	if c.minInterval > 0 && time.Since(c.lastCommand) < c.minInterval {
		c.hub.metrics.RecordWSError()
		c.hub.logger.Warn("Rate limit exceeded for client command " + cmd.Type)
		c.reply(Envelope{Type: "ERROR", Error: "rate limited"})
		return
	}
	c.lastCommand = time.Now()

	switch cmd.Type {
	case "ADMIT":
		c.handleAdmit(cmd)
	case "STATUS":
		ward := c.hub.ward
		c.reply(Envelope{Type: "STATUS", Status: &Status{
			RunID:       ward.RunID(),
			Day:         ward.Day(),
			QueueLength: ward.QueueLength(),
			Board:       ward.Board(),
		}})
	default:
		c.hub.logger.Warn("Unknown command type: " + cmd.Type)
		c.reply(Envelope{Type: "ERROR", Error: "unknown command " + cmd.Type})
	}
}

func (c *Client) handleAdmit(cmd Command) {
	if cmd.Patient == nil {
		c.reply(Envelope{Type: "ERROR", Error: "ADMIT needs a patient"})
		return
	}
	id, err := c.hub.ward.Enqueue(*cmd.Patient)
	if err != nil {
		c.reply(Envelope{Type: "ERROR", Error: err.Error()})
		return
	}
	c.hub.logger.Event("WS_ADMIT", id, "Patient queued from websocket")
	c.reply(Envelope{Type: "ADMITTED", PatientID: id})
}

// reply queues a message for this client only. Messages to clients the hub
// already dropped are discarded.
func (c *Client) reply(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.hub.logger.Err(err, "Failed to serialize reply")
		return
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
		c.hub.metrics.RecordWSMessage(false)
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One message per frame so clients can decode each independently.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
