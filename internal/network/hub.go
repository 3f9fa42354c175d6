package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
	"github.com/MRamiBalles/ecshospital/internal/platform/metrics"
)

// Ward is the view of a running hospital that the transport layer needs.
// *engine.Engine implements it.
type Ward interface {
	RunID() string
	Day() int
	QueueLength() int
	Board() []engine.BedStatus
	LastReport() (engine.DayReport, bool)
	Providers() []engine.ProviderStatus
	Enqueue(rec engine.PatientRecord) (string, error)
}

// HubOptions sizes the hub's buffers and the per-client command rate.
type HubOptions struct {
	BroadcastBuffer      int
	ClientSendBuffer     int
	MaxMessagesPerSecond int
	PollInterval         time.Duration
}

// DefaultHubOptions matches the default tuning profile.
func DefaultHubOptions() HubOptions {
	return HubOptions{
		BroadcastBuffer:      256,
		ClientSendBuffer:     64,
		MaxMessagesPerSecond: 10,
		PollInterval:         200 * time.Millisecond,
	}
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	ward       Ward
	opts       HubOptions
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// NewHub initializes a new WebSocket Hub.
func NewHub(ward Ward, opts HubOptions, log *logger.Logger) *Hub {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultHubOptions().PollInterval
	}
	return &Hub{
		ward:       ward,
		opts:       opts,
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log.With("component", "hub"),
		metrics:    metrics.Get(),
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent serializes an event and queues it for every client.
func (h *Hub) BroadcastEvent(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(Envelope{Type: "EVENT", Event: &event})
	if err != nil {
		h.logger.Err(err, "Failed to serialize event for WebSocket broadcast")
		return
	}
	select {
	case h.broadcast <- payload:
	case <-ctx.Done():
	}
}

// StartEventPoller spawns a goroutine that tails the EventLog and pushes
// new events to the Hub, independent of the engine's day loop.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(h.opts.PollInterval)
		defer pollInterval.Stop()

		offset := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				fresh := eventLog.Since(offset)
				for _, event := range fresh {
					h.BroadcastEvent(ctx, event)
				}
				offset += len(fresh)
			}
		}
	}()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // ward dashboards are served from other origins
	},
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Err(err, "Failed to upgrade websocket connection")
		return
	}

	client := NewClient(h, conn)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
