package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"planrec/domain/dataset"
	"planrec/internal"

	"github.com/gin-gonic/gin"
)

// Dataset event types
const (
	EventReloaded     = "reloaded"
	EventReloadFailed = "reload_failed"
)

// DatasetEvent is streamed to subscribers whenever a reload finishes
type DatasetEvent struct {
	Type      string         `json:"type"`
	Source    string         `json:"source,omitempty"`
	LoadedAt  *time.Time     `json:"loaded_at,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventHub fans dataset events out to Server-Sent Events clients
type EventHub struct {
	clients    map[chan DatasetEvent]bool
	clientsMu  sync.RWMutex
	register   chan chan DatasetEvent
	unregister chan chan DatasetEvent
	broadcast  chan DatasetEvent
	done       chan struct{}
	closeOnce  sync.Once
	logger     *internal.Logger

	// KeepAlive is the ping interval on idle streams
	KeepAlive time.Duration
}

// NewEventHub creates a hub and starts its dispatch loop; Close stops it.
func NewEventHub(logger *internal.Logger) *EventHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &EventHub{
		clients:    make(map[chan DatasetEvent]bool),
		register:   make(chan chan DatasetEvent, 10),
		unregister: make(chan chan DatasetEvent, 10),
		broadcast:  make(chan DatasetEvent, 100),
		done:       make(chan struct{}),
		logger:     logger.With("SSE"),
		KeepAlive:  30 * time.Second,
	}

	go hub.run()
	return hub
}

func (h *EventHub) run() {
	for {
		select {
		case <-h.done:
			h.clientsMu.Lock()
			for ch := range h.clients {
				close(ch)
			}
			h.clients = make(map[chan DatasetEvent]bool)
			h.clientsMu.Unlock()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.logger.Debug("client registered (total clients: %d)", len(h.clients))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client)
				h.logger.Debug("client unregistered (remaining clients: %d)", len(h.clients))
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client <- event:
				default:
					h.logger.Warn("client channel full, skipping %s event", event.Type)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Close disconnects every client and stops the dispatch loop
func (h *EventHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Broadcast queues an event for every connected client
func (h *EventHub) Broadcast(event DatasetEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping %s event", event.Type)
	}
}

// Publish turns a reload outcome into an event. Its signature matches the
// reloader's listener hook.
func (h *EventHub) Publish(snap *dataset.Snapshot, err error) {
	if err != nil {
		h.Broadcast(DatasetEvent{Type: EventReloadFailed, Error: err.Error()})
		return
	}
	loadedAt := snap.LoadedAt()
	h.Broadcast(DatasetEvent{
		Type:     EventReloaded,
		Source:   snap.Source(),
		LoadedAt: &loadedAt,
		Counts:   snap.Counts(),
	})
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleEvents streams dataset events until the client disconnects
func (h *EventHub) HandleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan DatasetEvent, 10)
	select {
	case h.register <- clientChan:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event hub registration failed"})
		return
	}
	defer func() {
		select {
		case h.unregister <- clientChan:
		case <-h.done:
		}
	}()

	// Headers go out now so clients see the stream open before the first event.
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("dataset", string(payload))
			return true

		case <-ticker.C:
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+time.Now().UTC().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
