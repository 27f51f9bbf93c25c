// Package hub streams render frames and dashboard events to browsers over
// Server-Sent Events. A Hub is the renderer of the render driver: every
// frame it is handed replaces the previous one on every connected client.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"spheremap/internal/domain"
)

// Event names sent on the stream
const (
	EventFrame    = "frame"
	EventElements = "elements"
)

// keepAlive is the interval of comment lines that hold idle connections open
const keepAlive = 30 * time.Second

// Message is one named SSE event
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	id     string
	events chan []byte
	// frame holds only the newest undelivered frame
	frame chan []byte
}

// offerFrame replaces any undelivered frame with data. Only the Run loop sends.
func (c *Client) offerFrame(data []byte) {
	select {
	case <-c.frame:
	default:
	}
	select {
	case c.frame <- data:
	default:
	}
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	stopped    chan struct{}

	// last frame, replayed to clients as they connect. Frames bypass the
	// broadcast queue: SetFrame stores here and signals frameReady.
	lastMu     sync.RWMutex
	last       []byte
	frameReady chan struct{}

	gauge prometheus.Gauge
}

// New creates a new Hub. gauge, if not nil, tracks the client count.
func New(gauge prometheus.Gauge) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		stopped:    make(chan struct{}),
		frameReady: make(chan struct{}, 1),
		gauge:      gauge,
	}
}

// Run runs the hub's event loop until ctx is done. Open streams are closed on return.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()
			h.setGauge(0)
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.setGauge(count)
			log.Printf("SSE client connected: %s (total: %d)", client.id, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.setGauge(count)
			log.Printf("SSE client disconnected: %s (total: %d)", client.id, count)

		case <-h.frameReady:
			data := h.lastFrame()
			if data == nil {
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				client.offerFrame(data)
			}
			h.mu.RUnlock()

		case msg := <-h.broadcast:
			data, err := encode(msg)
			if err != nil {
				log.Printf("Failed to marshal %s event: %v", msg.Event, err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.events <- data:
				default:
					// Client is slow, skip this message
					log.Printf("SSE client %s is slow, skipping %s", client.id, msg.Event)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues a named event for every connected client
func (h *Hub) Publish(event string, data any) {
	select {
	case h.broadcast <- Message{Event: event, Data: data}:
	default:
		log.Printf("Broadcast channel full, dropping %s event", event)
	}
}

// SetFrame implements render.FrameRenderer. The frame becomes the hub's
// latest before SetFrame returns; frames not yet sent are superseded.
func (h *Hub) SetFrame(frame domain.Frame) {
	data, err := encode(Message{Event: EventFrame, Data: frame})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", EventFrame, err)
		return
	}
	h.lastMu.Lock()
	h.last = data
	h.lastMu.Unlock()

	select {
	case h.frameReady <- struct{}{}:
	default:
	}
}

func (h *Hub) lastFrame() []byte {
	h.lastMu.RLock()
	defer h.lastMu.RUnlock()
	return h.last
}

// SetElements implements render.Renderer for drivers that only emit elements
func (h *Hub) SetElements(nodes []domain.RenderNode, edges []domain.RenderEdge) {
	h.Publish(EventElements, map[string]any{"nodes": nodes, "edges": edges})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &Client{
		id:     uuid.NewString(),
		events: make(chan []byte, 64),
		frame:  make(chan []byte, 1),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.stopped:
		}
	}()

	fmt.Fprintf(w, ": connected %s\n\n", client.id)
	if last := h.lastFrame(); last != nil {
		w.Write(last)
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case frame := <-client.frame:
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.Set(float64(n))
	}
}

// encode formats msg as an SSE record
func encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", msg.Event, data)), nil
}
