package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventModelReplaced      EventType = "model_replaced"
	EventViewChanged        EventType = "view_changed"
	EventLayoutChanged      EventType = "layout_changed"
	EventSelectionChanged   EventType = "selection_changed"
	EventNodeCreated        EventType = "node_created"
	EventNodeUpdated        EventType = "node_updated"
	EventNodeDeleted        EventType = "node_deleted"
	EventNodeDragged        EventType = "node_dragged"
	EventEdgeCreated        EventType = "edge_created"
	EventEdgeUpdated        EventType = "edge_updated"
	EventEdgeDeleted        EventType = "edge_deleted"
	EventSphereCreated      EventType = "sphere_created"
	EventSphereUpdated      EventType = "sphere_updated"
	EventSphereDeleted      EventType = "sphere_deleted"
	EventOrganizationLoaded EventType = "organization_loaded"
	EventStatusChanged      EventType = "status_changed"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
