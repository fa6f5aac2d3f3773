// Package ws pushes scan pipeline progress to connected clients over
// WebSocket, one room per scan.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents one WebSocket connection watching a scan.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	ScanID string
}

// Hub maintains the active clients per scan and fans events out to them.
type Hub struct {
	Clients    map[string]map[*Client]bool // scanID -> clients
	Broadcast  chan *Event
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// Event is a scan progress message.
type Event struct {
	Type      string          `json:"type"`
	ScanID    string          `json:"scanId"`
	Phase     string          `json:"phase,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event types
const (
	EventPhaseStarted  = "scan.phase_started"
	EventPhaseFinished = "scan.phase_finished"
	EventCompleted     = "scan.completed"
	EventFailed        = "scan.failed"
	EventSaved         = "scan.saved"
	EventDiscarded     = "scan.discarded"
)

// NewHub creates a hub. Call Run on its own goroutine before registering
// clients.
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[string]map[*Client]bool),
		Broadcast:  make(chan *Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Publish queues a scan event for broadcast. It never blocks the pipeline: if
// the hub's queue is full the event is dropped.
func (h *Hub) Publish(eventType, scanID, phase string) {
	h.publish(&Event{Type: eventType, ScanID: scanID, Phase: phase, Timestamp: time.Now()})
}

// PublishError queues a failure event for broadcast.
func (h *Hub) PublishError(scanID string, err error) {
	h.publish(&Event{Type: EventFailed, ScanID: scanID, Error: err.Error(), Timestamp: time.Now()})
}

func (h *Hub) publish(event *Event) {
	select {
	case h.Broadcast <- event:
	default:
		slog.Warn("dropping scan event, hub queue full", "scan_id", event.ScanID, "type", event.Type)
	}
}

// Run processes register, unregister and broadcast requests until the process
// exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Clients[client.ScanID] == nil {
				h.Clients[client.ScanID] = make(map[*Client]bool)
			}
			h.Clients[client.ScanID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.Clients[client.ScanID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.Clients, client.ScanID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.Broadcast:
			h.mu.RLock()
			clients := h.Clients[event.ScanID]
			h.mu.RUnlock()

			payload := mustMarshal(event)
			for client := range clients {
				select {
				case client.Send <- payload:
				default:
					close(client.Send)
					delete(clients, client)
				}
			}
		}
	}
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal scan event", "error", err)
		return []byte("{}")
	}
	return b
}
