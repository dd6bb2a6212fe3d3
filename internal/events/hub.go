package events

import (
	"encoding/json"
	"log"
	"time"
)

// Event types pushed to subscribers
const (
	EventPlaceEntry = "place_entry"
	EventPlaceExit  = "place_exit"
)

// VisitEvent is the payload pushed over websocket when a visit opens or closes
type VisitEvent struct {
	Type         string  `json:"type"`
	UID          string  `json:"uid"`
	PlaceID      string  `json:"placeId"`
	PlaceName    string  `json:"placeName"`
	VisitID      string  `json:"visitId"`
	Timestamp    int64   `json:"timestamp"` // Unix timestamp
	DwellMinutes float64 `json:"dwellMinutes,omitempty"`
}

type broadcast struct {
	uid  string
	data []byte
}

// Hub routes visit events to websocket subscribers grouped by user
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan broadcast
	quit       chan struct{}
}

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan broadcast, 64),
		quit:       make(chan struct{}),
	}
}

// Run processes subscriptions and event fan-out until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.rooms[client.uid] == nil {
				h.rooms[client.uid] = make(map[*Client]bool)
			}
			h.rooms[client.uid][client] = true

		case client := <-h.unregister:
			if clients, ok := h.rooms[client.uid]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.uid)
					}
				}
			}

		case msg := <-h.events:
			for client := range h.rooms[msg.uid] {
				select {
				case client.send <- msg.data:
				default:
					// slow consumer, drop it
					delete(h.rooms[msg.uid], client)
					close(client.send)
				}
			}
			if len(h.rooms[msg.uid]) == 0 {
				delete(h.rooms, msg.uid)
			}

		case <-h.quit:
			for uid, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, uid)
			}
			return
		}
	}
}

// Stop shuts the hub down and disconnects all subscribers
func (h *Hub) Stop() {
	close(h.quit)
}

// BroadcastVisit pushes an event to every subscriber of its user.
// Events are dropped, with a log line, if the hub queue is full.
func (h *Hub) BroadcastVisit(event *VisitEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] failed to marshal event: %v", err)
		return
	}

	select {
	case h.events <- broadcast{uid: event.UID, data: data}:
	case <-time.After(time.Second):
		log.Printf("[Events] event queue full, dropping %s for uid=%s", event.Type, event.UID)
	}
}
