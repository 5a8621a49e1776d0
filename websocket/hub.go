package websocket

import (
	"context"
	"sync"
	"time"

	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/db/models"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeStatusChanged MessageType = "STATUS_CHANGED"
)

type WebSocketMessage struct {
	Type          MessageType `json:"type"`
	Payload       interface{} `json:"payload"`
	Timestamp     time.Time   `json:"timestamp"`
	ApplicationID string      `json:"applicationId,omitempty"`
}

// StatusChange is the payload of a STATUS_CHANGED message.
type StatusChange struct {
	EventID           string                   `json:"eventId"`
	Action            models.WorkflowAction    `json:"action"`
	PreviousStatus    models.ApplicationStatus `json:"previousStatus"`
	Status            models.ApplicationStatus `json:"status"`
	ApplicationNumber string                   `json:"applicationNumber,omitempty"`
	Remarks           string                   `json:"remarks,omitempty"`
}

// Client is one open status feed. It follows a single application.
type Client struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ApplicationID uuid.UUID
	Conn          *websocket.Conn
	Hub           *Hub
	Send          chan WebSocketMessage
}

// Hub fans workflow transitions out to the feeds watching each application.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register adds client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Run serves registrations until ctx is done, then closes every feed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ApplicationID] == nil {
				h.clients[client.ApplicationID] = make(map[*Client]bool)
			}
			h.clients[client.ApplicationID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, watchers := range h.clients {
				for client := range watchers {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove drops client and closes its send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	watchers, ok := h.clients[client.ApplicationID]
	if !ok || !watchers[client] {
		return
	}
	delete(watchers, client)
	close(client.Send)
	if len(watchers) == 0 {
		delete(h.clients, client.ApplicationID)
	}
}

// BroadcastToApplication queues message on every feed watching applicationID.
// Feeds whose buffer is full are dropped.
func (h *Hub) BroadcastToApplication(applicationID uuid.UUID, message WebSocketMessage) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients[applicationID] {
		select {
		case client.Send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, client := range slow {
			h.remove(client)
		}
		h.mu.Unlock()
	}
}

// QueueNotification publishes a committed transition to live feeds.
func (h *Hub) QueueNotification(eventID string, nc workflow.NotificationContext) {
	h.BroadcastToApplication(nc.ApplicationID, WebSocketMessage{
		Type:          MessageTypeStatusChanged,
		ApplicationID: nc.ApplicationID.String(),
		Timestamp:     time.Now(),
		Payload: StatusChange{
			EventID:           eventID,
			Action:            nc.Action,
			PreviousStatus:    nc.PreviousStatus,
			Status:            nc.Status,
			ApplicationNumber: nc.ApplicationNumber,
			Remarks:           nc.Remarks,
		},
	})
}

// GetClientCount returns the number of feeds watching applicationID.
func (h *Hub) GetClientCount(applicationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[applicationID])
}
