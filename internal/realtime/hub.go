// Package realtime fans session events out to websocket subscribers.
package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Message is the envelope written to subscribers.
type Message struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Time      time.Time `json:"time"`
}

type outbound struct {
	projectID string
	data      []byte
}

// Hub owns the set of connected clients. A client either follows one
// project or, with an empty project id, every project.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.projectID != "" && client.projectID != msg.projectID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					h.logger.Warn("dropping slow websocket client", "project_id", client.projectID)
					h.drop(client)
				}
			}

		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues an event for the project's subscribers. It never blocks:
// when the queue is full the event is dropped.
func (h *Hub) Publish(projectID, event string, payload any) {
	data, err := json.Marshal(Message{Type: event, ProjectID: projectID, Payload: payload, Time: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to encode event", "type", event, "error", err)
		return
	}
	select {
	case h.broadcast <- outbound{projectID: projectID, data: data}:
	default:
		h.logger.Warn("event queue full, dropping event", "type", event, "project_id", projectID)
	}
}
