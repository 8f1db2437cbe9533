package websocket

import (
	"encoding/json"
	"sync"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/pkg/logger"
)

// Client is one websocket connection subscribed to a session's checkout
// events. A session may have several (one per open tab).
type Client struct {
	Hub       *Hub
	Conn      *Conn
	SessionID string
	Send      chan []byte
	// Snapshot renders the session's current checkout state; it is sent on
	// connect and whenever the client asks to resync. Optional.
	Snapshot func() []byte
}

// BroadcastMessage is a serialized event for every client of a session.
type BroadcastMessage struct {
	SessionID string
	Message   []byte
}

// Hub tracks connected clients by session and fans checkout events out to
// them.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	resync     chan *Client
	broadcast  chan *BroadcastMessage
	quit       chan struct{}
	done       chan struct{}
	once       sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		resync:     make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			sessions := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"session_id":  client.SessionID,
				"connections": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case client := <-h.resync:
			h.deliverSnapshot(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.SessionID] {
				select {
				case client.Send <- message.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": message.SessionID,
					})
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			h.mu.Lock()
			for id, list := range h.clients {
				for _, client := range list {
					close(client.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	remaining := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}
	if len(remaining) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = remaining
	}
	close(client.Send)

	logger.Debug("WebSocket client unregistered", map[string]interface{}{
		"session_id":  client.SessionID,
		"connections": len(remaining),
	})
}

// deliverSnapshot runs on the hub goroutine so it cannot race the close of
// client.Send.
func (h *Hub) deliverSnapshot(client *Client) {
	if client.Snapshot == nil {
		return
	}
	h.mu.RLock()
	registered := false
	for _, c := range h.clients[client.SessionID] {
		if c == client {
			registered = true
			break
		}
	}
	h.mu.RUnlock()
	if !registered {
		return
	}

	data := client.Snapshot()
	if data == nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.quit) })
	<-h.done
}

// PublishCheckoutEvent queues event for the event's session. Events are
// dropped when nobody listens or the hub is saturated.
func (h *Hub) PublishCheckoutEvent(event model.CheckoutEvent) {
	if !h.IsSessionConnected(event.SessionID) {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal checkout event", err)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{SessionID: event.SessionID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"session_id": event.SessionID,
			"state":      event.State,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Resync asks the hub to send client a fresh snapshot.
func (h *Hub) Resync(client *Client) {
	select {
	case h.resync <- client:
	case <-h.quit:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

func (h *Hub) IsSessionConnected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// ConnectionCount is the number of open connections across sessions.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, list := range h.clients {
		n += len(list)
	}
	return n
}
