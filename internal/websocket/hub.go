package websocket

import (
	"encoding/json"
	"sync"

	"github.com/ikkim/gadgetshop-backend/pkg/logger"
)

const sendBufferSize = 16

// Client is one open websocket session of a customer.
type Client struct {
	Hub        *Hub
	Conn       *Conn
	CustomerID uint
	Send       chan []byte
}

func NewClient(hub *Hub, conn *Conn, customerID uint) *Client {
	return &Client{
		Hub:        hub,
		Conn:       conn,
		CustomerID: customerID,
		Send:       make(chan []byte, sendBufferSize),
	}
}

type customerMessage struct {
	CustomerID uint
	Message    []byte
}

// Hub fans messages out to every session of a customer. A customer may hold
// several sessions (tabs, devices) at once.
type Hub struct {
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *customerMessage
	stop       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *customerMessage, 1024),
		stop:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.CustomerID] = append(h.clients[client.CustomerID], client)
			sessions := len(h.clients[client.CustomerID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"customer_id":    client.CustomerID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			sessions := append([]*Client(nil), h.clients[msg.CustomerID]...)
			h.mu.RUnlock()

			for _, client := range sessions {
				select {
				case client.Send <- msg.Message:
				default:
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"customer_id": client.CustomerID,
					})
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.CustomerID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.CustomerID)
	} else {
		h.clients[client.CustomerID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"customer_id":        client.CustomerID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Stop terminates Run and closes every session.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// PublishToCustomer queues message for every session of customerID. Messages
// are dropped when the hub is saturated.
func (h *Hub) PublishToCustomer(customerID uint, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return
	}

	select {
	case h.broadcast <- &customerMessage{CustomerID: customerID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"customer_id": customerID,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SessionCount reports how many sessions customerID has open.
func (h *Hub) SessionCount(customerID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[customerID])
}
