// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "fashionsphere-service/internal/domain/websocket"

	"go.uber.org/zap"
)

// Hub fans catalog events out to connected storefront clients.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast chan *wstypes.WSMessage
	done      chan struct{}
	closeOnce sync.Once

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan *wstypes.WSMessage, 256),
		done:      make(chan struct{}),
		logger:    logger.Named("ws"),
	}
}

// Run broadcasts queued events until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Add registers a client and greets it.
func (h *Hub) Add(client *Client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("client connected", zap.String("user_id", client.userID), zap.Int("total", total))
	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":  client.userID,
		"channels": []wstypes.ChannelType{wstypes.ChannelSales, wstypes.ChannelRestock},
	}))
	return true
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Debug("client disconnected", zap.String("user_id", client.userID), zap.Int("total", len(h.clients)))
}

// deliver queues data for one client; a client that cannot keep up is dropped.
func (h *Hub) deliver(client *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(client, data)
}

func (h *Hub) deliverLocked(client *Client, data []byte) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.removeLocked(client)
	}
}

func (h *Hub) fanOut(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		h.logger.Error("failed to marshal broadcast", zap.Error(err))
		return
	}
	channel := wstypes.ChannelFor(msg.Type)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.IsSubscribed(channel) {
			h.deliverLocked(client, data)
		}
	}
}

// Publish queues an event for every subscribed client. It never blocks the caller;
// events are dropped when the queue is full.
func (h *Hub) Publish(eventType wstypes.EventType, data interface{}) {
	select {
	case h.broadcast <- wstypes.NewMessage(eventType, data):
	default:
		h.logger.Warn("broadcast queue full, dropping event", zap.String("type", string(eventType)))
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		close(h.done)
		for client := range h.clients {
			h.removeLocked(client)
		}
	})
}
