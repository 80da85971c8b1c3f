// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents the real-time events pushed to storefront clients
type EventType string

const (
	// Connection events
	EventTypePing        EventType = "ping"
	EventTypePong        EventType = "pong"
	EventTypeConnected   EventType = "connected"
	EventTypeError       EventType = "error"
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"

	// Catalog events (server -> client)
	EventTypeSaleApplied      EventType = "sale.applied"
	EventTypeSaleCleared      EventType = "sale.cleared"
	EventTypeProductRestocked EventType = "product.restocked"
)

// ChannelType groups events a client can opt into
type ChannelType string

const (
	ChannelSales   ChannelType = "sales"
	ChannelRestock ChannelType = "restock"
)

// ChannelFor maps a server event to the channel it is delivered on.
func ChannelFor(t EventType) ChannelType {
	if t == EventTypeProductRestocked {
		return ChannelRestock
	}
	return ChannelSales
}

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SaleEventData accompanies sale.applied / sale.cleared
type SaleEventData struct {
	CampaignID         string    `json:"campaignId,omitempty"`
	Name               string    `json:"name,omitempty"`
	DiscountPercentage float64   `json:"discountPercentage"`
	StartDate          time.Time `json:"startDate,omitempty"`
	EndDate            time.Time `json:"endDate,omitempty"`
}

// RestockEventData accompanies product.restocked
type RestockEventData struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	CountInStock int    `json:"countInStock"`
}

func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
