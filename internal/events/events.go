// Package events delivers order change notifications to staff and diners.
// Without Kafka the hub is fed directly; with Kafka every instance publishes
// to a topic and relays what it consumes into its own hub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tablemenu/api/internal/ws"
)

// OrderEvent describes a created order or a status change.
type OrderEvent struct {
	Type        string      `json:"type"`
	OrderID     uuid.UUID   `json:"orderId"`
	TableID     uuid.UUID   `json:"tableId"`
	TableNumber int32       `json:"tableNumber"`
	Status      string      `json:"status"`
	Total       json.Number `json:"total"`
	Currency    string      `json:"currency"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(room string, event ws.Event)
}

// HubPublisher pushes events to the staff room and to the order's table room.
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, e OrderEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := ws.Event{Type: e.Type, Payload: payload}
	p.hub.Broadcast(ws.StaffRoom, msg)
	if e.TableID != uuid.Nil {
		p.hub.Broadcast(ws.TableRoom(e.TableID), msg)
	}
	return nil
}
