// Package events carries notifications about committed inventory changes to
// whoever is listening: dashboards over websocket, other instances over
// Kafka, and the replenishment worker.
package events

import (
	"context"
	"errors"
	"time"
)

type Type string

const (
	SaleRecorded         Type = "sale_recorded"
	PurchaseRecorded     Type = "purchase_recorded"
	PurchaseReceived     Type = "purchase_received"
	ReplenishmentCreated Type = "replenishment_created"
	ProductCreated       Type = "product_created"
	ProductUpdated       Type = "product_updated"
	ProductDeleted       Type = "product_deleted"
)

type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is published only after the write it describes has committed.
type Event struct {
	Type          Type      `json:"type"`
	Message       string    `json:"message"`
	Actor         Actor     `json:"user"`
	EntityID      string    `json:"entity_id"`
	LowStockCount int       `json:"low_stock_count,omitempty"`
	Data          any       `json:"data,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers an event. Implementations must not block the caller
// for long: publishing happens on the request path after commit.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes to every wrapped publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

// Discard drops every event.
func Discard() Publisher { return discard{} }
