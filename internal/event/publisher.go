// Package event publishes order lifecycle events to Kafka.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/ordersvc/internal/domain"
	"github.com/nikolayk812/ordersvc/internal/port"
	"github.com/segmentio/kafka-go"
)

type publisher struct {
	writer *kafka.Writer
}

func NewPublisher(writer *kafka.Writer) port.EventPublisher {
	return &publisher{writer: writer}
}

// orderEventPayload is the wire shape, flattened so consumers do not depend
// on the internal domain types.
type orderEventPayload struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	Currency    string    `json:"currency"`
	TotalItems  int32     `json:"total_items"`
	Paid        bool      `json:"paid"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (p *publisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	payload := orderEventPayload{
		Type:        string(event.Type),
		OrderID:     event.Order.ID.String(),
		Status:      string(event.Order.Status),
		TotalAmount: event.Order.TotalAmount.Amount.String(),
		Currency:    event.Order.TotalAmount.Currency.String(),
		TotalItems:  event.Order.TotalItems,
		Paid:        event.Order.Paid,
		OccurredAt:  event.OccurredAt,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%s", event.Type, event.Order.ID)),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	return nil
}
