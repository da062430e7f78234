package domain

import "time"

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventPaid      OrderEventType = "order.paid"
	OrderEventCancelled OrderEventType = "order.cancelled"
)

type OrderEvent struct {
	Type       OrderEventType
	Order      Order
	OccurredAt time.Time
}
