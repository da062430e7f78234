package domain

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID              uuid.UUID
	TotalAmount     Money
	TotalItems      int32
	Status          OrderStatus
	Paid            bool
	PaidAt          *time.Time
	ChargeReference string
	Items           []OrderItem

	CreatedAt time.Time
}

type OrderItem struct {
	ProductID string
	// Name is looked up from the catalog on reads, it is not persisted
	Name     string
	Price    Money
	Quantity int32
}

type OrderReceipt struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ChargeReference string
	ReceiptURL      string

	CreatedAt time.Time
}

// ItemRequest is a single requested line in an order-creation call.
// Prices are never accepted from callers, they come from the catalog.
type ItemRequest struct {
	ProductID string
	Quantity  int32
}
