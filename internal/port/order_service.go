package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordersvc/internal/domain"
)

// OrderService is the inbound surface of the orders core, consumed by the
// transport layer.
type OrderService interface {
	Create(ctx context.Context, items []domain.ItemRequest) (domain.Order, error)
	List(ctx context.Context, page domain.PageRequest, filter domain.OrderFilter) (domain.OrderPage, error)
	Get(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ChangeStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, chargeReference, receiptURL string) (domain.Order, error)
	RequestPaymentSession(ctx context.Context, orderID uuid.UUID) (string, error)
}
