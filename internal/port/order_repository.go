package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordersvc/internal/domain"
)

// OrderRepository is the narrow storage surface the order flows need.
// Implementations must make CreateOrderWithItems and MarkPaid atomic:
// either all rows of the call become visible or none do.
type OrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order domain.Order) (domain.Order, error)

	Count(ctx context.Context, filter domain.OrderFilter) (int, error)
	FindPage(ctx context.Context, filter domain.OrderFilter, offset, limit int) ([]domain.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error)
	// MarkPaid flips the order to PAID and records the receipt in one transaction.
	// Only an unpaid row is updated: confirming an already-paid order returns it
	// unchanged for the same charge reference and fails with domain.ErrConflict
	// for a different one. A receipt is never duplicated.
	MarkPaid(ctx context.Context, orderID uuid.UUID, chargeReference, receiptURL string, paidAt time.Time) (domain.Order, error)

	ListReceipts(ctx context.Context, orderID uuid.UUID) ([]domain.OrderReceipt, error)
}
