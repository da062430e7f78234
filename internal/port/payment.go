package port

import (
	"context"

	"github.com/nikolayk812/ordersvc/internal/domain"
)

// PaymentGateway opens checkout sessions at the payment provider.
// Creating a session mutates no local state.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req domain.SessionRequest) (string, error)
}
