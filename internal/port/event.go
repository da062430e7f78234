package port

import (
	"context"

	"github.com/nikolayk812/ordersvc/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
