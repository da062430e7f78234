package port

import (
	"context"

	"github.com/nikolayk812/ordersvc/internal/domain"
)

// ProductCatalog is the remote product service owning identity, name and
// current price of products.
type ProductCatalog interface {
	// Validate is all-or-nothing: if any requested id is unknown to the
	// catalog the call fails wrapping domain.ErrValidation.
	Validate(ctx context.Context, ids []string) ([]domain.Product, error)

	// Lookup returns whatever subset of ids the catalog still knows,
	// missing products are simply absent from the result.
	Lookup(ctx context.Context, ids []string) ([]domain.Product, error)
}
