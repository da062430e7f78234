// Package service holds the order lifecycle core: creation orchestration,
// paginated queries, the status state machine and payment integration.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordersvc/internal/domain"
	"github.com/nikolayk812/ordersvc/internal/port"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// placeholderName is attached to items whose product the catalog no longer
// knows, a historical order must stay readable after a catalog deletion.
const placeholderName = "unknown product"

type OrderService struct {
	repo    port.OrderRepository
	catalog port.ProductCatalog
	gateway port.PaymentGateway
	events  port.EventPublisher // nil-safe: publishing skipped if nil
	logger  zerolog.Logger
}

func New(
	repo port.OrderRepository,
	catalog port.ProductCatalog,
	gateway port.PaymentGateway,
	events port.EventPublisher,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		repo:    repo,
		catalog: catalog,
		gateway: gateway,
		events:  events,
		logger:  logger,
	}
}

// Create validates the requested products against the catalog, prices the
// order from catalog prices only and persists order plus items atomically.
// Client-supplied prices or totals are never accepted.
func (s *OrderService) Create(ctx context.Context, items []domain.ItemRequest) (domain.Order, error) {
	var o domain.Order

	if err := validateItemRequests(items); err != nil {
		return o, err
	}

	ids := lo.Uniq(lo.Map(items, func(it domain.ItemRequest, _ int) string {
		return it.ProductID
	}))

	products, err := s.catalog.Validate(ctx, ids)
	if err != nil {
		return o, fmt.Errorf("catalog.Validate: %w", err)
	}

	// a single order carries one currency, the total cannot mix them
	currencyUnit := products[0].Price.Currency
	for _, product := range products {
		if product.Price.Currency != currencyUnit {
			return o, fmt.Errorf("mixed currencies %s and %s: %w",
				currencyUnit, product.Price.Currency, domain.ErrValidation)
		}
	}

	productsByID := lo.KeyBy(products, func(p domain.Product) string {
		return p.ID
	})

	total := decimal.Zero
	var totalItems int32

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		product := productsByID[it.ProductID]

		total = total.Add(product.Price.MulQuantity(it.Quantity).Amount)
		totalItems += it.Quantity

		orderItems = append(orderItems, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  it.Quantity,
		})
	}

	order := domain.Order{
		TotalAmount: domain.Money{Amount: total, Currency: currencyUnit},
		TotalItems:  totalItems,
		Status:      domain.OrderStatusPending,
		Items:       orderItems,
	}

	created, err := s.repo.CreateOrderWithItems(ctx, order)
	if err != nil {
		return o, fmt.Errorf("repo.CreateOrderWithItems: %w", persistenceError(err))
	}

	s.logger.Info().
		Str("order_id", created.ID.String()).
		Str("total_amount", created.TotalAmount.Amount.String()).
		Int32("total_items", created.TotalItems).
		Msg("order created")

	s.publish(ctx, domain.OrderEventCreated, created)

	return created, nil
}

// List returns one page of orders together with pagination metadata.
// A page past the last one yields an empty data set with consistent meta.
func (s *OrderService) List(ctx context.Context, page domain.PageRequest, filter domain.OrderFilter) (domain.OrderPage, error) {
	var p domain.OrderPage

	if err := page.Validate(); err != nil {
		return p, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return p, fmt.Errorf("repo.Count: %w", persistenceError(err))
	}

	meta, err := domain.NewPageMeta(page, total)
	if err != nil {
		return p, fmt.Errorf("domain.NewPageMeta: %w", err)
	}

	data, err := s.repo.FindPage(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return p, fmt.Errorf("repo.FindPage: %w", persistenceError(err))
	}

	return domain.OrderPage{Data: data, Meta: meta}, nil
}

// Get fetches a single order and enriches its items with product names from
// the catalog. Products the catalog no longer knows get a placeholder name,
// the read never fails because of a deleted product.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("repo.FindByID: %w", persistenceError(err))
	}

	order.Items, err = s.enrich(ctx, order.Items)
	if err != nil {
		return o, fmt.Errorf("s.enrich: %w", err)
	}

	return order, nil
}

// ChangeStatus applies a status transition. A matching status is an explicit
// no-op success. PAID is reachable only through ConfirmPayment and terminal
// states cannot be left.
func (s *OrderService) ChangeStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	var o domain.Order

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("repo.FindByID: %w", persistenceError(err))
	}

	if order.Status == status {
		return order, nil
	}

	if order.Status.Terminal() {
		return o, fmt.Errorf("order is %s: %w", order.Status, domain.ErrConflict)
	}

	if status == domain.OrderStatusPaid {
		return o, fmt.Errorf("PAID requires a payment confirmation: %w", domain.ErrConflict)
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return o, fmt.Errorf("repo.UpdateStatus: %w", persistenceError(err))
	}

	if updated.Status == domain.OrderStatusCancelled {
		s.publish(ctx, domain.OrderEventCancelled, updated)
	}

	return updated, nil
}

// ConfirmPayment is the payment-confirmation transition. It is idempotent
// under at-least-once delivery: the charge reference is the dedup key, a
// replay with the same reference returns the paid order unchanged.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, chargeReference, receiptURL string) (domain.Order, error) {
	var o domain.Order

	if chargeReference == "" {
		return o, fmt.Errorf("charge reference is empty: %w", domain.ErrValidation)
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("repo.FindByID: %w", persistenceError(err))
	}

	if order.Paid {
		if order.ChargeReference == chargeReference {
			return order, nil
		}
		return o, fmt.Errorf("order already paid with charge %s: %w", order.ChargeReference, domain.ErrConflict)
	}

	if order.Status == domain.OrderStatusCancelled {
		return o, fmt.Errorf("order is cancelled: %w", domain.ErrConflict)
	}

	paid, err := s.repo.MarkPaid(ctx, orderID, chargeReference, receiptURL, time.Now().UTC())
	if err != nil {
		return o, fmt.Errorf("repo.MarkPaid: %w", persistenceError(err))
	}

	s.logger.Info().
		Str("order_id", paid.ID.String()).
		Str("charge_reference", chargeReference).
		Msg("payment confirmed")

	s.publish(ctx, domain.OrderEventPaid, paid)

	return paid, nil
}

// RequestPaymentSession asks the payment gateway for a checkout session for
// a pending order. Nothing is mutated locally.
func (s *OrderService) RequestPaymentSession(ctx context.Context, orderID uuid.UUID) (string, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("s.Get: %w", err)
	}

	if order.Status != domain.OrderStatusPending {
		return "", fmt.Errorf("order is %s: %w", order.Status, domain.ErrConflict)
	}

	req := domain.SessionRequest{
		OrderID:  order.ID,
		Currency: order.TotalAmount.Currency,
		Items: lo.Map(order.Items, func(it domain.OrderItem, _ int) domain.SessionItem {
			return domain.SessionItem{
				Name:     it.Name,
				Amount:   it.Price.Amount,
				Quantity: it.Quantity,
			}
		}),
	}

	session, err := s.gateway.CreateSession(ctx, req)
	if err != nil {
		return "", fmt.Errorf("gateway.CreateSession: %w", err)
	}

	return session, nil
}

// enrich re-attaches product names to stored items, which only persist
// product ids and price snapshots.
func (s *OrderService) enrich(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return items, nil
	}

	ids := lo.Uniq(lo.Map(items, func(it domain.OrderItem, _ int) string {
		return it.ProductID
	}))

	products, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog.Lookup: %w", err)
	}

	namesByID := lo.SliceToMap(products, func(p domain.Product) (string, string) {
		return p.ID, p.Name
	})

	enriched := make([]domain.OrderItem, len(items))
	for i, item := range items {
		name, ok := namesByID[item.ProductID]
		if !ok {
			name = placeholderName
		}
		item.Name = name
		enriched[i] = item
	}

	return enriched, nil
}

func (s *OrderService) publish(ctx context.Context, eventType domain.OrderEventType, order domain.Order) {
	if s.events == nil {
		return
	}

	event := domain.OrderEvent{
		Type:       eventType,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	}

	// Event delivery is best-effort, the durable write already happened.
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("event_type", string(eventType)).
			Msg("failed to publish order event")
	}
}

func validateItemRequests(items []domain.ItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("items are empty: %w", domain.ErrValidation)
	}

	for _, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("product id is empty: %w", domain.ErrValidation)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("quantity of product %s must be positive: %w", it.ProductID, domain.ErrValidation)
		}
	}

	return nil
}

// persistenceError folds storage failures into the error taxonomy while
// letting not-found pass through untouched.
func persistenceError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}
