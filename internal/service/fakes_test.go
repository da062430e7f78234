package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordersvc/internal/domain"
	"github.com/samber/lo"
)

// fakeOrderRepo is an in-memory substitute for the Postgres repository.
// Failed calls store nothing, mirroring the all-or-nothing transaction.
type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]domain.Order
	inserted []uuid.UUID // creation order
	receipts map[uuid.UUID][]domain.OrderReceipt
	writes   int // mutating calls, to observe no-op transitions

	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[uuid.UUID]domain.Order),
		receipts: make(map[uuid.UUID][]domain.OrderReceipt),
	}
}

func (f *fakeOrderRepo) CreateOrderWithItems(_ context.Context, order domain.Order) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Order{}, f.createErr
	}

	order.ID = uuid.New()
	order.Status = domain.OrderStatusPending
	order.Paid = false
	order.CreatedAt = time.Now().UTC()

	f.orders[order.ID] = order
	f.inserted = append(f.inserted, order.ID)
	f.writes++

	return order, nil
}

func (f *fakeOrderRepo) Count(_ context.Context, filter domain.OrderFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.match(filter)), nil
}

func (f *fakeOrderRepo) FindPage(_ context.Context, filter domain.OrderFilter, offset, limit int) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := f.match(filter)

	if offset >= len(matched) {
		return nil, nil
	}

	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("getOrder: %w", domain.ErrNotFound)
	}

	return order, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("updateStatus: %w", domain.ErrNotFound)
	}

	order.Status = status
	f.orders[orderID] = order
	f.writes++

	return order, nil
}

func (f *fakeOrderRepo) MarkPaid(_ context.Context, orderID uuid.UUID, chargeReference, receiptURL string, paidAt time.Time) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("markPaid: %w", domain.ErrNotFound)
	}

	// only an unpaid row is updated, as the guarded UPDATE does
	if order.Paid {
		if order.ChargeReference != chargeReference {
			return domain.Order{}, fmt.Errorf("order already paid with charge %s: %w", order.ChargeReference, domain.ErrConflict)
		}
		return order, nil
	}

	order.Status = domain.OrderStatusPaid
	order.Paid = true
	order.PaidAt = &paidAt
	order.ChargeReference = chargeReference
	f.orders[orderID] = order
	f.writes++

	// emulate the unique constraint on charge_reference
	known := lo.ContainsBy(f.receipts[orderID], func(r domain.OrderReceipt) bool {
		return r.ChargeReference == chargeReference
	})
	if !known {
		f.receipts[orderID] = append(f.receipts[orderID], domain.OrderReceipt{
			ID:              uuid.New(),
			OrderID:         orderID,
			ChargeReference: chargeReference,
			ReceiptURL:      receiptURL,
			CreatedAt:       time.Now().UTC(),
		})
	}

	return order, nil
}

func (f *fakeOrderRepo) ListReceipts(_ context.Context, orderID uuid.UUID) ([]domain.OrderReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.receipts[orderID], nil
}

func (f *fakeOrderRepo) match(filter domain.OrderFilter) []domain.Order {
	var matched []domain.Order

	for _, id := range f.inserted {
		order := f.orders[id]
		if len(filter.Statuses) > 0 && !lo.Contains(filter.Statuses, order.Status) {
			continue
		}
		matched = append(matched, order)
	}

	return matched
}

func (f *fakeOrderRepo) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.writes
}

func (f *fakeOrderRepo) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.orders)
}

// fakeCatalog serves products from a map, like the remote catalog would.
type fakeCatalog struct {
	products map[string]domain.Product
	err      error
}

func newFakeCatalog(products ...domain.Product) *fakeCatalog {
	return &fakeCatalog{
		products: lo.SliceToMap(products, func(p domain.Product) (string, domain.Product) {
			return p.ID, p
		}),
	}
}

func (f *fakeCatalog) Validate(_ context.Context, ids []string) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}

	found := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, ok := f.products[id]
		if !ok {
			return nil, fmt.Errorf("unknown product ids [%s]: %w", id, domain.ErrValidation)
		}
		found = append(found, product)
	}

	return found, nil
}

func (f *fakeCatalog) Lookup(_ context.Context, ids []string) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}

	var found []domain.Product
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			found = append(found, product)
		}
	}

	return found, nil
}

// fakeGateway records the last session request.
type fakeGateway struct {
	session string
	err     error
	lastReq *domain.SessionRequest
}

func (f *fakeGateway) CreateSession(_ context.Context, req domain.SessionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	f.lastReq = &req
	return f.session, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (f *fakePublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []domain.OrderEventType {
	f.mu.Lock()
	defer f.mu.Unlock()

	return lo.Map(f.events, func(e domain.OrderEvent, _ int) domain.OrderEventType {
		return e.Type
	})
}
