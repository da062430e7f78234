package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordersvc/internal/domain"
	"github.com/nikolayk812/ordersvc/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrNotFound = domain.ErrNotFound

const orderColumns = `id, total_amount::text, currency, total_items, status, paid, paid_at, charge_reference, created_at`

const (
	insertOrderSQL = `
		INSERT INTO orders (total_amount, currency, total_items, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	insertOrderItemSQL = `
		INSERT INTO order_items (order_id, product_id, price_amount, price_currency, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	getOrderSQL = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1`

	getOrderItemsSQL = `
		SELECT product_id, price_amount::text, price_currency, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	getItemsForOrdersSQL = `
		SELECT order_id, product_id, price_amount::text, price_currency, quantity
		FROM order_items
		WHERE order_id = ANY ($1::uuid[])
		ORDER BY id`

	countOrdersSQL = `
		SELECT count(*)
		FROM orders
		WHERE $1::text[] IS NULL OR status = ANY ($1::text[])`

	findPageSQL = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE $1::text[] IS NULL OR status = ANY ($1::text[])
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	updateStatusSQL = `
		UPDATE orders
		SET status = $2
		WHERE id = $1
		RETURNING ` + orderColumns

	markPaidSQL = `
		UPDATE orders
		SET status = $2, paid = true, paid_at = $3, charge_reference = $4
		WHERE id = $1 AND paid = false
		RETURNING ` + orderColumns

	insertReceiptSQL = `
		INSERT INTO order_receipts (order_id, charge_reference, receipt_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (charge_reference) DO NOTHING`

	listReceiptsSQL = `
		SELECT id, order_id, charge_reference, receipt_url, created_at
		FROM order_receipts
		WHERE order_id = $1
		ORDER BY created_at`
)

type orderRepository struct {
	db querier
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{db: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) CreateOrderWithItems(ctx context.Context, order domain.Order) (domain.Order, error) {
	var o domain.Order

	if len(order.Items) == 0 {
		return o, errors.New("no items in order")
	}

	created, err := withTx(ctx, r.db, func(q querier) (domain.Order, error) {
		row := q.QueryRow(ctx, insertOrderSQL,
			order.TotalAmount.Amount.String(),
			order.TotalAmount.Currency.String(),
			order.TotalItems,
			string(domain.OrderStatusPending),
		)
		if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
			return o, fmt.Errorf("insertOrder: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range order.Items {
			batch.Queue(insertOrderItemSQL,
				order.ID,
				item.ProductID,
				item.Price.Amount.String(),
				item.Price.Currency.String(),
				item.Quantity,
			)
		}

		results := q.SendBatch(ctx, batch)
		for range order.Items {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return o, fmt.Errorf("insertOrderItem: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return o, fmt.Errorf("results.Close: %w", err)
		}

		order.Status = domain.OrderStatusPending
		order.Paid = false
		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return created, nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	if orderID == uuid.Nil {
		return o, fmt.Errorf("orderID is empty")
	}

	order, err := withTx(ctx, r.db, func(q querier) (domain.Order, error) {
		order, err := scanOrder(q.QueryRow(ctx, getOrderSQL, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("getOrder: %w", ErrNotFound)
			}
			return o, fmt.Errorf("getOrder: %w", err)
		}

		items, err := r.getItems(ctx, q, orderID)
		if err != nil {
			return o, fmt.Errorf("getItems: %w", err)
		}
		order.Items = items

		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Count(ctx context.Context, filter domain.OrderFilter) (int, error) {
	var count int

	statuses := mapStatusesToStrings(filter.Statuses)

	if err := r.db.QueryRow(ctx, countOrdersSQL, statuses).Scan(&count); err != nil {
		return 0, fmt.Errorf("countOrders: %w", err)
	}

	return count, nil
}

func (r *orderRepository) FindPage(ctx context.Context, filter domain.OrderFilter, offset, limit int) ([]domain.Order, error) {
	statuses := mapStatusesToStrings(filter.Statuses)

	rows, err := r.db.Query(ctx, findPageSQL, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("findPage: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanOrder: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, fmt.Errorf("attachItems: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	var o domain.Order

	if orderID == uuid.Nil {
		return o, fmt.Errorf("orderID is empty")
	}

	if status == "" {
		return o, fmt.Errorf("status is empty")
	}

	order, err := withTx(ctx, r.db, func(q querier) (domain.Order, error) {
		order, err := scanOrder(q.QueryRow(ctx, updateStatusSQL, orderID, string(status)))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("updateStatus: %w", ErrNotFound)
			}
			return o, fmt.Errorf("updateStatus: %w", err)
		}

		items, err := r.getItems(ctx, q, orderID)
		if err != nil {
			return o, fmt.Errorf("getItems: %w", err)
		}
		order.Items = items

		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

// MarkPaid flips the order to PAID and records the receipt in a single
// transaction. The UPDATE only touches unpaid rows, so of two concurrent
// confirmations exactly one wins: the loser sees the paid row and either
// returns it unchanged (same charge reference) or fails with ErrConflict.
func (r *orderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, chargeReference, receiptURL string, paidAt time.Time) (domain.Order, error) {
	var o domain.Order

	if orderID == uuid.Nil {
		return o, fmt.Errorf("orderID is empty")
	}

	if chargeReference == "" {
		return o, fmt.Errorf("chargeReference is empty")
	}

	order, err := withTx(ctx, r.db, func(q querier) (domain.Order, error) {
		row := q.QueryRow(ctx, markPaidSQL, orderID, string(domain.OrderStatusPaid), paidAt, chargeReference)
		order, err := scanOrder(row)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("markPaid: %w", err)
			}

			// zero rows: the order is missing or already paid
			existing, err := scanOrder(q.QueryRow(ctx, getOrderSQL, orderID))
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return o, fmt.Errorf("markPaid: %w", ErrNotFound)
				}
				return o, fmt.Errorf("getOrder: %w", err)
			}

			if existing.ChargeReference != chargeReference {
				return o, fmt.Errorf("order already paid with charge %s: %w", existing.ChargeReference, domain.ErrConflict)
			}

			items, err := r.getItems(ctx, q, orderID)
			if err != nil {
				return o, fmt.Errorf("getItems: %w", err)
			}
			existing.Items = items

			return existing, nil
		}

		if _, err := q.Exec(ctx, insertReceiptSQL, orderID, chargeReference, receiptURL); err != nil {
			return o, fmt.Errorf("insertReceipt: %w", err)
		}

		items, err := r.getItems(ctx, q, orderID)
		if err != nil {
			return o, fmt.Errorf("getItems: %w", err)
		}
		order.Items = items

		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListReceipts(ctx context.Context, orderID uuid.UUID) ([]domain.OrderReceipt, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("orderID is empty")
	}

	rows, err := r.db.Query(ctx, listReceiptsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listReceipts: %w", err)
	}
	defer rows.Close()

	var receipts []domain.OrderReceipt
	for rows.Next() {
		var receipt domain.OrderReceipt
		if err := rows.Scan(&receipt.ID, &receipt.OrderID, &receipt.ChargeReference, &receipt.ReceiptURL, &receipt.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return receipts, nil
}

func (r *orderRepository) getItems(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, getOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getOrderItems: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanOrderItem: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

// attachItems loads the items of all given orders in one query and groups
// them back onto the orders, preserving the page order.
func (r *orderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	ids := lo.Map(orders, func(o domain.Order, _ int) string {
		return o.ID.String()
	})

	rows, err := r.db.Query(ctx, getItemsForOrdersSQL, ids)
	if err != nil {
		return fmt.Errorf("getItemsForOrders: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[uuid.UUID][]domain.OrderItem)
	for rows.Next() {
		var orderID uuid.UUID
		var (
			amount, code string
			item         domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &amount, &code, &item.Quantity); err != nil {
			return fmt.Errorf("rows.Scan: %w", err)
		}

		item.Price, err = mapMoney(amount, code)
		if err != nil {
			return fmt.Errorf("mapMoney: %w", err)
		}

		itemsByOrder[orderID] = append(itemsByOrder[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows.Err: %w", err)
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}

	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o            domain.Order
		amount, code string
		status       string
		chargeRef    *string
	)

	err := row.Scan(&o.ID, &amount, &code, &o.TotalItems, &status, &o.Paid, &o.PaidAt, &chargeRef, &o.CreatedAt)
	if err != nil {
		return o, err
	}

	o.TotalAmount, err = mapMoney(amount, code)
	if err != nil {
		return o, fmt.Errorf("mapMoney: %w", err)
	}

	o.Status, err = domain.ToOrderStatus(status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}

	o.ChargeReference = lo.FromPtr(chargeRef)

	return o, nil
}

func scanOrderItem(row pgx.Row) (domain.OrderItem, error) {
	var (
		item         domain.OrderItem
		amount, code string
	)

	if err := row.Scan(&item.ProductID, &amount, &code, &item.Quantity); err != nil {
		return item, err
	}

	price, err := mapMoney(amount, code)
	if err != nil {
		return item, fmt.Errorf("mapMoney: %w", err)
	}
	item.Price = price

	return item, nil
}

func mapMoney(amount, code string) (domain.Money, error) {
	parsedCurrency, err := currency.ParseISO(code)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}

	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, err)
	}

	return domain.Money{Amount: parsedAmount, Currency: parsedCurrency}, nil
}

func mapStatusesToStrings(statuses []domain.OrderStatus) []string {
	if len(statuses) == 0 {
		return nil
	}

	return lo.Map(statuses, func(s domain.OrderStatus, _ int) string {
		return string(s)
	})
}
