package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// SessionRequest is what the payment provider needs to open a checkout
// session for an order: currency plus per-line name, amount and quantity.
type SessionRequest struct {
	OrderID  uuid.UUID
	Currency currency.Unit
	Items    []SessionItem
}

type SessionItem struct {
	Name     string
	Amount   decimal.Decimal
	Quantity int32
}
