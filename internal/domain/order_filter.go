package domain

import (
	"errors"
	"fmt"
)

// OrderFilter has OR semantics within the Statuses slice.
// An empty filter matches all orders.
type OrderFilter struct {
	Statuses []OrderStatus
}

// PageRequest is a 1-based page selection. No upper bound on Limit is imposed
// here, an outer layer may cap it.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Validate() error {
	if p.Page <= 0 {
		return fmt.Errorf("page must be positive: %w", ErrValidation)
	}

	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive: %w", ErrValidation)
	}

	return nil
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type PageMeta struct {
	Page     int
	Limit    int
	LastPage int
	Total    int
}

type OrderPage struct {
	Data []Order
	Meta PageMeta
}

// NewPageMeta computes lastPage as ceil(total/limit).
func NewPageMeta(page PageRequest, total int) (PageMeta, error) {
	if page.Limit <= 0 {
		return PageMeta{}, errors.New("limit must be positive")
	}

	return PageMeta{
		Page:     page.Page,
		Limit:    page.Limit,
		LastPage: (total + page.Limit - 1) / page.Limit,
		Total:    total,
	}, nil
}
