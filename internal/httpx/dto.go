package httpx

import (
	"time"

	"github.com/nikolayk812/ordersvc/internal/domain"
	"github.com/samber/lo"
)

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type ConfirmPaymentRequest struct {
	OrderID         string `json:"order_id"`
	ChargeReference string `json:"charge_reference"`
	ReceiptURL      string `json:"receipt_url"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	TotalAmount     string              `json:"total_amount"`
	Currency        string              `json:"currency"`
	TotalItems      int32               `json:"total_items"`
	Status          string              `json:"status"`
	Paid            bool                `json:"paid"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	ChargeReference string              `json:"charge_reference,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Price     string `json:"price"`
	Quantity  int32  `json:"quantity"`
}

type ListOrdersResponse struct {
	Data []OrderResponse  `json:"data"`
	Meta PageMetaResponse `json:"meta"`
}

type PageMetaResponse struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	LastPage int `json:"lastPage"`
	Total    int `json:"total"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapOrderToResponse(order domain.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID.String(),
		TotalAmount:     order.TotalAmount.Amount.String(),
		Currency:        order.TotalAmount.Currency.String(),
		TotalItems:      order.TotalItems,
		Status:          string(order.Status),
		Paid:            order.Paid,
		PaidAt:          order.PaidAt,
		ChargeReference: order.ChargeReference,
		Items: lo.Map(order.Items, func(it domain.OrderItem, _ int) OrderItemResponse {
			return OrderItemResponse{
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price.Amount.String(),
				Quantity:  it.Quantity,
			}
		}),
		CreatedAt: order.CreatedAt,
	}
}

func mapPageToResponse(page domain.OrderPage) ListOrdersResponse {
	return ListOrdersResponse{
		Data: lo.Map(page.Data, func(o domain.Order, _ int) OrderResponse {
			return mapOrderToResponse(o)
		}),
		Meta: PageMetaResponse{
			Page:     page.Meta.Page,
			Limit:    page.Meta.Limit,
			LastPage: page.Meta.LastPage,
			Total:    page.Meta.Total,
		},
	}
}
