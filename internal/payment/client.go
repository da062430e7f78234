// Package payment implements the HTTP client for the external payment provider.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nikolayk812/ordersvc/internal/domain"
	"github.com/nikolayk812/ordersvc/internal/port"
	"github.com/samber/lo"
)

type client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string, timeout time.Duration) port.PaymentGateway {
	return &client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

type sessionRequest struct {
	OrderID   string     `json:"order_id"`
	Currency  string     `json:"currency"`
	LineItems []lineItem `json:"line_items"`
}

type lineItem struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Quantity int32  `json:"quantity"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

// CreateSession asks the provider for a checkout session and returns its
// reference. No local state is touched, a later confirmation callback is the
// only way the session affects an order.
func (c *client) CreateSession(ctx context.Context, req domain.SessionRequest) (string, error) {
	payload := sessionRequest{
		OrderID:  req.OrderID.String(),
		Currency: req.Currency.String(),
		LineItems: lo.Map(req.Items, func(it domain.SessionItem, _ int) lineItem {
			return lineItem{
				Name:     it.Name,
				Amount:   it.Amount.String(),
				Quantity: it.Quantity,
			}
		}),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment provider unreachable: %w: %w", err, domain.ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment provider returned status %d: %w", resp.StatusCode, domain.ErrRemoteUnavailable)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("json.Decode: %w: %w", err, domain.ErrRemoteUnavailable)
	}

	if session.SessionID == "" {
		return "", fmt.Errorf("empty session id: %w", domain.ErrRemoteUnavailable)
	}

	return session.SessionID, nil
}
