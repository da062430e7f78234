// Package catalog implements the HTTP client for the remote product service.
package catalog

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
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string, timeout time.Duration) port.ProductCatalog {
	return &client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

type validateRequest struct {
	IDs []string `json:"ids"`
}

type productPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Validate fetches the requested products in one round trip and fails with
// domain.ErrValidation if the catalog does not know every id. Duplicate ids
// count once.
func (c *client) Validate(ctx context.Context, ids []string) ([]domain.Product, error) {
	ids = lo.Uniq(ids)

	products, err := c.fetch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("c.fetch: %w", err)
	}

	if len(products) != len(ids) {
		known := lo.SliceToMap(products, func(p domain.Product) (string, struct{}) {
			return p.ID, struct{}{}
		})
		missing := lo.Filter(ids, func(id string, _ int) bool {
			_, ok := known[id]
			return !ok
		})
		return nil, fmt.Errorf("unknown product ids %v: %w", missing, domain.ErrValidation)
	}

	return products, nil
}

// Lookup returns whatever subset of ids the catalog still knows.
func (c *client) Lookup(ctx context.Context, ids []string) ([]domain.Product, error) {
	products, err := c.fetch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("c.fetch: %w", err)
	}

	return products, nil
}

func (c *client) fetch(ctx context.Context, ids []string) ([]domain.Product, error) {
	body, err := json.Marshal(validateRequest{IDs: lo.Uniq(ids)})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog unreachable: %w: %w", err, domain.ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d: %w", resp.StatusCode, domain.ErrRemoteUnavailable)
	}

	var payload []productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("json.Decode: %w: %w", err, domain.ErrRemoteUnavailable)
	}

	products := make([]domain.Product, 0, len(payload))
	for _, p := range payload {
		product, err := mapPayloadToProduct(p)
		if err != nil {
			return nil, fmt.Errorf("mapPayloadToProduct: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}

func mapPayloadToProduct(p productPayload) (domain.Product, error) {
	parsedCurrency, err := currency.ParseISO(p.Currency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", p.Currency, err)
	}

	return domain.Product{
		ID:   p.ID,
		Name: p.Name,
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(p.Price),
			Currency: parsedCurrency,
		},
	}, nil
}
