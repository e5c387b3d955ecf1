package cart

import (
	"context"
	"fmt"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
)

// PriceFeed is a secondary price source used to reconcile shelf prices against the catalog.
// ok is false when the feed holds no price for the product.
type PriceFeed interface {
	ExpectedPrice(ctx context.Context, productID string) (price decimal.Decimal, ok bool, err error)
}

// StaticPriceFeed is a fixed map of expected prices
type StaticPriceFeed map[string]decimal.Decimal

// ExpectedPrice implements PriceFeed
func (f StaticPriceFeed) ExpectedPrice(_ context.Context, productID string) (decimal.Decimal, bool, error) {
	p, ok := f[productID]
	return p, ok, nil
}

// PriceMismatchError reports a discrepancy the operator must confirm.
// Confirming keeps the system price.
type PriceMismatchError struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	SystemPrice   decimal.Decimal `json:"system_price"`
	ExpectedPrice decimal.Decimal `json:"expected_price"`
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("%s: %s system=%s expected=%s",
		models.ErrPriceMismatch, e.Name, e.SystemPrice, e.ExpectedPrice)
}

// Unwrap lets errors.Is match ErrPriceMismatch
func (e *PriceMismatchError) Unwrap() error {
	return models.ErrPriceMismatch
}

// Difference is the absolute gap between the two prices
func (e *PriceMismatchError) Difference() decimal.Decimal {
	return e.ExpectedPrice.Sub(e.SystemPrice).Abs()
}
