package redisclient

import (
	"context"
	"errors"
	"fmt"

	"pos-service/internal/cart"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// DefaultPriceKey is the hash holding expected shelf prices, keyed by product id
const DefaultPriceKey = "pos:shelf_prices"

var _ cart.PriceFeed = (*PriceFeed)(nil)

// PriceFeed reads expected shelf prices from a Redis hash
type PriceFeed struct {
	client *Client
	key    string
}

// NewPriceFeed creates a price feed over the given hash key
func NewPriceFeed(client *Client, key string) *PriceFeed {
	if key == "" {
		key = DefaultPriceKey
	}
	return &PriceFeed{client: client, key: key}
}

// ExpectedPrice returns the shelf price for productID, if one is set
func (f *PriceFeed) ExpectedPrice(ctx context.Context, productID string) (decimal.Decimal, bool, error) {
	raw, err := f.client.rdb.HGet(ctx, f.key, productID).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read shelf price: %w", err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid shelf price %q for product %s: %w", raw, productID, err)
	}
	return price, true, nil
}

// SetExpectedPrice records the shelf price for productID
func (f *PriceFeed) SetExpectedPrice(ctx context.Context, productID string, price decimal.Decimal) error {
	return f.client.rdb.HSet(ctx, f.key, productID, price.String()).Err()
}

// ClearExpectedPrice removes the shelf price for productID
func (f *PriceFeed) ClearExpectedPrice(ctx context.Context, productID string) error {
	return f.client.rdb.HDel(ctx, f.key, productID).Err()
}
