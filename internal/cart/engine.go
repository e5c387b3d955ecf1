package cart

import (
	"context"
	"fmt"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFinder looks up current product state by id
type ProductFinder interface {
	FindByID(id string) (models.Product, error)
}

// Engine maintains one cart: at most one line per product id, derived fields always consistent.
// An Engine is driven by a single caller; it does no locking of its own.
type Engine struct {
	catalog      ProductFinder
	priceFeed    PriceFeed
	tolerance    decimal.Decimal
	enforceStock bool
	lines        []models.CartLine
	logger       *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithPriceFeed enables the price-mismatch check against feed.
// Differences up to tolerance are not reported.
func WithPriceFeed(feed PriceFeed, tolerance decimal.Decimal) Option {
	return func(e *Engine) {
		e.priceFeed = feed
		e.tolerance = tolerance.Abs()
	}
}

// WithStockLimit rejects quantities above the product's stock with ErrInsufficientStock
func WithStockLimit(enforce bool) Option {
	return func(e *Engine) {
		e.enforceStock = enforce
	}
}

// NewEngine creates an empty cart bound to catalog
func NewEngine(catalog ProductFinder, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		lines:   make([]models.CartLine, 0),
		logger:  util.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type selectParams struct {
	quantity       decimal.Decimal
	unit           models.Unit
	priceConfirmed bool
}

// SelectOption customizes a SelectProduct call
type SelectOption func(*selectParams)

// WithQuantity sets the quantity to add, expressed in the selected unit. Default 1.
func WithQuantity(q decimal.Decimal) SelectOption {
	return func(p *selectParams) { p.quantity = q }
}

// WithUnit sets the sale unit. Default is the product's native unit.
func WithUnit(u models.Unit) SelectOption {
	return func(p *selectParams) { p.unit = u }
}

// WithPriceConfirmed skips the price-mismatch check; the catalog price is used
func WithPriceConfirmed() SelectOption {
	return func(p *selectParams) { p.priceConfirmed = true }
}

// SelectProduct adds product to the cart as a new line.
// Failures leave the cart untouched.
func (e *Engine) SelectProduct(ctx context.Context, product models.Product, opts ...SelectOption) (models.CartLine, error) {
	params := selectParams{
		quantity: decimal.NewFromInt(1),
		unit:     product.Unit,
	}
	for _, opt := range opts {
		opt(&params)
	}
	if params.unit == "" {
		params.unit = product.Unit
	}

	if product.Stock <= 0 {
		return models.CartLine{}, fmt.Errorf("%w: %s", models.ErrOutOfStock, product.Name)
	}
	if e.indexOf(product.ID) >= 0 {
		return models.CartLine{}, fmt.Errorf("%w: %s", models.ErrDuplicateItem, product.Name)
	}
	if !params.quantity.IsPositive() {
		return models.CartLine{}, fmt.Errorf("%w: %s", models.ErrInvalidQuantity, params.quantity)
	}

	native, err := models.ConvertQuantity(params.quantity, params.unit, product.Unit)
	if err != nil {
		return models.CartLine{}, err
	}
	if err := e.checkStock(product, native); err != nil {
		return models.CartLine{}, err
	}

	if !params.priceConfirmed {
		if err := e.checkPrice(ctx, product); err != nil {
			return models.CartLine{}, err
		}
	}

	line := models.CartLine{
		ProductID:      product.ID,
		Name:           product.Name,
		Category:       product.Category,
		Quantity:       params.quantity,
		Unit:           params.unit,
		NativeQuantity: native,
		NativeUnit:     product.Unit,
		SalePrice:      product.SalePrice,
		MRP:            product.MRP,
	}
	price(&line)

	e.lines = append(e.lines, line)
	return line, nil
}

// UpdateQuantity sets a line's quantity in its current unit.
// q <= 0 behaves like RemoveLine, so an absent line is not an error.
func (e *Engine) UpdateQuantity(productID string, q decimal.Decimal) (models.CartLine, error) {
	i := e.indexOf(productID)
	if !q.IsPositive() {
		var removed models.CartLine
		if i >= 0 {
			removed = e.lines[i]
		}
		e.RemoveLine(productID)
		return removed, nil
	}
	if i < 0 {
		return models.CartLine{}, fmt.Errorf("%w: %s not in cart", models.ErrProductNotFound, productID)
	}

	line := e.lines[i]
	native, err := models.ConvertQuantity(q, line.Unit, line.NativeUnit)
	if err != nil {
		return models.CartLine{}, err
	}

	if e.enforceStock {
		product, err := e.catalog.FindByID(productID)
		if err != nil {
			return models.CartLine{}, err
		}
		if err := e.checkStock(product, native); err != nil {
			return models.CartLine{}, err
		}
	}

	line.Quantity = q
	line.NativeQuantity = native
	price(&line)
	e.lines[i] = line
	return line, nil
}

// RemoveLine deletes the line for productID; absent lines are ignored
func (e *Engine) RemoveLine(productID string) {
	i := e.indexOf(productID)
	if i < 0 {
		return
	}
	e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
}

// ConvertUnit re-expresses a line in another unit of the same family.
// The sale price is quoted per native unit, so Total and Savings do not change.
func (e *Engine) ConvertUnit(productID string, target models.Unit) (models.CartLine, error) {
	i := e.indexOf(productID)
	if i < 0 {
		return models.CartLine{}, fmt.Errorf("%w: %s not in cart", models.ErrProductNotFound, productID)
	}

	line := e.lines[i]
	converted, err := models.ConvertQuantity(line.NativeQuantity, line.NativeUnit, target)
	if err != nil {
		return models.CartLine{}, err
	}

	line.Quantity = converted
	line.Unit = target
	price(&line)
	e.lines[i] = line
	return line, nil
}

// Clear empties the cart
func (e *Engine) Clear() {
	e.lines = make([]models.CartLine, 0)
}

// Lines returns a copy of the cart lines in display order
func (e *Engine) Lines() []models.CartLine {
	out := make([]models.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

// Line returns the line for productID
func (e *Engine) Line(productID string) (models.CartLine, bool) {
	i := e.indexOf(productID)
	if i < 0 {
		return models.CartLine{}, false
	}
	return e.lines[i], true
}

// Len returns the number of lines
func (e *Engine) Len() int {
	return len(e.lines)
}

// Total sums line totals
func (e *Engine) Total() decimal.Decimal {
	return SumTotals(e.lines)
}

// TotalSavings sums line savings
func (e *Engine) TotalSavings() decimal.Decimal {
	return SumSavings(e.lines)
}

// SumTotals folds Total over lines
func SumTotals(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

// SumSavings folds Savings over lines
func SumSavings(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Savings)
	}
	return sum
}

func (e *Engine) indexOf(productID string) int {
	for i := range e.lines {
		if e.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) checkStock(product models.Product, native decimal.Decimal) error {
	if !e.enforceStock {
		return nil
	}
	if native.GreaterThan(decimal.NewFromInt(int64(product.Stock))) {
		return fmt.Errorf("%w: %s has %d %s, requested %s",
			models.ErrInsufficientStock, product.Name, product.Stock, product.Unit, native)
	}
	return nil
}

func (e *Engine) checkPrice(ctx context.Context, product models.Product) error {
	if e.priceFeed == nil {
		return nil
	}

	expected, ok, err := e.priceFeed.ExpectedPrice(ctx, product.ID)
	if err != nil {
		// the catalog price wins whenever the feed cannot answer
		e.logger.Warn("Price feed lookup failed, skipping mismatch check",
			zap.String("product_id", product.ID),
			zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	if expected.Sub(product.SalePrice).Abs().GreaterThan(e.tolerance) {
		return &PriceMismatchError{
			ProductID:     product.ID,
			Name:          product.Name,
			SystemPrice:   product.SalePrice,
			ExpectedPrice: expected,
		}
	}
	return nil
}

// moneyScale is the number of decimal places a line amount is charged in
const moneyScale = 2

// price derives the line amounts; NativeQuantity keeps full precision for stock
func price(line *models.CartLine) {
	line.Total = line.SalePrice.Mul(line.NativeQuantity).Round(moneyScale)
	line.Savings = line.MRP.Sub(line.SalePrice).Mul(line.NativeQuantity).Round(moneyScale)
}
