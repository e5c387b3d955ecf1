package cart

import (
	"context"
	"errors"
	"testing"

	"pos-service/internal/catalog"
	"pos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *catalog.Catalog) {
	t.Helper()
	c := catalog.New(catalog.DefaultProducts()...)
	return NewEngine(c, opts...), c
}

func mustFind(t *testing.T, c *catalog.Catalog, id string) models.Product {
	t.Helper()
	p, err := c.FindByID(id)
	require.NoError(t, err)
	return p
}

// assertTotalsConsistent checks the aggregate folds against the lines
func assertTotalsConsistent(t *testing.T, e *Engine) {
	t.Helper()
	total, savings := decimal.Zero, decimal.Zero
	for _, l := range e.Lines() {
		total = total.Add(l.Total)
		savings = savings.Add(l.Savings)
	}
	assert.True(t, total.Equal(e.Total()))
	assert.True(t, savings.Equal(e.TotalSavings()))
}

func TestSelectProductComputesTotals(t *testing.T) {
	e, c := newTestEngine(t)
	ctx := context.Background()

	line, err := e.SelectProduct(ctx, mustFind(t, c, "1"), WithQuantity(d("2")))
	require.NoError(t, err)

	assert.Equal(t, 1, e.Len())
	assert.Equal(t, models.UnitLiters, line.Unit)
	assertDecimal(t, "2", line.Quantity)
	assertDecimal(t, "7.00", line.Total)
	assertDecimal(t, "1.00", line.Savings)
	assertTotalsConsistent(t, e)
}

func TestSelectProductOutOfStock(t *testing.T) {
	e, c := newTestEngine(t)

	rice := mustFind(t, c, "4")
	require.Zero(t, rice.Stock)

	_, err := e.SelectProduct(context.Background(), rice)
	assert.ErrorIs(t, err, models.ErrOutOfStock)
	assert.Zero(t, e.Len())
}

func TestSelectProductDuplicate(t *testing.T) {
	e, c := newTestEngine(t)
	ctx := context.Background()
	bread := mustFind(t, c, "2")

	_, err := e.SelectProduct(ctx, bread)
	require.NoError(t, err)

	_, err = e.SelectProduct(ctx, bread, WithQuantity(d("3")))
	assert.ErrorIs(t, err, models.ErrDuplicateItem)
	assert.Equal(t, 1, e.Len())

	line, ok := e.Line("2")
	require.True(t, ok)
	assertDecimal(t, "1", line.Quantity)

	e.RemoveLine("2")
	_, err = e.SelectProduct(ctx, bread)
	assert.NoError(t, err)
}

func TestSelectProductInvalidInput(t *testing.T) {
	e, c := newTestEngine(t)
	ctx := context.Background()
	milk := mustFind(t, c, "1")

	_, err := e.SelectProduct(ctx, milk, WithQuantity(d("0")))
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)

	_, err = e.SelectProduct(ctx, milk, WithUnit(models.UnitKg))
	assert.ErrorIs(t, err, models.ErrIncompatibleUnit)

	assert.Zero(t, e.Len())
}

func TestSelectProductInAlternateUnit(t *testing.T) {
	e, c := newTestEngine(t)

	line, err := e.SelectProduct(context.Background(), mustFind(t, c, "5"),
		WithQuantity(d("500")), WithUnit(models.UnitGrams))
	require.NoError(t, err)

	assertDecimal(t, "0.5", line.NativeQuantity)
	assertDecimal(t, "12.5", line.Total)
	assertDecimal(t, "0.5", line.Savings)
}

func TestSelectProductRoundsLineAmounts(t *testing.T) {
	e, c := newTestEngine(t)

	line, err := e.SelectProduct(context.Background(), mustFind(t, c, "3"),
		WithQuantity(d("5")), WithUnit(models.UnitPieces))
	require.NoError(t, err)

	assert.True(t, line.NativeQuantity.GreaterThan(d("0.4166")), "native quantity keeps full precision")
	assertDecimal(t, "5.00", line.Total)
	assertDecimal(t, "0.42", line.Savings)
	assert.LessOrEqual(t, -line.Total.Exponent(), int32(2))
	assertTotalsConsistent(t, e)
}

func TestSelectProductStockLimit(t *testing.T) {
	e, c := newTestEngine(t, WithStockLimit(true))
	ctx := context.Background()

	_, err := e.SelectProduct(ctx, mustFind(t, c, "8"), WithQuantity(d("6")))
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Zero(t, e.Len())

	_, err = e.SelectProduct(ctx, mustFind(t, c, "8"), WithQuantity(d("5")))
	assert.NoError(t, err)
}

func TestSelectProductPriceMismatch(t *testing.T) {
	feed := StaticPriceFeed{"1": d("3.85")}
	e, c := newTestEngine(t, WithPriceFeed(feed, d("0.01")))
	ctx := context.Background()
	milk := mustFind(t, c, "1")

	_, err := e.SelectProduct(ctx, milk)
	require.ErrorIs(t, err, models.ErrPriceMismatch)

	var mismatch *PriceMismatchError
	require.True(t, errors.As(err, &mismatch))
	assertDecimal(t, "3.50", mismatch.SystemPrice)
	assertDecimal(t, "3.85", mismatch.ExpectedPrice)
	assertDecimal(t, "0.35", mismatch.Difference())
	assert.Zero(t, e.Len())

	line, err := e.SelectProduct(ctx, milk, WithPriceConfirmed())
	require.NoError(t, err)
	assertDecimal(t, "3.50", line.SalePrice)
	assertDecimal(t, "3.50", line.Total)
}

func TestSelectProductPriceWithinTolerance(t *testing.T) {
	feed := StaticPriceFeed{"1": d("3.505"), "2": d("2.50")}
	e, c := newTestEngine(t, WithPriceFeed(feed, d("0.01")))
	ctx := context.Background()

	_, err := e.SelectProduct(ctx, mustFind(t, c, "1"))
	assert.NoError(t, err)
	_, err = e.SelectProduct(ctx, mustFind(t, c, "2"))
	assert.NoError(t, err)
	_, err = e.SelectProduct(ctx, mustFind(t, c, "3"))
	assert.NoError(t, err, "products without a feed price are not checked")
}

type failingFeed struct{}

func (failingFeed) ExpectedPrice(context.Context, string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, errors.New("feed down")
}

func TestSelectProductFeedErrorKeepsSystemPrice(t *testing.T) {
	e, c := newTestEngine(t, WithPriceFeed(failingFeed{}, decimal.Zero))

	line, err := e.SelectProduct(context.Background(), mustFind(t, c, "1"))
	require.NoError(t, err)
	assertDecimal(t, "3.50", line.Total)
}

func TestUpdateQuantity(t *testing.T) {
	e, c := newTestEngine(t)
	ctx := context.Background()

	_, err := e.SelectProduct(ctx, mustFind(t, c, "1"))
	require.NoError(t, err)

	line, err := e.UpdateQuantity("1", d("3"))
	require.NoError(t, err)
	assertDecimal(t, "10.50", line.Total)
	assertDecimal(t, "1.50", line.Savings)
	assertTotalsConsistent(t, e)

	_, err = e.UpdateQuantity("2", d("3"))
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()

	updated, c := newTestEngine(t)
	removed := NewEngine(c)
	for _, e := range []*Engine{updated, removed} {
		_, err := e.SelectProduct(ctx, mustFind(t, c, "1"))
		require.NoError(t, err)
		_, err = e.SelectProduct(ctx, mustFind(t, c, "2"))
		require.NoError(t, err)
	}

	_, err := updated.UpdateQuantity("1", decimal.Zero)
	require.NoError(t, err)
	removed.RemoveLine("1")

	_, present := updated.Line("1")
	assert.False(t, present)
	assert.Equal(t, removed.Lines(), updated.Lines())
	assertTotalsConsistent(t, updated)
}

func TestUpdateQuantityStockLimit(t *testing.T) {
	e, c := newTestEngine(t, WithStockLimit(true))
	ctx := context.Background()

	_, err := e.SelectProduct(ctx, mustFind(t, c, "3"))
	require.NoError(t, err)

	_, err = e.UpdateQuantity("3", d("9"))
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	line, _ := e.Line("3")
	assertDecimal(t, "1", line.Quantity)

	_, err = e.UpdateQuantity("3", d("8"))
	assert.NoError(t, err)
}

func TestUpdateQuantityZeroOnAbsentLine(t *testing.T) {
	e, c := newTestEngine(t)
	_, err := e.SelectProduct(context.Background(), mustFind(t, c, "1"))
	require.NoError(t, err)

	_, err = e.UpdateQuantity("3", decimal.Zero)
	assert.NoError(t, err)
	_, err = e.UpdateQuantity("3", d("-1"))
	assert.NoError(t, err)
	assert.Equal(t, 1, e.Len())
}

func TestRemoveLineAbsentIsNoop(t *testing.T) {
	e, c := newTestEngine(t)
	_, err := e.SelectProduct(context.Background(), mustFind(t, c, "1"))
	require.NoError(t, err)

	e.RemoveLine("404")
	assert.Equal(t, 1, e.Len())
}

func TestConvertUnitKeepsNativePricing(t *testing.T) {
	e, c := newTestEngine(t)

	_, err := e.SelectProduct(context.Background(), mustFind(t, c, "1"), WithQuantity(d("2")))
	require.NoError(t, err)

	// price is quoted per native unit (liters); converting to ml changes only the display
	line, err := e.ConvertUnit("1", models.UnitML)
	require.NoError(t, err)
	assert.Equal(t, models.UnitML, line.Unit)
	assertDecimal(t, "2000", line.Quantity)
	assertDecimal(t, "7.00", line.Total)
	assertDecimal(t, "1.00", line.Savings)
	assertTotalsConsistent(t, e)

	line, err = e.ConvertUnit("1", models.UnitLiters)
	require.NoError(t, err)
	assertDecimal(t, "2", line.Quantity)
}

func TestConvertUnitThenUpdateQuantity(t *testing.T) {
	e, c := newTestEngine(t)

	_, err := e.SelectProduct(context.Background(), mustFind(t, c, "5"))
	require.NoError(t, err)
	_, err = e.ConvertUnit("5", models.UnitGrams)
	require.NoError(t, err)

	line, err := e.UpdateQuantity("5", d("250"))
	require.NoError(t, err)
	assertDecimal(t, "0.25", line.NativeQuantity)
	assertDecimal(t, "6.25", line.Total)
}

func TestConvertUnitRejectsOtherFamily(t *testing.T) {
	e, c := newTestEngine(t)

	_, err := e.SelectProduct(context.Background(), mustFind(t, c, "6"), WithQuantity(d("2")))
	require.NoError(t, err)

	_, err = e.ConvertUnit("6", models.UnitPieces)
	assert.ErrorIs(t, err, models.ErrIncompatibleUnit)

	line, _ := e.Line("6")
	assert.Equal(t, models.UnitKg, line.Unit)
	assertDecimal(t, "2", line.Quantity)

	_, err = e.ConvertUnit("404", models.UnitKg)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestClearAndReuse(t *testing.T) {
	e, c := newTestEngine(t)
	ctx := context.Background()

	_, err := e.SelectProduct(ctx, mustFind(t, c, "1"))
	require.NoError(t, err)
	e.Clear()

	assert.Zero(t, e.Len())
	assert.True(t, e.Total().IsZero())

	_, err = e.SelectProduct(ctx, mustFind(t, c, "1"))
	assert.NoError(t, err)
}

func TestLinesReturnsCopy(t *testing.T) {
	e, c := newTestEngine(t)
	_, err := e.SelectProduct(context.Background(), mustFind(t, c, "1"))
	require.NoError(t, err)

	lines := e.Lines()
	lines[0].Quantity = d("99")

	line, _ := e.Line("1")
	assertDecimal(t, "1", line.Quantity)
}
