package report

import (
	"testing"
	"time"

	"pos-service/internal/catalog"
	"pos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(id, name, category, qty, total string) models.CartLine {
	return models.CartLine{
		ProductID:      id,
		Name:           name,
		Category:       category,
		Quantity:       d(qty),
		Unit:           models.UnitPieces,
		NativeQuantity: d(qty),
		NativeUnit:     models.UnitPieces,
		Total:          d(total),
		Savings:        decimal.Zero,
	}
}

func bill(ts time.Time, items ...models.CartLine) models.Bill {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return models.Bill{Timestamp: ts, Items: items, Total: total, TotalSavings: d("0.50")}
}

func TestSales(t *testing.T) {
	bills := []models.Bill{
		bill(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), line("1", "A", "X", "1", "10")),
		bill(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC), line("1", "A", "X", "1", "5")),
		bill(time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC), line("1", "A", "X", "1", "5")),
	}

	summary := Sales(bills, time.UTC)
	assert.Equal(t, 3, summary.BillCount)
	assert.True(t, d("20").Equal(summary.TotalSales))
	assert.True(t, d("1.50").Equal(summary.TotalSavings))
	assert.True(t, d("6.67").Equal(summary.AverageBill))
	require.Len(t, summary.Daily, 2)
	assert.Equal(t, "2026-03-13", summary.Daily[0].Date)
	assert.Equal(t, "2026-03-14", summary.Daily[1].Date)
	assert.Equal(t, 2, summary.Daily[1].Bills)
	assert.True(t, d("15").Equal(summary.Daily[1].Sales))

	ist := time.FixedZone("IST", 5*3600+1800)
	summary = Sales(bills, ist)
	require.Len(t, summary.Daily, 3, "a late UTC bill falls on the next local day")
	assert.Equal(t, "2026-03-15", summary.Daily[2].Date)
}

func TestSalesEmpty(t *testing.T) {
	summary := Sales(nil, nil)
	assert.Zero(t, summary.BillCount)
	assert.True(t, summary.AverageBill.IsZero())
	assert.Empty(t, summary.Daily)
}

func TestTopProducts(t *testing.T) {
	bills := []models.Bill{
		bill(time.Now(), line("a", "A", "X", "5", "10"), line("b", "B", "X", "2", "8")),
		bill(time.Now(), line("b", "B", "X", "3", "12"), line("c", "C", "X", "1", "3")),
		bill(time.Now(), line("d", "D", "X", "0.5", "4"), line("e", "E", "X", "0.25", "1")),
	}

	top := TopProducts(bills, 0)
	require.Len(t, top, 5)

	names := make([]string, 0, len(top))
	ratings := make([]string, 0, len(top))
	for _, p := range top {
		names = append(names, p.Name)
		ratings = append(ratings, p.Rating)
	}
	assert.Equal(t, []string{"B", "A", "C", "D", "E"}, names, "ties on units are broken by revenue")
	assert.Equal(t, []string{RatingExcellent, RatingExcellent, RatingGood, RatingGood, RatingFair}, ratings)
	assert.True(t, d("5").Equal(top[0].UnitsSold))
	assert.True(t, d("20").Equal(top[0].Revenue))

	assert.Len(t, TopProducts(bills, 2), 2)
}

func TestCategories(t *testing.T) {
	bills := []models.Bill{
		bill(time.Now(), line("1", "Milk", "Dairy", "1", "30"), line("2", "Bread", "Bakery", "1", "10")),
		bill(time.Now(), line("9", "Loose", "", "1", "10")),
	}

	shares := Categories(bills)
	require.Len(t, shares, 3)
	assert.Equal(t, "Dairy", shares[0].Category)
	assert.True(t, d("60").Equal(shares[0].Percent))
	assert.Equal(t, "Bakery", shares[1].Category)
	assert.Equal(t, "General", shares[2].Category)
	assert.True(t, d("20").Equal(shares[2].Percent))

	free := Categories([]models.Bill{bill(time.Now(), line("1", "Sample", "Dairy", "1", "0"))})
	require.Len(t, free, 1)
	assert.True(t, free[0].Percent.IsZero())
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, StockStatus(models.Product{Stock: 0, MinStock: 5}))
	assert.Equal(t, StatusLowStock, StockStatus(models.Product{Stock: 5, MinStock: 5}))
	assert.Equal(t, StatusInStock, StockStatus(models.Product{Stock: 6, MinStock: 5}))
}

func TestInventoryReport(t *testing.T) {
	inv := InventoryReport(catalog.DefaultProducts())

	assert.Equal(t, 8, inv.TotalProducts)
	assert.Equal(t, 1, inv.LowStock)
	assert.Equal(t, 1, inv.OutOfStock)
	assert.True(t, d("860.75").Equal(inv.TotalValue), inv.TotalValue.String())

	require.Len(t, inv.Items, 8)
	assert.Equal(t, StatusLowStock, inv.Items[2].Status)
	assert.True(t, d("96").Equal(inv.Items[2].Value))
}

func TestExportXLSX(t *testing.T) {
	bills := []models.Bill{
		bill(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			line("1", "Milk", "Dairy", "2", "7"), line("2", "Bread", "Bakery", "1", "2.50")),
	}

	buf, err := ExportXLSX(Workbook{
		Sales:      Sales(bills, time.UTC),
		Products:   TopProducts(bills, 0),
		Categories: Categories(bills),
		Inventory:  InventoryReport(catalog.DefaultProducts()),
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDaily, SheetProducts, SheetCategories, SheetInventory}, f.GetSheetList())

	rows, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Product", rows[0][1])
	assert.Equal(t, "Milk", rows[1][1])

	rows, err = f.GetRows(SheetInventory)
	require.NoError(t, err)
	assert.Len(t, rows, 9)
}

func TestExportXLSXEmpty(t *testing.T) {
	buf, err := ExportXLSX(Workbook{Sales: Sales(nil, time.UTC), Inventory: InventoryReport(nil)})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}
