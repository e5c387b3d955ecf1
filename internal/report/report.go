package report

import (
	"sort"
	"time"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
)

// Stock status labels
const (
	StatusInStock    = "in_stock"
	StatusLowStock   = "low_stock"
	StatusOutOfStock = "out_of_stock"
)

// Performance ratings for top products, by rank
const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingFair      = "fair"
)

const dayLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// DailySales is the sales total of one calendar day
type DailySales struct {
	Date  string          `json:"date"`
	Sales decimal.Decimal `json:"sales"`
	Bills int             `json:"bills"`
}

// SalesSummary aggregates completed bills
type SalesSummary struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalSavings decimal.Decimal `json:"total_savings"`
	BillCount    int             `json:"bill_count"`
	AverageBill  decimal.Decimal `json:"average_bill"`
	Daily        []DailySales    `json:"daily"`
}

// ProductPerformance is one product's sales across bills
type ProductPerformance struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold decimal.Decimal `json:"units_sold"`
	Unit      models.Unit     `json:"unit"`
	Revenue   decimal.Decimal `json:"revenue"`
	Rating    string          `json:"rating"`
}

// CategoryShare is a category's share of revenue, in percent
type CategoryShare struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
	Percent  decimal.Decimal `json:"percent"`
}

// InventoryItem is a product row of the inventory report
type InventoryItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Stock     int             `json:"stock"`
	MinStock  int             `json:"min_stock"`
	Unit      models.Unit     `json:"unit"`
	Value     decimal.Decimal `json:"value"`
	Status    string          `json:"status"`
}

// Inventory summarizes catalog stock
type Inventory struct {
	TotalProducts int             `json:"total_products"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStock      int             `json:"low_stock"`
	OutOfStock    int             `json:"out_of_stock"`
	Items         []InventoryItem `json:"items"`
}

// Sales builds the sales summary; days are taken in loc
func Sales(bills []models.Bill, loc *time.Location) SalesSummary {
	if loc == nil {
		loc = time.Local
	}

	summary := SalesSummary{
		TotalSales:   decimal.Zero,
		TotalSavings: decimal.Zero,
		AverageBill:  decimal.Zero,
		Daily:        make([]DailySales, 0),
	}
	days := make(map[string]int)

	for _, b := range bills {
		summary.TotalSales = summary.TotalSales.Add(b.Total)
		summary.TotalSavings = summary.TotalSavings.Add(b.TotalSavings)
		summary.BillCount++

		day := b.Timestamp.In(loc).Format(dayLayout)
		i, ok := days[day]
		if !ok {
			i = len(summary.Daily)
			days[day] = i
			summary.Daily = append(summary.Daily, DailySales{Date: day, Sales: decimal.Zero})
		}
		summary.Daily[i].Sales = summary.Daily[i].Sales.Add(b.Total)
		summary.Daily[i].Bills++
	}

	if summary.BillCount > 0 {
		summary.AverageBill = summary.TotalSales.DivRound(decimal.NewFromInt(int64(summary.BillCount)), 2)
	}
	sort.Slice(summary.Daily, func(i, j int) bool {
		return summary.Daily[i].Date < summary.Daily[j].Date
	})
	return summary
}

// TopProducts ranks products by units sold in their native unit, then by revenue.
// limit <= 0 returns every product.
func TopProducts(bills []models.Bill, limit int) []ProductPerformance {
	byID := make(map[string]*ProductPerformance)
	order := make([]string, 0)

	for _, b := range bills {
		for _, item := range b.Items {
			p, ok := byID[item.ProductID]
			if !ok {
				p = &ProductPerformance{
					ProductID: item.ProductID,
					Name:      item.Name,
					Unit:      item.NativeUnit,
					UnitsSold: decimal.Zero,
					Revenue:   decimal.Zero,
				}
				byID[item.ProductID] = p
				order = append(order, item.ProductID)
			}
			p.UnitsSold = p.UnitsSold.Add(item.NativeQuantity)
			p.Revenue = p.Revenue.Add(item.Total)
		}
	}

	result := make([]ProductPerformance, 0, len(order))
	for _, id := range order {
		result = append(result, *byID[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if c := result[i].UnitsSold.Cmp(result[j].UnitsSold); c != 0 {
			return c > 0
		}
		return result[i].Revenue.GreaterThan(result[j].Revenue)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		result[i].Rating = rating(i)
	}
	return result
}

func rating(rank int) string {
	switch {
	case rank < 2:
		return RatingExcellent
	case rank < 4:
		return RatingGood
	default:
		return RatingFair
	}
}

// Categories returns each category's revenue share, largest first
func Categories(bills []models.Bill) []CategoryShare {
	revenue := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, b := range bills {
		for _, item := range b.Items {
			category := item.Category
			if category == "" {
				category = "General"
			}
			revenue[category] = revenue[category].Add(item.Total)
			total = total.Add(item.Total)
		}
	}

	shares := make([]CategoryShare, 0, len(revenue))
	for category, r := range revenue {
		share := CategoryShare{Category: category, Revenue: r, Percent: decimal.Zero}
		if total.IsPositive() {
			share.Percent = r.Mul(hundred).DivRound(total, 2)
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Revenue.Cmp(shares[j].Revenue); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// StockStatus classifies a product's stock against its minimum
func StockStatus(p models.Product) string {
	switch {
	case p.Stock <= 0:
		return StatusOutOfStock
	case p.Stock <= p.MinStock:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// InventoryReport values stock at sale price and flags low and empty products
func InventoryReport(products []models.Product) Inventory {
	inv := Inventory{
		TotalValue: decimal.Zero,
		Items:      make([]InventoryItem, 0, len(products)),
	}

	for _, p := range products {
		value := p.SalePrice.Mul(decimal.NewFromInt(int64(p.Stock)))
		status := StockStatus(p)

		inv.TotalProducts++
		inv.TotalValue = inv.TotalValue.Add(value)
		switch status {
		case StatusLowStock:
			inv.LowStock++
		case StatusOutOfStock:
			inv.OutOfStock++
		}

		inv.Items = append(inv.Items, InventoryItem{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			SalePrice: p.SalePrice,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
			Unit:      p.Unit,
			Value:     value,
			Status:    status,
		})
	}
	return inv
}
