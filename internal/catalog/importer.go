package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// TemplateCSV is the downloadable import template
const TemplateCSV = `name,price,stock,category,barcode,unit
Milk,3.50,25,Dairy,1234567890123,liters
Bread,2.50,15,Bakery,1234567890124,pieces
Eggs,12.00,8,Dairy,1234567890125,dozen
Rice,15.00,0,Grains,1234567890126,kg
Chicken,25.00,12,Meat,1234567890127,kg
`

const minImportColumns = 6

var defaultColumns = []string{"name", "price", "stock", "category", "barcode", "unit"}

// ImportResult reports what a parse kept and dropped
type ImportResult struct {
	Products []models.Product
	Dropped  int
}

// ParseCSV reads products from CSV. Short or invalid rows are dropped silently.
func ParseCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

// ParseXLSX reads products from the first sheet of an Excel workbook
func ParseXLSX(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// Parse picks the parser from the file name extension
func Parse(filename string, r io.Reader) (*ImportResult, error) {
	switch ext := strings.ToLower(filename); {
	case strings.HasSuffix(ext, ".csv"):
		return ParseCSV(r)
	case strings.HasSuffix(ext, ".xlsx"):
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported import file %q: want .csv or .xlsx", filename)
	}
}

func parseRows(rows [][]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return &ImportResult{}, nil
	}

	columns := headerIndex(rows[0])
	result := &ImportResult{Products: make([]models.Product, 0, len(rows)-1)}

	for _, row := range rows[1:] {
		if len(row) < minImportColumns {
			result.Dropped++
			continue
		}
		product, ok := productFromRow(row, columns)
		if !ok {
			result.Dropped++
			continue
		}
		result.Products = append(result.Products, product)
	}
	return result, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for i, name := range defaultColumns {
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}
	return columns
}

func productFromRow(row []string, columns map[string]int) (models.Product, bool) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	name := cell("name")
	price, err := decimal.NewFromString(cell("price"))
	if name == "" || err != nil || !price.IsPositive() {
		return models.Product{}, false
	}

	stock, err := strconv.Atoi(cell("stock"))
	if err != nil || stock < 0 {
		stock = 0
	}

	category := cell("category")
	if category == "" {
		category = "General"
	}

	unit := models.UnitPieces
	if raw := cell("unit"); raw != "" {
		parsed, err := models.ParseUnit(raw)
		if err != nil {
			return models.Product{}, false
		}
		unit = parsed
	}

	mrp := price
	if v, err := decimal.NewFromString(cell("mrp")); err == nil && !v.IsNegative() {
		mrp = v
	}
	purchase := decimal.Zero
	if v, err := decimal.NewFromString(cell("purchase_price")); err == nil && !v.IsNegative() {
		purchase = v
	}

	return models.Product{
		Name:          name,
		Category:      category,
		Barcode:       cell("barcode"),
		PurchasePrice: purchase,
		MRP:           mrp,
		SalePrice:     price,
		Stock:         stock,
		Unit:          unit,
	}, true
}
