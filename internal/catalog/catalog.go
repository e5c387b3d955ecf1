package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
)

// Catalog is the in-memory source of truth for product attributes and stock.
// Reads return copies; insertion order is preserved for listing and search.
type Catalog struct {
	mu        sync.RWMutex
	order     []string
	products  map[string]*models.Product
	byBarcode map[string]string
	nextID    int
}

// New creates a catalog seeded with the given products
func New(products ...models.Product) *Catalog {
	c := &Catalog{
		products:  make(map[string]*models.Product),
		byBarcode: make(map[string]string),
	}
	for _, p := range products {
		c.insert(p)
	}
	return c
}

// insert must be called with the write lock held (or before the catalog is shared)
func (c *Catalog) insert(p models.Product) models.Product {
	if p.ID == "" {
		c.nextID++
		p.ID = strconv.Itoa(c.nextID)
		for c.products[p.ID] != nil {
			c.nextID++
			p.ID = strconv.Itoa(c.nextID)
		}
	} else if n, err := strconv.Atoi(p.ID); err == nil && n > c.nextID {
		c.nextID = n
	}

	stored := p
	c.products[p.ID] = &stored
	c.order = append(c.order, p.ID)
	if p.Barcode != "" && !c.barcodeTaken(p.Barcode) {
		c.byBarcode[p.Barcode] = p.ID
	}
	return stored
}

// FindByID returns the product with the given id
func (c *Catalog) FindByID(id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: id %s", models.ErrProductNotFound, id)
	}
	return *p, nil
}

// FindByBarcode returns the product with the given barcode
func (c *Catalog) FindByBarcode(code string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byBarcode[strings.TrimSpace(code)]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: barcode %s", models.ErrProductNotFound, code)
	}
	return *c.products[id], nil
}

// Search matches name, category or barcode case-insensitively, in insertion order
func (c *Catalog) Search(query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.Product, 0, len(c.order))
	for _, id := range c.order {
		p := c.products[id]
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Barcode), q) {
			result = append(result, *p)
		}
	}
	return result
}

// List returns every product in insertion order
func (c *Catalog) List() []models.Product {
	return c.Search("")
}

// Len returns the number of products
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Add validates and appends a single product
func (c *Catalog) Add(p models.Product) (models.Product, error) {
	if err := Validate(p); err != nil {
		return models.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID != "" {
		if _, exists := c.products[p.ID]; exists {
			return models.Product{}, fmt.Errorf("%w: duplicate id %s", models.ErrInvalidProduct, p.ID)
		}
	}
	if c.barcodeTaken(p.Barcode) {
		return models.Product{}, fmt.Errorf("%w: duplicate barcode %s", models.ErrInvalidProduct, p.Barcode)
	}
	return c.insert(p), nil
}

// ImportProducts appends already-validated products and returns what was stored.
// Rows whose barcode already belongs to a product are skipped and counted in dropped.
func (c *Catalog) ImportProducts(rows []models.Product) (stored []models.Product, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored = make([]models.Product, 0, len(rows))
	for _, p := range rows {
		if c.barcodeTaken(p.Barcode) {
			dropped++
			continue
		}
		if p.ID != "" && c.products[p.ID] != nil {
			p.ID = ""
		}
		stored = append(stored, c.insert(p))
	}
	return stored, dropped
}

func (c *Catalog) barcodeTaken(code string) bool {
	if code == "" {
		return false
	}
	_, ok := c.byBarcode[code]
	return ok
}

// DecrementStock removes the given whole quantities from stock.
// Either every product is decremented or none is.
func (c *Catalog) DecrementStock(quantities map[string]int) ([]models.StockLevelData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, qty := range quantities {
		p, ok := c.products[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %s", models.ErrProductNotFound, id)
		}
		if qty < 0 || p.Stock < qty {
			return nil, fmt.Errorf("%w: product %s has %d, requested %d",
				models.ErrInsufficientStock, id, p.Stock, qty)
		}
	}

	levels := make([]models.StockLevelData, 0, len(quantities))
	for _, id := range c.order {
		qty, ok := quantities[id]
		if !ok {
			continue
		}
		p := c.products[id]
		p.Stock -= qty
		levels = append(levels, models.StockLevelData{ProductID: id, Stock: p.Stock})
	}
	return levels, nil
}

// Validate checks the fields a product must carry to enter the catalog
func Validate(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrInvalidProduct)
	}
	if !p.SalePrice.IsPositive() {
		return fmt.Errorf("%w: sale price must be positive", models.ErrInvalidProduct)
	}
	if p.MRP.IsNegative() || p.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", models.ErrInvalidProduct)
	}
	if p.Stock < 0 || p.MinStock < 0 {
		return fmt.Errorf("%w: stock must not be negative", models.ErrInvalidProduct)
	}
	if !p.Unit.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidUnit, p.Unit)
	}
	return nil
}

// DefaultProducts is the demo catalog a register starts with when no archive is configured
func DefaultProducts() []models.Product {
	p := func(id, name, category, barcode, purchase, mrp, sale string, stock int, unit models.Unit, minStock int) models.Product {
		return models.Product{
			ID:            id,
			Name:          name,
			Category:      category,
			Barcode:       barcode,
			PurchasePrice: decimal.RequireFromString(purchase),
			MRP:           decimal.RequireFromString(mrp),
			SalePrice:     decimal.RequireFromString(sale),
			Stock:         stock,
			Unit:          unit,
			MinStock:      minStock,
		}
	}

	return []models.Product{
		p("1", "Milk", "Dairy", "1234567890123", "3.00", "4.00", "3.50", 25, models.UnitLiters, 10),
		p("2", "Bread", "Bakery", "1234567890124", "2.00", "2.75", "2.50", 15, models.UnitPieces, 5),
		p("3", "Eggs", "Dairy", "1234567890125", "10.00", "13.00", "12.00", 8, models.UnitDozen, 12),
		p("4", "Rice", "Grains", "1234567890126", "12.00", "16.00", "15.00", 0, models.UnitKg, 5),
		p("5", "Chicken", "Meat", "1234567890127", "21.00", "26.00", "25.00", 12, models.UnitKg, 8),
		p("6", "Vegetables", "Fresh", "1234567890128", "6.50", "9.00", "8.50", 20, models.UnitKg, 15),
		p("7", "Fruits", "Fresh", "1234567890129", "6.00", "8.25", "8.25", 18, models.UnitKg, 10),
		p("8", "Salt", "Condiments", "1234567890130", "3.50", "4.50", "4.25", 5, models.UnitGrams, 3),
	}
}
