package billing

import (
	"fmt"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPrefix is used for bill numbers when none is configured
const DefaultPrefix = "BILL"

// LineSource is anything that can hand out a snapshot of cart lines
type LineSource interface {
	Lines() []models.CartLine
}

// Cart is the part of the cart engine a completed sale touches
type Cart interface {
	LineSource
	Clear()
}

// StockKeeper removes sold quantities from stock, all-or-nothing
type StockKeeper interface {
	DecrementStock(quantities map[string]int) ([]models.StockLevelData, error)
}

// Sale is the outcome of completing a bill
type Sale struct {
	Bill        models.Bill             `json:"bill"`
	CompletedAt time.Time               `json:"completed_at"`
	StockLevels []models.StockLevelData `json:"stock_levels"`
}

// Generator turns carts into bills and bills into completed sales
type Generator struct {
	history *History
	stock   StockKeeper
	prefix  string
	now     func() time.Time
	logger  *zap.Logger
}

// NewGenerator creates a bill generator writing to history and decrementing stock
func NewGenerator(history *History, stock StockKeeper, prefix string) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{
		history: history,
		stock:   stock,
		prefix:  prefix,
		now:     time.Now,
		logger:  util.GetLogger(),
	}
}

// BillOption sets bill metadata that does not come from the cart
type BillOption func(*models.Bill)

// WithRegister tags the bill with the register that produced it
func WithRegister(id string) BillOption {
	return func(b *models.Bill) { b.RegisterID = id }
}

// WithCashier tags the bill with the operator name
func WithCashier(name string) BillOption {
	return func(b *models.Bill) { b.Cashier = name }
}

// GenerateBill snapshots the cart into a new bill and appends it to history.
// The cart itself is not modified.
func (g *Generator) GenerateBill(source LineSource, customer *models.CustomerDetails, opts ...BillOption) (models.Bill, error) {
	lines := source.Lines()
	if len(lines) == 0 {
		return models.Bill{}, models.ErrEmptyCart
	}

	items := make([]models.CartLine, len(lines))
	copy(items, lines)

	var cust *models.CustomerDetails
	if !customer.IsEmpty() {
		c := *customer
		cust = &c
	}

	bill := g.history.Record(func(seq int64) models.Bill {
		b := models.Bill{
			ID:           uuid.New().String(),
			BillNo:       fmt.Sprintf("%s-%06d", g.prefix, seq),
			Timestamp:    g.now(),
			Items:        items,
			Total:        cart.SumTotals(items),
			TotalSavings: cart.SumSavings(items),
			Customer:     cust,
		}
		for _, opt := range opts {
			opt(&b)
		}
		return b
	})

	g.logger.Info("Bill generated",
		zap.String("bill_id", bill.ID),
		zap.String("bill_no", bill.BillNo),
		zap.Int("items", len(bill.Items)),
		zap.String("total", bill.Total.StringFixed(2)))

	return bill, nil
}

// CompleteSale decrements stock for every item on the bill, marks it completed and clears the cart.
// Fractional native quantities take whole stock units, rounded up. On failure nothing changes.
func (g *Generator) CompleteSale(billID string, c Cart) (Sale, error) {
	bill, err := g.history.Get(billID)
	if err != nil {
		return Sale{}, err
	}

	quantities := make(map[string]int, len(bill.Items))
	for _, item := range bill.Items {
		quantities[item.ProductID] += int(item.NativeQuantity.Ceil().IntPart())
	}

	completedAt := g.now()
	var levels []models.StockLevelData
	err = g.history.complete(bill.ID, completedAt, func() error {
		var err error
		levels, err = g.stock.DecrementStock(quantities)
		return err
	})
	if err != nil {
		return Sale{}, err
	}

	if c != nil {
		c.Clear()
	}

	g.logger.Info("Sale completed",
		zap.String("bill_id", bill.ID),
		zap.String("bill_no", bill.BillNo))

	return Sale{Bill: bill, CompletedAt: completedAt, StockLevels: levels}, nil
}

// History returns the bill history the generator appends to
func (g *Generator) History() *History {
	return g.history
}
