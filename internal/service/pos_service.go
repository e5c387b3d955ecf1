package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pos-service/internal/billing"
	"pos-service/internal/broker"
	"pos-service/internal/cart"
	"pos-service/internal/catalog"
	"pos-service/internal/models"
	"pos-service/internal/report"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// IdempotencyStore remembers which bill a client request produced
type IdempotencyStore interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Options tunes the POS service
type Options struct {
	BillPrefix        string
	EnforceStockLimit bool
	PriceFeed         cart.PriceFeed
	PriceTolerance    decimal.Decimal
	DefaultMinStock   int
	Idempotency       IdempotencyStore
	IdempotencyTTL    time.Duration
	Location          *time.Location
}

// POSService drives carts, bills and reports for every register of the store
type POSService struct {
	catalog   *catalog.Catalog
	history   *billing.History
	generator *billing.Generator
	publisher broker.Publisher
	opts      Options

	mu        sync.Mutex
	registers map[string]*register

	logger *zap.Logger
}

// register is one checkout counter: a cart and the customer for its next bill.
// mu serialises every operation on the register.
type register struct {
	mu       sync.Mutex
	cart     *cart.Engine
	customer *models.CustomerDetails
}

// NewPOSService creates a new POS service
func NewPOSService(cat *catalog.Catalog, publisher broker.Publisher, opts Options) *POSService {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}

	history := billing.NewHistory()
	return &POSService{
		catalog:   cat,
		history:   history,
		generator: billing.NewGenerator(history, cat, opts.BillPrefix),
		publisher: publisher,
		opts:      opts,
		registers: make(map[string]*register),
		logger:    util.GetLogger(),
	}
}

// CartView is the cart of one register as shown to the operator
type CartView struct {
	RegisterID   string                  `json:"register_id"`
	Items        []models.CartLine       `json:"items"`
	Total        decimal.Decimal         `json:"total"`
	TotalSavings decimal.Decimal         `json:"total_savings"`
	Customer     *models.CustomerDetails `json:"customer,omitempty"`
}

// AddItemRequest selects a product by id or barcode
type AddItemRequest struct {
	ProductID    string           `json:"product_id"`
	Barcode      string           `json:"barcode"`
	Quantity     *decimal.Decimal `json:"quantity"`
	Unit         string           `json:"unit"`
	ConfirmPrice bool             `json:"confirm_price"`
}

// ImportSummary reports the outcome of a catalog import
type ImportSummary struct {
	Imported []models.Product `json:"imported"`
	Dropped  int              `json:"dropped"`
}

func (s *POSService) register(id string) *register {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registers[id]
	if !ok {
		opts := []cart.Option{cart.WithStockLimit(s.opts.EnforceStockLimit)}
		if s.opts.PriceFeed != nil {
			opts = append(opts, cart.WithPriceFeed(s.opts.PriceFeed, s.opts.PriceTolerance))
		}
		r = &register{cart: cart.NewEngine(s.catalog, opts...)}
		s.registers[id] = r
	}
	return r
}

func (r *register) view(id string) *CartView {
	v := &CartView{
		RegisterID:   id,
		Items:        r.cart.Lines(),
		Total:        r.cart.Total(),
		TotalSavings: r.cart.TotalSavings(),
	}
	if !r.customer.IsEmpty() {
		c := *r.customer
		v.Customer = &c
	}
	return v
}

// SearchProducts matches name, category or barcode
func (s *POSService) SearchProducts(ctx context.Context, query string) []models.Product {
	return s.catalog.Search(query)
}

// GetProduct retrieves a product by id
func (s *POSService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	return s.catalog.FindByID(id)
}

// GetProductByBarcode retrieves a product by barcode
func (s *POSService) GetProductByBarcode(ctx context.Context, code string) (models.Product, error) {
	return s.catalog.FindByBarcode(code)
}

// AddProduct validates and adds a single product to the catalog
func (s *POSService) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "POSService.AddProduct")
	defer span.End()

	if p.Category == "" {
		p.Category = "General"
	}
	if p.MRP.IsZero() {
		p.MRP = p.SalePrice
	}

	stored, err := s.catalog.Add(p)
	if err != nil {
		util.SpanError(span, err)
		return models.Product{}, err
	}

	s.logger.Info("Product added", zap.String("product_id", stored.ID), zap.String("name", stored.Name))
	s.publishImported(ctx, []models.Product{stored})
	return stored, nil
}

// ImportProducts parses a CSV or XLSX upload and appends every valid row to the catalog
func (s *POSService) ImportProducts(ctx context.Context, filename string, r io.Reader) (*ImportSummary, error) {
	ctx, span := util.StartSpan(ctx, "POSService.ImportProducts", attribute.String("filename", filename))
	defer span.End()

	result, err := catalog.Parse(filename, r)
	if err != nil {
		util.SpanError(span, err)
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}

	for i := range result.Products {
		if result.Products[i].MinStock == 0 {
			result.Products[i].MinStock = s.opts.DefaultMinStock
		}
	}

	imported, duplicates := s.catalog.ImportProducts(result.Products)
	dropped := result.Dropped + duplicates

	util.ProductsImportedTotal.Add(float64(len(imported)))
	util.ImportRowsDroppedTotal.Add(float64(dropped))
	s.logger.Info("Products imported",
		zap.String("filename", filename),
		zap.Int("imported", len(imported)),
		zap.Int("dropped", dropped))

	if len(imported) > 0 {
		s.publishImported(ctx, imported)
	}
	return &ImportSummary{Imported: imported, Dropped: dropped}, nil
}

// Cart returns the cart of a register
func (s *POSService) Cart(ctx context.Context, registerID string) *CartView {
	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(registerID)
}

// AddItem selects a product into the register's cart
func (s *POSService) AddItem(ctx context.Context, registerID string, req AddItemRequest) (models.CartLine, error) {
	ctx, span := util.StartSpan(ctx, "POSService.AddItem",
		attribute.String("register_id", registerID),
		attribute.String("product_id", req.ProductID))
	defer span.End()

	product, err := s.lookup(req)
	if err != nil {
		s.cartFailure(span, "add", err)
		return models.CartLine{}, err
	}

	opts := make([]cart.SelectOption, 0, 3)
	if req.Quantity != nil {
		opts = append(opts, cart.WithQuantity(*req.Quantity))
	}
	if req.Unit != "" {
		unit, err := models.ParseUnit(req.Unit)
		if err != nil {
			s.cartFailure(span, "add", err)
			return models.CartLine{}, err
		}
		opts = append(opts, cart.WithUnit(unit))
	}
	if req.ConfirmPrice {
		opts = append(opts, cart.WithPriceConfirmed())
	}

	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	line, err := r.cart.SelectProduct(ctx, product, opts...)
	if err != nil {
		if errors.Is(err, models.ErrPriceMismatch) {
			util.PriceMismatchesTotal.Inc()
		}
		s.cartFailure(span, "add", err)
		return models.CartLine{}, err
	}

	util.CartOperationsTotal.WithLabelValues("add").Inc()
	s.logger.Debug("Item added",
		zap.String("register_id", registerID),
		zap.String("product_id", line.ProductID),
		zap.String("quantity", line.Quantity.String()),
		zap.String("unit", string(line.Unit)))
	return line, nil
}

func (s *POSService) cartFailure(span trace.Span, operation string, err error) {
	util.CartOperationsFailed.WithLabelValues(operation, models.ErrorCode(err)).Inc()
	util.SpanError(span, err)
}

func (s *POSService) lookup(req AddItemRequest) (models.Product, error) {
	switch {
	case req.ProductID != "":
		return s.catalog.FindByID(req.ProductID)
	case strings.TrimSpace(req.Barcode) != "":
		return s.catalog.FindByBarcode(req.Barcode)
	default:
		return models.Product{}, fmt.Errorf("%w: product_id or barcode is required", models.ErrProductNotFound)
	}
}

// UpdateItem sets the quantity of a cart line; zero or less removes it
func (s *POSService) UpdateItem(ctx context.Context, registerID, productID string, quantity decimal.Decimal) (*CartView, error) {
	_, span := util.StartSpan(ctx, "POSService.UpdateItem", attribute.String("register_id", registerID))
	defer span.End()

	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.cart.UpdateQuantity(productID, quantity); err != nil {
		s.cartFailure(span, "update", err)
		return nil, err
	}
	util.CartOperationsTotal.WithLabelValues("update").Inc()
	return r.view(registerID), nil
}

// RemoveItem drops a line from the cart; absent lines are ignored
func (s *POSService) RemoveItem(ctx context.Context, registerID, productID string) *CartView {
	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.RemoveLine(productID)
	util.CartOperationsTotal.WithLabelValues("remove").Inc()
	return r.view(registerID)
}

// ConvertItem re-expresses a cart line in another unit of the same family
func (s *POSService) ConvertItem(ctx context.Context, registerID, productID, unit string) (models.CartLine, error) {
	_, span := util.StartSpan(ctx, "POSService.ConvertItem", attribute.String("register_id", registerID))
	defer span.End()

	target, err := models.ParseUnit(unit)
	if err != nil {
		s.cartFailure(span, "convert", err)
		return models.CartLine{}, err
	}

	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	line, err := r.cart.ConvertUnit(productID, target)
	if err != nil {
		s.cartFailure(span, "convert", err)
		return models.CartLine{}, err
	}
	util.CartOperationsTotal.WithLabelValues("convert").Inc()
	return line, nil
}

// ClearCart empties the register's cart and forgets its customer
func (s *POSService) ClearCart(ctx context.Context, registerID string) *CartView {
	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.Clear()
	r.customer = nil
	util.CartOperationsTotal.WithLabelValues("clear").Inc()
	return r.view(registerID)
}

// SetCustomer records customer details for the register's next bill
func (s *POSService) SetCustomer(ctx context.Context, registerID string, customer models.CustomerDetails) *CartView {
	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	if customer.IsEmpty() {
		r.customer = nil
	} else {
		r.customer = &customer
	}
	return r.view(registerID)
}

// GenerateBill snapshots the register's cart into a bill.
// A repeated idempotencyKey returns the bill the first request produced.
func (s *POSService) GenerateBill(ctx context.Context, registerID, cashier, idempotencyKey string) (models.Bill, error) {
	ctx, span := util.StartSpan(ctx, "POSService.GenerateBill", attribute.String("register_id", registerID))
	defer span.End()
	start := time.Now()

	r := s.register(registerID)
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ""
	if idempotencyKey != "" && s.opts.Idempotency != nil {
		key = fmt.Sprintf("bill:%s:%s", registerID, idempotencyKey)
		if bill, ok := s.replayBill(ctx, key); ok {
			return bill, nil
		}
	}

	bill, err := s.generator.GenerateBill(r.cart, r.customer,
		billing.WithRegister(registerID),
		billing.WithCashier(cashier))
	if err != nil {
		util.SpanError(span, err)
		return models.Bill{}, err
	}

	util.BillsGeneratedTotal.Inc()
	util.BillGenerationLatency.Observe(time.Since(start).Seconds())

	if key != "" {
		if err := s.opts.Idempotency.SetIdempotencyKey(ctx, key, bill.ID, s.opts.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("key", key), zap.Error(err))
		}
	}

	event := &models.BillGeneratedEvent{
		BaseEvent:  models.NewBaseEvent(models.EventTypeBillGenerated),
		BillID:     bill.ID,
		BillNo:     bill.BillNo,
		RegisterID: registerID,
		Total:      bill.Total,
		ItemCount:  len(bill.Items),
	}
	if err := s.publisher.PublishBillGenerated(ctx, event); err != nil {
		util.EventPublishFailures.WithLabelValues(models.EventTypeBillGenerated).Inc()
		s.logger.Error("Failed to publish BillGenerated event", zap.String("bill_id", bill.ID), zap.Error(err))
	}

	return bill, nil
}

func (s *POSService) replayBill(ctx context.Context, key string) (models.Bill, bool) {
	billID, ok, err := s.opts.Idempotency.GetIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to check idempotency key", zap.String("key", key), zap.Error(err))
		return models.Bill{}, false
	}
	if !ok {
		return models.Bill{}, false
	}

	bill, err := s.history.Get(billID)
	if err != nil {
		return models.Bill{}, false
	}

	s.logger.Info("Duplicate bill request detected",
		zap.String("idempotency_key", key),
		zap.String("bill_id", bill.ID))
	return bill, true
}

// CompleteSale finalises a bill: stock is decremented and the register's cart and customer reset
func (s *POSService) CompleteSale(ctx context.Context, billID string) (*billing.Sale, error) {
	ctx, span := util.StartSpan(ctx, "POSService.CompleteSale", attribute.String("bill_id", billID))
	defer span.End()

	bill, err := s.history.Get(billID)
	if err != nil {
		util.SpanError(span, err)
		return nil, err
	}

	r := s.register(bill.RegisterID)
	r.mu.Lock()
	defer r.mu.Unlock()

	sale, err := s.generator.CompleteSale(billID, r.cart)
	if err != nil {
		util.SpanError(span, err)
		return nil, err
	}
	r.customer = nil

	util.SalesCompletedTotal.Inc()
	util.SalesAmountTotal.Add(sale.Bill.Total.InexactFloat64())

	event := &models.SaleCompletedEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeSaleCompleted),
		Bill:        sale.Bill,
		CompletedAt: sale.CompletedAt,
		StockLevels: sale.StockLevels,
	}
	if err := s.publisher.PublishSaleCompleted(ctx, event); err != nil {
		util.EventPublishFailures.WithLabelValues(models.EventTypeSaleCompleted).Inc()
		s.logger.Error("Failed to publish SaleCompleted event", zap.String("bill_id", billID), zap.Error(err))
	}

	return &sale, nil
}

// GetBill retrieves a generated bill
func (s *POSService) GetBill(ctx context.Context, id string) (models.Bill, error) {
	return s.history.Get(id)
}

// ListBills returns every generated bill, oldest first
func (s *POSService) ListBills(ctx context.Context) []models.Bill {
	return s.history.List()
}

// IsCompleted reports whether a bill's sale has been completed
func (s *POSService) IsCompleted(ctx context.Context, id string) bool {
	return s.history.IsCompleted(id)
}

// SalesReport summarises completed sales
func (s *POSService) SalesReport(ctx context.Context) report.SalesSummary {
	return report.Sales(s.history.Completed(), s.opts.Location)
}

// TopProducts ranks products across completed sales
func (s *POSService) TopProducts(ctx context.Context, limit int) []report.ProductPerformance {
	return report.TopProducts(s.history.Completed(), limit)
}

// CategoryReport returns revenue share per category across completed sales
func (s *POSService) CategoryReport(ctx context.Context) []report.CategoryShare {
	return report.Categories(s.history.Completed())
}

// InventoryReport values the current catalog stock
func (s *POSService) InventoryReport(ctx context.Context) report.Inventory {
	return report.InventoryReport(s.catalog.List())
}

// ExportReports renders every report into one workbook
func (s *POSService) ExportReports(ctx context.Context) (*bytes.Buffer, error) {
	_, span := util.StartSpan(ctx, "POSService.ExportReports")
	defer span.End()

	completed := s.history.Completed()
	buf, err := report.ExportXLSX(report.Workbook{
		Sales:      report.Sales(completed, s.opts.Location),
		Products:   report.TopProducts(completed, 0),
		Categories: report.Categories(completed),
		Inventory:  report.InventoryReport(s.catalog.List()),
	})
	if err != nil {
		util.SpanError(span, err)
		return nil, err
	}
	return buf, nil
}

func (s *POSService) publishImported(ctx context.Context, products []models.Product) {
	event := &models.ProductsImportedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeProductsImported),
		Count:     len(products),
		Products:  products,
	}
	if err := s.publisher.PublishProductsImported(ctx, event); err != nil {
		util.EventPublishFailures.WithLabelValues(models.EventTypeProductsImported).Inc()
		s.logger.Error("Failed to publish ProductsImported event", zap.Error(err))
	}
}
