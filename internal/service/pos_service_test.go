package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/catalog"
	"pos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu        sync.Mutex
	generated []*models.BillGeneratedEvent
	completed []*models.SaleCompletedEvent
	imported  []*models.ProductsImportedEvent
}

func (p *recordingPublisher) PublishBillGenerated(_ context.Context, e *models.BillGeneratedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generated = append(p.generated, e)
	return nil
}

func (p *recordingPublisher) PublishSaleCompleted(_ context.Context, e *models.SaleCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, e)
	return nil
}

func (p *recordingPublisher) PublishProductsImported(_ context.Context, e *models.ProductsImportedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imported = append(p.imported, e)
	return nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memoryIdempotency) GetIdempotencyKey(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	return v, ok, nil
}

func (m *memoryIdempotency) SetIdempotencyKey(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value.(string)
	return nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func qty(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func newTestService(t *testing.T, opts Options) (*POSService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewPOSService(catalog.New(catalog.DefaultProducts()...), pub, opts)
	return svc, pub
}

func TestAddItemByIDAndBarcode(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	line, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1", Quantity: qty("2")})
	require.NoError(t, err)
	assert.True(t, d("7.00").Equal(line.Total))

	line, err = svc.AddItem(ctx, "r1", AddItemRequest{Barcode: "1234567890124"})
	require.NoError(t, err)
	assert.Equal(t, "2", line.ProductID)

	view := svc.Cart(ctx, "r1")
	assert.Len(t, view.Items, 2)
	assert.True(t, d("9.50").Equal(view.Total))
	assert.True(t, d("1.25").Equal(view.TotalSavings))

	_, err = svc.AddItem(ctx, "r1", AddItemRequest{})
	assert.ErrorIs(t, err, models.ErrProductNotFound)

	_, err = svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "5", Unit: "crate"})
	assert.ErrorIs(t, err, models.ErrInvalidUnit)
}

func TestRegistersAreIndependent(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "r2", AddItemRequest{ProductID: "1"})
	require.NoError(t, err, "the same product may sit in two registers' carts")

	svc.ClearCart(ctx, "r1")
	assert.Empty(t, svc.Cart(ctx, "r1").Items)
	assert.Len(t, svc.Cart(ctx, "r2").Items, 1)
}

func TestPriceMismatchFlow(t *testing.T) {
	svc, _ := newTestService(t, Options{
		PriceFeed:      cart.StaticPriceFeed{"1": d("3.85")},
		PriceTolerance: d("0.01"),
	})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1"})
	require.ErrorIs(t, err, models.ErrPriceMismatch)
	assert.Empty(t, svc.Cart(ctx, "r1").Items)

	line, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1", ConfirmPrice: true})
	require.NoError(t, err)
	assert.True(t, d("3.50").Equal(line.SalePrice))
}

func TestUpdateConvertAndRemove(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1", Quantity: qty("2")})
	require.NoError(t, err)

	line, err := svc.ConvertItem(ctx, "r1", "1", "ML")
	require.NoError(t, err)
	assert.Equal(t, models.UnitML, line.Unit)
	assert.True(t, d("2000").Equal(line.Quantity))

	_, err = svc.ConvertItem(ctx, "r1", "1", "kg")
	assert.ErrorIs(t, err, models.ErrIncompatibleUnit)

	view, err := svc.UpdateItem(ctx, "r1", "1", d("500"))
	require.NoError(t, err)
	assert.True(t, d("1.75").Equal(view.Total))

	view, err = svc.UpdateItem(ctx, "r1", "1", decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = svc.UpdateItem(ctx, "r1", "1", d("1"))
	assert.ErrorIs(t, err, models.ErrProductNotFound)

	view = svc.RemoveItem(ctx, "r1", "1")
	assert.Empty(t, view.Items)
}

func TestGenerateAndCompleteSale(t *testing.T) {
	svc, pub := newTestService(t, Options{BillPrefix: "R1"})
	ctx := context.Background()

	_, err := svc.GenerateBill(ctx, "r1", "Cashier", "")
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	_, err = svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1", Quantity: qty("2")})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "2"})
	require.NoError(t, err)
	svc.SetCustomer(ctx, "r1", models.CustomerDetails{Name: " Ravi ", Phone: "9876543210"})

	bill, err := svc.GenerateBill(ctx, "r1", "Cashier", "")
	require.NoError(t, err)
	assert.Equal(t, "R1-000001", bill.BillNo)
	assert.Equal(t, "r1", bill.RegisterID)
	require.NotNil(t, bill.Customer)
	assert.Equal(t, "Ravi", bill.Customer.Name)
	assert.True(t, d("9.50").Equal(bill.Total))
	assert.Len(t, svc.Cart(ctx, "r1").Items, 2, "generating a bill leaves the cart alone")
	require.Len(t, pub.generated, 1)
	assert.Equal(t, bill.ID, pub.generated[0].BillID)

	sale, err := svc.CompleteSale(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.ID, sale.Bill.ID)

	view := svc.Cart(ctx, "r1")
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Customer)

	milk, err := svc.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 23, milk.Stock)

	require.Len(t, pub.completed, 1)
	assert.Equal(t, bill.ID, pub.completed[0].Bill.ID)
	assert.Equal(t, models.EventTypeSaleCompleted, pub.completed[0].EventType)

	_, err = svc.CompleteSale(ctx, bill.ID)
	assert.ErrorIs(t, err, models.ErrSaleAlreadyCompleted)
	assert.True(t, svc.IsCompleted(ctx, bill.ID))

	_, err = svc.CompleteSale(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrBillNotFound)
}

func TestGenerateBillIdempotency(t *testing.T) {
	svc, pub := newTestService(t, Options{Idempotency: &memoryIdempotency{keys: map[string]string{}}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "2"})
	require.NoError(t, err)

	first, err := svc.GenerateBill(ctx, "r1", "Cashier", "key-1")
	require.NoError(t, err)
	second, err := svc.GenerateBill(ctx, "r1", "Cashier", "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := svc.GenerateBill(ctx, "r1", "Cashier", "key-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	assert.Len(t, svc.ListBills(ctx), 2)
	assert.Len(t, pub.generated, 2)
}

func TestImportProducts(t *testing.T) {
	svc, pub := newTestService(t, Options{DefaultMinStock: 4})
	ctx := context.Background()

	input := "name,price,stock,category,barcode,unit\nTea,4.00,10,Drinks,555,pieces\n,1.00,1,,556,pieces\n"
	summary, err := svc.ImportProducts(ctx, "products.csv", strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, summary.Imported, 1)
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 4, summary.Imported[0].MinStock)
	assert.Equal(t, "9", summary.Imported[0].ID)

	tea, err := svc.GetProductByBarcode(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, "Tea", tea.Name)
	require.Len(t, pub.imported, 1)
	assert.Equal(t, 1, pub.imported[0].Count)

	again, err := svc.ImportProducts(ctx, "products.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, again.Imported, "a reused barcode is not imported twice")
	assert.Equal(t, 2, again.Dropped)

	_, err = svc.ImportProducts(ctx, "products.txt", strings.NewReader(input))
	assert.Error(t, err)
}

func TestAddProduct(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, models.Product{Name: "Jam", SalePrice: d("2.25"), Stock: 3, Unit: models.UnitPieces})
	require.NoError(t, err)
	assert.Equal(t, "General", p.Category)
	assert.True(t, d("2.25").Equal(p.MRP))

	_, err = svc.AddProduct(ctx, models.Product{Name: "Free", Unit: models.UnitPieces})
	assert.ErrorIs(t, err, models.ErrInvalidProduct)

	assert.Len(t, svc.SearchProducts(ctx, "jam"), 1)
}

func TestReportsUseCompletedSales(t *testing.T) {
	svc, _ := newTestService(t, Options{Location: time.UTC})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "r1", AddItemRequest{ProductID: "1", Quantity: qty("2")})
	require.NoError(t, err)
	bill, err := svc.GenerateBill(ctx, "r1", "Cashier", "")
	require.NoError(t, err)

	assert.Zero(t, svc.SalesReport(ctx).BillCount, "open bills are not sales yet")

	_, err = svc.CompleteSale(ctx, bill.ID)
	require.NoError(t, err)

	sales := svc.SalesReport(ctx)
	assert.Equal(t, 1, sales.BillCount)
	assert.True(t, d("7.00").Equal(sales.TotalSales))

	top := svc.TopProducts(ctx, 5)
	require.Len(t, top, 1)
	assert.Equal(t, "Milk", top[0].Name)

	categories := svc.CategoryReport(ctx)
	require.Len(t, categories, 1)
	assert.True(t, d("100").Equal(categories[0].Percent))

	inv := svc.InventoryReport(ctx)
	assert.Equal(t, 8, inv.TotalProducts)
	assert.Equal(t, 1, inv.OutOfStock)

	buf, err := svc.ExportReports(ctx)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}
