package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Category      string          `db:"category" json:"category"`
	Barcode       string          `db:"barcode" json:"barcode,omitempty"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	MRP           decimal.Decimal `db:"mrp" json:"mrp"`
	SalePrice     decimal.Decimal `db:"sale_price" json:"sale_price"`
	Stock         int             `db:"stock" json:"stock"`
	Unit          Unit            `db:"unit" json:"unit"`
	MinStock      int             `db:"min_stock" json:"min_stock"`
}

// CartLine is one product's presence in the active cart.
// Quantity is expressed in Unit; NativeQuantity is the same amount in the product's
// native unit and is what Total and Savings are derived from.
type CartLine struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           Unit            `json:"unit"`
	NativeQuantity decimal.Decimal `json:"native_quantity"`
	NativeUnit     Unit            `json:"native_unit"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	MRP            decimal.Decimal `json:"mrp"`
	Total          decimal.Decimal `json:"total"`
	Savings        decimal.Decimal `json:"savings"`
}

// CustomerDetails is free-form and not validated
type CustomerDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// IsEmpty reports whether no customer detail was captured
func (c *CustomerDetails) IsEmpty() bool {
	return c == nil || (c.Name == "" && c.Phone == "")
}

// Bill is an immutable snapshot of a cart at generation time
type Bill struct {
	ID           string           `json:"id"`
	BillNo       string           `json:"bill_no"`
	Timestamp    time.Time        `json:"timestamp"`
	RegisterID   string           `json:"register_id,omitempty"`
	Cashier      string           `json:"cashier,omitempty"`
	Items        []CartLine       `json:"items"`
	Total        decimal.Decimal  `json:"total"`
	TotalSavings decimal.Decimal  `json:"total_savings"`
	Customer     *CustomerDetails `json:"customer,omitempty"`
}

// User roles
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Languages supported by the message table
const (
	LanguageTelugu  = "te"
	LanguageEnglish = "en"
)

// Session is the logged-in operator state kept between requests
type Session struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchivedBill is the archive row for a completed sale
type ArchivedBill struct {
	ID            string          `db:"id" json:"id"`
	BillNo        string          `db:"bill_no" json:"bill_no"`
	RegisterID    string          `db:"register_id" json:"register_id"`
	Cashier       string          `db:"cashier" json:"cashier"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	CustomerPhone string          `db:"customer_phone" json:"customer_phone"`
	Total         decimal.Decimal `db:"total" json:"total"`
	TotalSavings  decimal.Decimal `db:"total_savings" json:"total_savings"`
	IssuedAt      time.Time       `db:"issued_at" json:"issued_at"`
	CompletedAt   time.Time       `db:"completed_at" json:"completed_at"`
}

// ArchivedBillItem is one archived line of a completed sale
type ArchivedBillItem struct {
	ID        int64           `db:"id" json:"id"`
	BillID    string          `db:"bill_id" json:"bill_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	Unit      string          `db:"unit" json:"unit"`
	SalePrice decimal.Decimal `db:"sale_price" json:"sale_price"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Savings   decimal.Decimal `db:"savings" json:"savings"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
