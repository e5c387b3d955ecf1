package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeBillGenerated    = "BILL_GENERATED"
	EventTypeSaleCompleted    = "SALE_COMPLETED"
	EventTypeProductsImported = "PRODUCTS_IMPORTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// BillGeneratedEvent published when a bill is generated
type BillGeneratedEvent struct {
	BaseEvent
	BillID     string          `json:"bill_id"`
	BillNo     string          `json:"bill_no"`
	RegisterID string          `json:"register_id"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
}

// SaleCompletedEvent published when a sale is completed and stock decremented
type SaleCompletedEvent struct {
	BaseEvent
	Bill        Bill             `json:"bill"`
	CompletedAt time.Time        `json:"completed_at"`
	StockLevels []StockLevelData `json:"stock_levels"`
}

// StockLevelData carries the stock left for a product after a sale
type StockLevelData struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// ProductsImportedEvent published after a catalog import
type ProductsImportedEvent struct {
	BaseEvent
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}
