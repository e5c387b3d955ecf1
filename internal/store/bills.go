package store

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/models"
)

// NewArchivedBill flattens a bill into its archive rows
func NewArchivedBill(bill models.Bill, completedAt time.Time) (models.ArchivedBill, []models.ArchivedBillItem) {
	archived := models.ArchivedBill{
		ID:           bill.ID,
		BillNo:       bill.BillNo,
		RegisterID:   bill.RegisterID,
		Cashier:      bill.Cashier,
		Total:        bill.Total,
		TotalSavings: bill.TotalSavings,
		IssuedAt:     bill.Timestamp,
		CompletedAt:  completedAt,
	}
	if bill.Customer != nil {
		archived.CustomerName = bill.Customer.Name
		archived.CustomerPhone = bill.Customer.Phone
	}

	items := make([]models.ArchivedBillItem, 0, len(bill.Items))
	for _, line := range bill.Items {
		items = append(items, models.ArchivedBillItem{
			BillID:    bill.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Unit:      string(line.Unit),
			SalePrice: line.SalePrice,
			Total:     line.Total,
			Savings:   line.Savings,
		})
	}
	return archived, items
}

// ArchiveSale stores a completed sale, applies the resulting stock levels and records the event,
// all in one transaction. A sale already archived under eventID is skipped.
func (s *Store) ArchiveSale(ctx context.Context, eventID string, event *models.SaleCompletedEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, models.EventTypeSaleCompleted)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	bill, items := NewArchivedBill(event.Bill, event.CompletedAt)

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO bills (id, bill_no, register_id, cashier, customer_name, customer_phone,
			total, total_savings, issued_at, completed_at)
		VALUES (:id, :bill_no, :register_id, :cashier, :customer_name, :customer_phone,
			:total, :total_savings, :issued_at, :completed_at)
		ON CONFLICT (id) DO NOTHING`, bill)
	if err != nil {
		return fmt.Errorf("failed to archive bill %s: %w", bill.BillNo, err)
	}

	for _, item := range items {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO bill_items (bill_id, product_id, name, quantity, unit, sale_price, total, savings)
			VALUES (:bill_id, :product_id, :name, :quantity, :unit, :sale_price, :total, :savings)`, item)
		if err != nil {
			return fmt.Errorf("failed to archive item %s of bill %s: %w", item.ProductID, bill.BillNo, err)
		}
	}

	for _, level := range event.StockLevels {
		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2",
			level.Stock, level.ProductID)
		if err != nil {
			return fmt.Errorf("failed to update stock for product %s: %w", level.ProductID, err)
		}
	}

	return tx.Commit()
}

// GetArchivedBill retrieves an archived bill and its items
func (s *Store) GetArchivedBill(ctx context.Context, id string) (*models.ArchivedBill, []models.ArchivedBillItem, error) {
	var bill models.ArchivedBill
	err := s.db.GetContext(ctx, &bill, `
		SELECT id, bill_no, register_id, cashier, customer_name, customer_phone,
			total, total_savings, issued_at, completed_at
		FROM bills WHERE id = $1`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load archived bill %s: %w", id, err)
	}

	var items []models.ArchivedBillItem
	err = s.db.SelectContext(ctx, &items, `
		SELECT id, bill_id, product_id, name, quantity, unit, sale_price, total, savings
		FROM bill_items WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load items of bill %s: %w", id, err)
	}
	return &bill, items, nil
}
