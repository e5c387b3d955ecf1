package billing

import (
	"fmt"
	"sync"
	"time"

	"pos-service/internal/models"
)

// History is the append-only record of generated bills.
// A bill becomes visible only once fully built.
type History struct {
	mu        sync.RWMutex
	seq       int64
	bills     []models.Bill
	index     map[string]int
	completed map[string]time.Time
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{
		index:     make(map[string]int),
		completed: make(map[string]time.Time),
	}
}

// Record allocates the next sequence number, builds the bill with it and appends the result
// in one step, so bill numbers are never reused or observed out of order.
func (h *History) Record(build func(seq int64) models.Bill) models.Bill {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	bill := build(h.seq)
	h.index[bill.ID] = len(h.bills)
	h.bills = append(h.bills, bill)
	return cloneBill(bill)
}

// Get returns the bill with the given id
func (h *History) Get(id string) (models.Bill, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	i, ok := h.index[id]
	if !ok {
		return models.Bill{}, fmt.Errorf("%w: %s", models.ErrBillNotFound, id)
	}
	return cloneBill(h.bills[i]), nil
}

// List returns every bill, oldest first
func (h *History) List() []models.Bill {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.Bill, 0, len(h.bills))
	for _, b := range h.bills {
		out = append(out, cloneBill(b))
	}
	return out
}

// Completed returns the bills whose sale has been completed, oldest first
func (h *History) Completed() []models.Bill {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.Bill, 0, len(h.completed))
	for _, b := range h.bills {
		if _, ok := h.completed[b.ID]; ok {
			out = append(out, cloneBill(b))
		}
	}
	return out
}

// IsCompleted reports whether the sale for bill id has been completed
func (h *History) IsCompleted(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.completed[id]
	return ok
}

// Len returns the number of bills
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bills)
}

// complete runs apply while holding the write lock and marks the bill completed if it succeeds
func (h *History) complete(id string, at time.Time, apply func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.index[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrBillNotFound, id)
	}
	if _, done := h.completed[id]; done {
		return fmt.Errorf("%w: %s", models.ErrSaleAlreadyCompleted, id)
	}
	if err := apply(); err != nil {
		return err
	}
	h.completed[id] = at
	return nil
}

func cloneBill(b models.Bill) models.Bill {
	out := b
	out.Items = make([]models.CartLine, len(b.Items))
	copy(out.Items, b.Items)
	if b.Customer != nil {
		c := *b.Customer
		out.Customer = &c
	}
	return out
}
