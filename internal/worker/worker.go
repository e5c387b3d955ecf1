package worker

import (
	"context"
	"fmt"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// ArchiveStore is the persistence the archive worker writes to
type ArchiveStore interface {
	ArchiveSale(ctx context.Context, eventID string, event *models.SaleCompletedEvent) error
	UpsertProducts(ctx context.Context, products []models.Product) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// ArchiveWorker copies completed sales and catalog imports into the archive database
type ArchiveWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        ArchiveStore
	logger       *zap.Logger
}

// NewArchiveWorker creates a new archive worker
func NewArchiveWorker(consumer *broker.Consumer, store ArchiveStore) *ArchiveWorker {
	w := &ArchiveWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		store:        store,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnSaleCompleted(w.HandleSaleCompleted)
	w.eventHandler.OnProductsImported(w.HandleProductsImported)

	return w
}

// Start starts the worker
func (w *ArchiveWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting archive worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ArchiveWorker) Stop() error {
	w.logger.Info("Stopping archive worker")
	return w.consumer.Close()
}

// HandleSaleCompleted archives the sale; replays of the same event are ignored by the store
func (w *ArchiveWorker) HandleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "ArchiveWorker.HandleSaleCompleted")
	defer span.End()

	if err := w.store.ArchiveSale(ctx, event.EventID, event); err != nil {
		util.ArchiveFailuresTotal.WithLabelValues(models.EventTypeSaleCompleted).Inc()
		return fmt.Errorf("failed to archive sale %s: %w", event.Bill.BillNo, err)
	}

	util.SalesArchivedTotal.Inc()
	w.logger.Info("Sale archived",
		zap.String("bill_id", event.Bill.ID),
		zap.String("bill_no", event.Bill.BillNo))
	return nil
}

// HandleProductsImported persists imported products once per event
func (w *ArchiveWorker) HandleProductsImported(ctx context.Context, event *models.ProductsImportedEvent) error {
	ctx, span := util.StartSpan(ctx, "ArchiveWorker.HandleProductsImported")
	defer span.End()

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", event.EventID, err)
	}
	if processed {
		w.logger.Debug("Import already archived", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.store.UpsertProducts(ctx, event.Products); err != nil {
		util.ArchiveFailuresTotal.WithLabelValues(models.EventTypeProductsImported).Inc()
		return fmt.Errorf("failed to archive imported products: %w", err)
	}
	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", event.EventID, err)
	}

	w.logger.Info("Imported products archived", zap.Int("count", len(event.Products)))
	return nil
}
