package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher emits POS domain events
type Publisher interface {
	PublishBillGenerated(ctx context.Context, event *models.BillGeneratedEvent) error
	PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error
	PublishProductsImported(ctx context.Context, event *models.ProductsImportedEvent) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBillGenerated publishes BillGenerated event
func (ep *EventPublisher) PublishBillGenerated(ctx context.Context, event *models.BillGeneratedEvent) error {
	return ep.producer.PublishEvent(ctx, "bill-"+event.BillID, event)
}

// PublishSaleCompleted publishes SaleCompleted event
func (ep *EventPublisher) PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "bill-"+event.Bill.ID, event)
}

// PublishProductsImported publishes ProductsImported event
func (ep *EventPublisher) PublishProductsImported(ctx context.Context, event *models.ProductsImportedEvent) error {
	return ep.producer.PublishEvent(ctx, "catalog", event)
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) PublishBillGenerated(context.Context, *models.BillGeneratedEvent) error {
	return nil
}

func (NopPublisher) PublishSaleCompleted(context.Context, *models.SaleCompletedEvent) error {
	return nil
}

func (NopPublisher) PublishProductsImported(context.Context, *models.ProductsImportedEvent) error {
	return nil
}

// EventHandler handles incoming events
type EventHandler struct {
	onSaleCompleted    func(context.Context, *models.SaleCompletedEvent) error
	onProductsImported func(context.Context, *models.ProductsImportedEvent) error
	logger             *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnSaleCompleted registers a handler for SaleCompleted events
func (eh *EventHandler) OnSaleCompleted(handler func(context.Context, *models.SaleCompletedEvent) error) {
	eh.onSaleCompleted = handler
}

// OnProductsImported registers a handler for ProductsImported events
func (eh *EventHandler) OnProductsImported(handler func(context.Context, *models.ProductsImportedEvent) error) {
	eh.onProductsImported = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeSaleCompleted:
		if eh.onSaleCompleted != nil {
			var event models.SaleCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleCompleted event: %w", err)
			}
			return eh.onSaleCompleted(ctx, &event)
		}

	case models.EventTypeProductsImported:
		if eh.onProductsImported != nil {
			var event models.ProductsImportedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductsImported event: %w", err)
			}
			return eh.onProductsImported(ctx, &event)
		}

	case models.EventTypeBillGenerated:
		// informational only

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
