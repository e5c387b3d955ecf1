package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pos-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestHandleMessageRoutesSaleCompleted(t *testing.T) {
	handler := NewEventHandler()

	var got *models.SaleCompletedEvent
	handler.OnSaleCompleted(func(_ context.Context, e *models.SaleCompletedEvent) error {
		got = e
		return nil
	})

	event := &models.SaleCompletedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeSaleCompleted),
		Bill: models.Bill{
			ID:     "b1",
			BillNo: "BILL-000001",
			Total:  decimal.RequireFromString("15.00"),
		},
		StockLevels: []models.StockLevelData{{ProductID: "1", Stock: 23}},
	}

	require.NoError(t, handler.HandleMessage(context.Background(), message(t, event)))
	require.NotNil(t, got)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, "BILL-000001", got.Bill.BillNo)
	assert.True(t, decimal.RequireFromString("15").Equal(got.Bill.Total))
	assert.Equal(t, event.StockLevels, got.StockLevels)
}

func TestHandleMessagePropagatesHandlerError(t *testing.T) {
	handler := NewEventHandler()
	boom := errors.New("archive down")
	handler.OnProductsImported(func(context.Context, *models.ProductsImportedEvent) error {
		return boom
	})

	event := &models.ProductsImportedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeProductsImported),
		Count:     1,
	}
	err := handler.HandleMessage(context.Background(), message(t, event))
	assert.ErrorIs(t, err, boom)
}

func TestHandleMessageIgnoresUnknownAndUnhandled(t *testing.T) {
	handler := NewEventHandler()
	ctx := context.Background()

	assert.NoError(t, handler.HandleMessage(ctx, message(t, models.NewBaseEvent("SOMETHING_ELSE"))))
	assert.NoError(t, handler.HandleMessage(ctx, message(t, &models.BillGeneratedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeBillGenerated),
	})))
	assert.NoError(t, handler.HandleMessage(ctx, message(t, &models.SaleCompletedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeSaleCompleted),
	})))

	assert.Error(t, handler.HandleMessage(ctx, kafka.Message{Value: []byte("not json")}))
}
