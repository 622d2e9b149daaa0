package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPlacedMessage(t *testing.T) {
	cartID := uint(9)
	order := &model.Order{
		ID:            42,
		CustomerID:    7,
		CartID:        &cartID,
		Status:        model.OrderStatusNew,
		BuyingType:    model.BuyingTypeDelivery,
		TotalPrice:    decimal.RequireFromString("1299.5"),
		RequestedDate: time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	msg, err := orderPlacedMessage(order)
	require.NoError(t, err)

	assert.Equal(t, "7", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var event OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, uint(42), event.OrderID)
	assert.Equal(t, "1299.50", event.TotalPrice)
	assert.Equal(t, "2030-01-02", event.RequestedDate)
	assert.Equal(t, "delivery", event.BuyingType)
	require.NotNil(t, event.CartID)
	assert.Equal(t, uint(9), *event.CartID)
}
