package repository

import (
	"testing"
	"time"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(customer *model.Customer, cartID uint) *model.Order {
	return &model.Order{
		CustomerID:    customer.ID,
		CartID:        &cartID,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Phone:         "+4912345678",
		Status:        model.OrderStatusNew,
		BuyingType:    model.BuyingTypeSelfPickup,
		TotalPrice:    decimal.RequireFromString("150"),
		RequestedDate: time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour),
	}
}

func TestOrderRepository_CreateAndLinkToCustomer(t *testing.T) {
	testDB, cartRepo, customer, cart, product := setupCartTest(t)
	orderRepo := NewOrderRepository(testDB)
	customerRepo := NewCustomerRepository(testDB)
	require.NoError(t, cartRepo.CreateItem(&model.CartItem{CustomerID: customer.ID, CartID: cart.ID, ProductID: product.ID, Quantity: 1}))

	order := newOrder(customer, cart.ID)
	require.NoError(t, orderRepo.Create(order))
	require.NoError(t, customerRepo.AppendOrder(customer, order))

	orders, err := customerRepo.FindOrders(customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	loaded, err := orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Cart)
	assert.Len(t, loaded.Cart.Items, 1)
	assert.Equal(t, product.ID, loaded.Cart.Items[0].Product.ID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	testDB, _, customer, cart, _ := setupCartTest(t)
	repo := NewOrderRepository(testDB)
	order := newOrder(customer, cart.ID)
	require.NoError(t, repo.Create(order))

	require.NoError(t, repo.UpdateStatus(order.ID, model.OrderStatusCompleted))
	orders, total, err := repo.FindAll(OrderFilter{Status: model.OrderStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, order.ID, orders[0].ID)

	assert.ErrorIs(t, repo.UpdateStatus(9999, model.OrderStatusCompleted), gorm.ErrRecordNotFound)
}
