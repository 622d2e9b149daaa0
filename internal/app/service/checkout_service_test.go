package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/payment/intent"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func validForm() OrderForm {
	return OrderForm{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Phone:         "+49 1234 5678",
		BuyingType:    model.BuyingTypeSelfPickup,
		RequestedDate: tomorrow(),
	}
}

func setupCheckoutTest(t *testing.T) (*testEnv, CheckoutService, *recordingPublisher, *model.Customer, *model.Cart) {
	env, customer, cart, product := setupCartServiceTest(t)
	cart, _, err := env.carts.AddItem(context.Background(), customer, cart, product.Slug)
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	checkout := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, env.customerRepo, publisher, nil)
	return env, checkout, publisher, customer, cart
}

func TestCheckoutService_PlaceOrder_Success(t *testing.T) {
	env, checkout, publisher, customer, cart := setupCheckoutTest(t)

	order, err := checkout.PlaceOrder(context.Background(), customer, cart, validForm())

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, order.Status)
	assert.True(t, decimal.RequireFromString("150").Equal(order.TotalPrice))
	require.NotNil(t, order.CartID)
	assert.Equal(t, cart.ID, *order.CartID)

	frozen, err := env.cartRepo.FindByID(cart.ID)
	require.NoError(t, err)
	assert.True(t, frozen.InOrder)

	orders, err := env.customerRepo.FindOrders(customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	assert.Equal(t, []uint{order.ID}, publisher.orders)
}

func TestCheckoutService_PlaceOrder_SecondAttemptRejected(t *testing.T) {
	env, checkout, _, customer, cart := setupCheckoutTest(t)
	ctx := context.Background()
	_, err := checkout.PlaceOrder(ctx, customer, cart, validForm())
	require.NoError(t, err)

	_, err = checkout.PlaceOrder(ctx, customer, cart, validForm())

	assert.ErrorIs(t, err, ErrCartAlreadyOrdered)
	orders, err := env.customerRepo.FindOrders(customer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCheckoutService_PlaceOrder_EmptyCart(t *testing.T) {
	env := setupServiceTest(t)
	customer := env.customer(t, "carol", model.RoleUser)
	cart, err := env.carts.GetOrCreateCart(context.Background(), customer)
	require.NoError(t, err)
	checkout := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, env.customerRepo, nil, nil)

	_, err = checkout.PlaceOrder(context.Background(), customer, cart, validForm())

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutService_PlaceOrder_InvalidForm(t *testing.T) {
	env, checkout, publisher, customer, cart := setupCheckoutTest(t)

	form := validForm()
	form.Phone = "call me"
	form.BuyingType = model.BuyingTypeDelivery
	form.FirstName = ""

	_, err := checkout.PlaceOrder(context.Background(), customer, cart, form)

	fe, ok := AsFormError(err)
	require.True(t, ok)
	assert.Contains(t, fe.Fields, "phone")
	assert.Contains(t, fe.Fields, "address")
	assert.Contains(t, fe.Fields, "first_name")

	unchanged, err := env.cartRepo.FindByID(cart.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.InOrder)
	assert.Empty(t, publisher.orders)
}

func TestCheckoutService_PlaceOrder_PastDate(t *testing.T) {
	_, checkout, _, customer, cart := setupCheckoutTest(t)

	form := validForm()
	form.RequestedDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	_, err := checkout.PlaceOrder(context.Background(), customer, cart, form)

	fe, ok := AsFormError(err)
	require.True(t, ok)
	assert.Equal(t, "must not be in the past", fe.Fields["order_date"])
}

func TestCheckoutService_PlaceOrder_DeliveryWithAddress(t *testing.T) {
	_, checkout, _, customer, cart := setupCheckoutTest(t)

	form := validForm()
	form.BuyingType = model.BuyingTypeDelivery
	form.Address = "1 Analytical Engine Way"

	order, err := checkout.PlaceOrder(context.Background(), customer, cart, form)

	require.NoError(t, err)
	assert.Equal(t, model.BuyingTypeDelivery, order.BuyingType)
	assert.Equal(t, "1 Analytical Engine Way", order.Address)
}

func TestCheckoutService_PlaceOrder_PublishFailureDoesNotFail(t *testing.T) {
	_, checkout, publisher, customer, cart := setupCheckoutTest(t)
	publisher.err = errors.New("broker down")

	order, err := checkout.PlaceOrder(context.Background(), customer, cart, validForm())

	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestCheckoutService_GetCheckout_PaymentIntent(t *testing.T) {
	env, _, _, customer, cart := setupCheckoutTest(t)
	payments := &stubPayments{}
	checkout := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, env.customerRepo, nil, payments)

	view, err := checkout.GetCheckout(context.Background(), customer, cart)

	require.NoError(t, err)
	assert.Equal(t, int64(15000), view.AmountMinor)
	assert.Equal(t, "pi_1_secret", view.PaymentClientSecret)
	require.Len(t, payments.requests, 1)
	assert.Equal(t, int64(15000), payments.requests[0].Amount)
	assert.Equal(t, "Ada", view.Form.FirstName)
}

func TestCheckoutService_GetCheckout_PaymentFailureIgnored(t *testing.T) {
	env, _, _, customer, cart := setupCheckoutTest(t)
	checkout := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, env.customerRepo, nil, &stubPayments{err: errors.New("gateway down")})

	view, err := checkout.GetCheckout(context.Background(), customer, cart)

	require.NoError(t, err)
	assert.Empty(t, view.PaymentClientSecret)
}

// failingOrderLink breaks the last write of the checkout transaction.
type failingOrderLink struct {
	repository.CustomerRepository
}

func (f failingOrderLink) WithTx(tx *gorm.DB) repository.CustomerRepository {
	return failingOrderLink{f.CustomerRepository.WithTx(tx)}
}

func (failingOrderLink) AppendOrder(*model.Customer, *model.Order) error {
	return errors.New("customer_orders unavailable")
}

func TestCheckoutService_PlaceOrder_RollsBackOnFailure(t *testing.T) {
	env, _, _, customer, cart := setupCheckoutTest(t)
	publisher := &recordingPublisher{}
	checkout := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, failingOrderLink{env.customerRepo}, publisher, nil)
	ctx := context.Background()

	before, err := env.cartRepo.FindByID(cart.ID)
	require.NoError(t, err)

	_, err = checkout.PlaceOrder(ctx, customer, cart, validForm())

	require.ErrorIs(t, err, ErrCheckoutFailed)

	var orderCount int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	after, err := env.cartRepo.FindByID(cart.ID)
	require.NoError(t, err)
	assert.False(t, after.InOrder)
	assert.Equal(t, before.Version, after.Version)
	assert.Empty(t, publisher.orders)

	// the untouched cart can still be checked out
	order, err := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, env.customerRepo, publisher, nil).
		PlaceOrder(ctx, customer, cart, validForm())
	require.NoError(t, err)
	assert.Equal(t, []uint{order.ID}, publisher.orders)
}

func TestCheckoutService_GetCheckout_StripeIntent(t *testing.T) {
	env, _, _, customer, cart := setupCheckoutTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "15000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, strconv.FormatUint(uint64(cart.ID), 10), r.PostForm.Get("metadata[cart_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_9","object":"payment_intent","amount":15000,"currency":"usd","status":"requires_payment_method","client_secret":"pi_9_secret"}`))
	}))
	t.Cleanup(server.Close)

	client, err := intent.NewClient(intent.Config{SecretKey: "sk_test", BaseURL: server.URL, Currency: "usd"})
	require.NoError(t, err)
	checkout := NewCheckoutService(env.db, env.cartRepo, env.orderRepo, env.customerRepo, nil, client)

	view, err := checkout.GetCheckout(context.Background(), customer, cart)

	require.NoError(t, err)
	assert.Equal(t, "pi_9", view.PaymentIntentID)
	assert.Equal(t, "pi_9_secret", view.PaymentClientSecret)
}
