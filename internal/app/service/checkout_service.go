package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/ikkim/gadgetshop-backend/pkg/payment/intent"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const requestedDateLayout = "2006-01-02"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCartAlreadyOrdered = errors.New("cart has already been ordered")
	ErrCheckoutFailed     = errors.New("checkout failed")
)

// OrderForm is the checkout form. Address is only required for delivery.
type OrderForm struct {
	FirstName     string           `form:"first_name" json:"first_name" validate:"required,max=255"`
	LastName      string           `form:"last_name" json:"last_name" validate:"required,max=255"`
	Phone         string           `form:"phone" json:"phone" validate:"required,max=20,phone"`
	Address       string           `form:"address" json:"address" validate:"required_if=BuyingType delivery,max=1024"`
	BuyingType    model.BuyingType `form:"buying_type" json:"buying_type" validate:"required,oneof=self_pickup delivery"`
	RequestedDate string           `form:"order_date" json:"order_date" validate:"required,datetime=2006-01-02"`
	Comment       string           `form:"comment" json:"comment"`
}

// OrderEventPublisher announces committed orders.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *model.Order) error
}

// PaymentIntentCreator registers a payment with the external gateway.
type PaymentIntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req intent.CreateRequest) (*intent.Intent, error)
}

// CheckoutView is what the checkout page needs before the form is submitted.
type CheckoutView struct {
	Cart                *model.Cart `json:"cart"`
	Summary             CartSummary `json:"summary"`
	Form                OrderForm   `json:"form"`
	AmountMinor         int64       `json:"amount_minor"`
	PaymentIntentID     string      `json:"payment_intent_id,omitempty"`
	PaymentClientSecret string      `json:"client_secret,omitempty"`
}

type CheckoutService interface {
	GetCheckout(ctx context.Context, customer *model.Customer, cart *model.Cart) (*CheckoutView, error)
	PlaceOrder(ctx context.Context, customer *model.Customer, cart *model.Cart, form OrderForm) (*model.Order, error)
}

type checkoutService struct {
	db           *gorm.DB
	cartRepo     repository.CartRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	events       OrderEventPublisher
	payments     PaymentIntentCreator
	validate     *validator.Validate
	now          func() time.Time
}

func NewCheckoutService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	events OrderEventPublisher,
	payments PaymentIntentCreator,
) CheckoutService {
	return &checkoutService{
		db:           db,
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		events:       events,
		payments:     payments,
		validate:     newValidator(),
		now:          time.Now,
	}
}

func (s *checkoutService) GetCheckout(ctx context.Context, customer *model.Customer, cart *model.Cart) (*CheckoutView, error) {
	view := &CheckoutView{
		Cart:    cart,
		Summary: SummarizeCart(cart),
		Form: OrderForm{
			FirstName:     customer.User.FirstName,
			LastName:      customer.User.LastName,
			Phone:         customer.Phone,
			Address:       customer.Address,
			BuyingType:    model.BuyingTypeSelfPickup,
			RequestedDate: s.now().Format(requestedDateLayout),
		},
		AmountMinor: minorUnits(cart.TotalPrice),
	}

	if s.payments == nil || view.AmountMinor <= 0 {
		return view, nil
	}

	pi, err := s.payments.CreatePaymentIntent(ctx, intent.CreateRequest{
		Amount: view.AmountMinor,
		Metadata: map[string]string{
			"cart_id":     strconv.FormatUint(uint64(cart.ID), 10),
			"customer_id": strconv.FormatUint(uint64(customer.ID), 10),
		},
	})
	if err != nil {
		logger.Warn("Payment intent unavailable", map[string]interface{}{
			"cart_id": cart.ID,
			"error":   err.Error(),
		})
		return view, nil
	}
	view.PaymentIntentID = pi.ID
	view.PaymentClientSecret = pi.ClientSecret
	return view, nil
}

// PlaceOrder turns the cart into an order. The order insert, the cart freeze
// and the customer link commit together or not at all.
func (s *checkoutService) PlaceOrder(ctx context.Context, customer *model.Customer, cart *model.Cart, form OrderForm) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"customer_id": customer.ID,
		"cart_id":     cart.ID,
		"buying_type": form.BuyingType,
	})

	requested, err := s.validateForm(&form)
	if err != nil {
		logger.Warn("Order form rejected", map[string]interface{}{
			"customer_id": customer.ID,
			"error":       err.Error(),
		})
		return nil, err
	}

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		locked, err := cartRepo.FindByIDForUpdate(cart.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return err
		}
		if locked.OwnerID != customer.ID {
			return ErrCartNotFound
		}
		if locked.InOrder {
			return ErrCartAlreadyOrdered
		}

		items, err := cartRepo.ListItems(locked.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		locked.Items = items
		locked.RecomputeTotals()

		cartID := locked.ID
		order = &model.Order{
			CustomerID:    customer.ID,
			CartID:        &cartID,
			FirstName:     form.FirstName,
			LastName:      form.LastName,
			Phone:         form.Phone,
			Address:       form.Address,
			Status:        model.OrderStatusNew,
			BuyingType:    form.BuyingType,
			Comment:       form.Comment,
			TotalPrice:    locked.TotalPrice,
			RequestedDate: requested,
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		if err := cartRepo.MarkInOrder(locked); err != nil {
			return err
		}
		return s.customerRepo.WithTx(tx).AppendOrder(customer, order)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCartNotFound), errors.Is(err, ErrCartAlreadyOrdered), errors.Is(err, ErrEmptyCart):
			logger.Warn("Checkout refused", map[string]interface{}{
				"customer_id": customer.ID,
				"cart_id":     cart.ID,
				"reason":      err.Error(),
			})
			return nil, err
		case errors.Is(err, repository.ErrStaleCart):
			return nil, ErrCartConflict
		}
		logger.Error("Checkout transaction failed", err, map[string]interface{}{
			"customer_id": customer.ID,
			"cart_id":     cart.ID,
		})
		return nil, errors.Join(ErrCheckoutFailed, err)
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": customer.ID,
		"total":       order.TotalPrice.String(),
	})

	if s.events != nil {
		if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
			logger.Warn("Failed to publish order event", map[string]interface{}{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	return order, nil
}

func (s *checkoutService) validateForm(form *OrderForm) (time.Time, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Address = strings.TrimSpace(form.Address)
	form.RequestedDate = strings.TrimSpace(form.RequestedDate)

	if err := s.validate.Struct(form); err != nil {
		return time.Time{}, formErrorFrom(err)
	}

	now := s.now()
	requested, err := time.ParseInLocation(requestedDateLayout, form.RequestedDate, now.Location())
	if err != nil {
		return time.Time{}, &FormError{Fields: map[string]string{"order_date": "must be a date in YYYY-MM-DD format"}}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if requested.Before(today) {
		return time.Time{}, &FormError{Fields: map[string]string{"order_date": "must not be in the past"}}
	}
	return requested, nil
}

// minorUnits converts a money amount to the smallest currency unit.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
