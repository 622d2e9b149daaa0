package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
)

type CheckoutController struct {
	carts    service.CartService
	checkout service.CheckoutService
}

func NewCheckoutController(carts service.CartService, checkout service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		carts:    carts,
		checkout: checkout,
	}
}

// GetCheckout returns the prefilled order form and cart summary
// GET /checkout/
func (ctrl *CheckoutController) GetCheckout(c *gin.Context) {
	customer, cart, ok := currentCart(c, ctrl.carts)
	if !ok {
		return
	}

	view, err := ctrl.checkout.GetCheckout(c.Request.Context(), customer, cart)
	if err != nil {
		respondServiceError(c, err, "fetch checkout")
		return
	}
	c.JSON(http.StatusOK, view)
}

// PlaceOrder turns the active cart into an order
// POST /checkout/
func (ctrl *CheckoutController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customer, cart, ok := currentCart(c, ctrl.carts)
	if !ok {
		return
	}

	var form service.OrderForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"customer_id": customer.ID,
			"error":       err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	order, err := ctrl.checkout.PlaceOrder(c.Request.Context(), customer, cart, form)
	if err != nil {
		respondServiceError(c, err, "place order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Thank you for your order",
		"order":        order,
		"redirect_url": "/",
	})
}
