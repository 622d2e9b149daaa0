package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
)

const cartRedirectURL = "/cart/"

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type RemoveFromCartRequest struct {
	CartItemToken string `form:"cart_item_token" json:"cart_item_token"`
}

type ChangeQuantityRequest struct {
	CartItemToken string `form:"cart_item_token" json:"cart_item_token"`
	Quantity      *int   `form:"quantity" json:"quantity"`
}

// GetCart returns the visitor's active cart
// GET /cart/
func (ctrl *CartController) GetCart(c *gin.Context) {
	_, cart, ok := currentCart(c, ctrl.cartService)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":    cart,
		"summary": service.SummarizeCart(cart),
	})
}

// AddToCart puts one unit of the product into the cart unless it is there already
// GET|POST /add-to-cart/:slug/
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customer, cart, ok := currentCart(c, ctrl.cartService)
	if !ok {
		return
	}

	slug := c.Param("slug")
	cart, created, err := ctrl.cartService.AddItem(c.Request.Context(), customer, cart, slug)
	if err != nil {
		log.Warn("Failed to add item to cart", map[string]interface{}{
			"customer_id": customer.ID,
			"slug":        slug,
			"error":       err.Error(),
		})
		respondServiceError(c, err, "add product to cart")
		return
	}

	message := "Product is already in the cart"
	if created {
		message = "Product added to the cart"
	}
	c.JSON(http.StatusOK, gin.H{
		"created":      created,
		"message":      message,
		"redirect_url": cartRedirectURL,
		"summary":      service.SummarizeCart(cart),
	})
}

// RemoveFromCart deletes a cart line
// POST /remove-from-cart/:slug/
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	customer, cart, ok := currentCart(c, ctrl.cartService)
	if !ok {
		return
	}

	var req RemoveFromCartRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	cart, err := ctrl.cartService.RemoveItem(c.Request.Context(), customer, cart, req.CartItemToken)
	if err != nil {
		respondServiceError(c, err, "remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redirect_url": cartRedirectURL,
		"summary":      service.SummarizeCart(cart),
	})
}

// ChangeQuantity sets the quantity of a cart line; zero removes it
// POST /change-product-quantity/:slug/
func (ctrl *CartController) ChangeQuantity(c *gin.Context) {
	customer, cart, ok := currentCart(c, ctrl.cartService)
	if !ok {
		return
	}

	var req ChangeQuantityRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.BadRequest(c, apperrors.CartInvalidQuantity, "quantity must be an integer")
		return
	}
	if req.Quantity == nil {
		apperrors.BadRequest(c, apperrors.CartInvalidQuantity, "quantity is required")
		return
	}

	cart, item, err := ctrl.cartService.SetQuantity(c.Request.Context(), customer, cart, req.CartItemToken, *req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			apperrors.BadRequest(c, apperrors.CartItemNotFound, "unknown cart_item_token")
			return
		}
		respondServiceError(c, err, "change cart item quantity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quantity":         item.Quantity,
		"line_total":       item.LineTotal,
		"total_item_count": cart.TotalItemCount,
		"total_price":      cart.TotalPrice,
	})
}
