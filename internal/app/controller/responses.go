package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/imageguard"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	"github.com/ikkim/gadgetshop-backend/pkg/util"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors is checked in order with errors.Is.
var serviceErrors = []errorMapping{
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound, "product not found"},
	{service.ErrCategoryNotFound, http.StatusNotFound, apperrors.CategoryNotFound, "category not found"},
	{service.ErrCartNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "cart not found"},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound, "cart item not found"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.CartInvalidQuantity, "quantity must not be negative"},
	{service.ErrMissingCartItemToken, http.StatusBadRequest, apperrors.CartMissingToken, "cart_item_token is required"},
	{service.ErrCartConflict, http.StatusConflict, apperrors.CartConflict, "the cart was modified concurrently, retry"},
	{service.ErrCartFrozen, http.StatusConflict, apperrors.CartFrozen, "the cart has already been ordered"},
	{service.ErrEmptyCart, http.StatusBadRequest, apperrors.CheckoutEmptyCart, "the cart is empty"},
	{service.ErrCartAlreadyOrdered, http.StatusConflict, apperrors.CheckoutAlreadyOrdered, "the cart has already been ordered"},
	{service.ErrCheckoutFailed, http.StatusInternalServerError, apperrors.CheckoutFailed, "failed to place the order, try again later"},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "order not found"},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, apperrors.OrderInvalidStatus, "invalid order status"},
	{service.ErrUnknownProductKind, http.StatusBadRequest, apperrors.ProductInvalidKind, "unknown product kind"},
	{imageguard.ErrImageTooLarge, http.StatusBadRequest, apperrors.UploadFileTooLarge, "size exceeds 3MB"},
	{imageguard.ErrInvalidImage, http.StatusBadRequest, apperrors.UploadInvalidFileType, "only JPEG, PNG and GIF images are accepted"},
	{imageguard.ErrMinResolution, http.StatusBadRequest, apperrors.UploadMinResolution, "image must be at least 400x400"},
	{imageguard.ErrTooManyPixels, http.StatusBadRequest, apperrors.UploadTooManyPixels, "image dimensions are too large"},
	{service.ErrStorageUnavailable, http.StatusServiceUnavailable, apperrors.UploadFailed, "image storage is not configured"},
	{service.ErrUserAlreadyExists, http.StatusConflict, apperrors.AuthUsernameExists, "username is already taken"},
	{service.ErrReservedUsername, http.StatusBadRequest, apperrors.ValidationInvalidInput, "username is reserved"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid username or password"},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "user not found"},
	{util.ErrExpiredToken, http.StatusUnauthorized, apperrors.AuthTokenExpired, "token has expired"},
	{util.ErrInvalidToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid token"},
}

// respondServiceError writes the response for an error returned by a
// service. Unknown errors go through the persistence error parser.
func respondServiceError(c *gin.Context, err error, context string) {
	if formErr, ok := service.AsFormError(err); ok {
		apperrors.RespondWithValidationError(c, formErr.Fields)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	middleware.GetLoggerFromContext(c).Error("Unhandled service error", err, map[string]interface{}{
		"context": context,
	})
	info := apperrors.ParseError(err, context)
	apperrors.RespondWithError(c, statusForCode(info.Code), info.Code, info.Message)
}

func statusForCode(code string) int {
	switch code {
	case apperrors.ResourceNotFound:
		return http.StatusNotFound
	case apperrors.ResourceAlreadyExists, apperrors.ResourceConflict, apperrors.CartConflict,
		apperrors.AuthUsernameExists, apperrors.AuthEmailAlreadyExists:
		return http.StatusConflict
	case apperrors.ValidationRequired, apperrors.ValidationInvalidInput:
		return http.StatusBadRequest
	case apperrors.InternalExternalAPI:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+param)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// currentCustomer returns the customer resolved by the identity middleware.
func currentCustomer(c *gin.Context) (*model.Customer, bool) {
	customer, ok := middleware.GetCustomer(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return nil, false
	}
	return customer, true
}

// currentCart returns the acting customer and their active cart, creating
// the cart on first use. On failure the response has been written.
func currentCart(c *gin.Context, carts service.CartService) (*model.Customer, *model.Cart, bool) {
	customer, ok := currentCustomer(c)
	if !ok {
		return nil, nil, false
	}
	cart, err := carts.GetOrCreateCart(c.Request.Context(), customer)
	if err != nil {
		respondServiceError(c, err, "fetch cart")
		return nil, nil, false
	}
	return customer, cart, true
}

// Page is the envelope of paginated catalog API responses.
type Page struct {
	ObjectsCount int64       `json:"objects_count"`
	Next         *string     `json:"next"`
	Previous     *string     `json:"previous"`
	Items        interface{} `json:"items"`
}

func newPage(c *gin.Context, items interface{}, total int64, page, pageSize int) Page {
	p := Page{ObjectsCount: total, Items: items}
	if int64(page*pageSize) < total {
		next := pageURL(c, page+1)
		p.Next = &next
	}
	if page > 1 {
		prev := pageURL(c, page-1)
		p.Previous = &prev
	}
	return p
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
