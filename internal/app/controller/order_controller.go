package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
)

// OrderController is the admin order desk.
type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders returns orders, newest first, optionally filtered by ?status=
// GET /api/v1/admin/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	page, pageSize := service.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))

	orders, total, err := ctrl.orderService.ListOrders(model.OrderStatus(c.Query("status")), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, newPage(c, orders, total, page, pageSize))
}

// GetOrder
// GET /api/v1/admin/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(id)
	if err != nil {
		respondServiceError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order through its workflow
// PATCH /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "status is required")
		return
	}

	order, err := ctrl.orderService.UpdateStatus(id, model.OrderStatus(req.Status))
	if err != nil {
		respondServiceError(c, err, "update order")
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}
