package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	"github.com/ikkim/gadgetshop-backend/internal/websocket"
)

// CartSocketController streams cart totals to the visitor's open pages.
type CartSocketController struct {
	hub      *websocket.Hub
	upgrader *gorillaws.Upgrader
}

func NewCartSocketController(hub *websocket.Hub, allowedOrigins []string) *CartSocketController {
	return &CartSocketController{
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Connect upgrades the request and subscribes it to the customer's cart
// GET /ws/cart
func (ctrl *CartSocketController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customer, ok := currentCustomer(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"customer_id": customer.ID,
			"error":       err.Error(),
		})
		return
	}

	client := websocket.NewClient(ctrl.hub, &websocket.Conn{Conn: conn}, customer.ID)
	ctrl.hub.Register(client)

	log.Debug("Cart socket connected", map[string]interface{}{
		"customer_id": customer.ID,
	})

	go client.WritePump()
	go client.ReadPump()
}
