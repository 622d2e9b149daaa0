package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeOrder checks out one product as a fresh anonymous visitor.
func placeOrder(t *testing.T, app *testApp) uint {
	t.Helper()
	product := app.notebook(t, "ThinkPad X1", "1200.00")
	shopper := app.visitor()
	require.Equal(t, http.StatusOK, shopper.postForm(t, "/add-to-cart/"+product.Slug+"/", nil).Code)
	w := shopper.postForm(t, "/checkout/", orderForm())
	require.Equal(t, http.StatusCreated, w.Code)
	return uint(decode(t, w)["order"].(map[string]interface{})["id"].(float64))
}

func TestOrderController_ListAndGet(t *testing.T) {
	app := setupControllerTest(t)
	orderID := placeOrder(t, app)
	v := app.adminVisitor(t)

	w := v.get(t, "/api/v1/admin/orders")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["objects_count"])

	w = v.get(t, "/api/v1/admin/orders?status=completed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["objects_count"])

	w = v.get(t, "/api/v1/admin/orders?status=lost")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = v.get(t, fmt.Sprintf("/api/v1/admin/orders/%d", orderID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = v.get(t, "/api/v1/admin/orders/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ORDER_NOT_FOUND")
}

func TestOrderController_UpdateOrderStatus(t *testing.T) {
	app := setupControllerTest(t)
	orderID := placeOrder(t, app)
	v := app.adminVisitor(t)
	path := fmt.Sprintf("/api/v1/admin/orders/%d/status", orderID)

	w := v.sendJSON(t, http.MethodPatch, path, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "in_progress", decode(t, w)["order"].(map[string]interface{})["status"])

	w = v.sendJSON(t, http.MethodPatch, path, map[string]string{"status": "ready"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["order"].(map[string]interface{})["status"])

	w = v.sendJSON(t, http.MethodPatch, path, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ORDER_INVALID_STATUS")
}

func TestProfileController(t *testing.T) {
	app := setupControllerTest(t)

	w := app.visitor().get(t, "/profile/")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, token := app.registeredUser(t, "alice", "user")
	v := app.visitor()
	v.token = token

	w = v.get(t, "/profile/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	w = v.postForm(t, "/profile/", url.Values{"phone": {"not a phone"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "phone")

	w = v.postForm(t, "/profile/", url.Values{
		"first_name": {"Alice"},
		"phone":      {"+1 555 0100"},
		"address":    {"1 Infinite Loop"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	customer := decode(t, w)["customer"].(map[string]interface{})
	assert.Equal(t, "+1 555 0100", customer["phone"])
	assert.Equal(t, "Alice", customer["user"].(map[string]interface{})["first_name"])
}
