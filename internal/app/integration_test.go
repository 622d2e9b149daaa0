package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/controller"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	"github.com/ikkim/gadgetshop-backend/internal/db"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	"github.com/ikkim/gadgetshop-backend/internal/router"
	"github.com/ikkim/gadgetshop-backend/internal/websocket"
	redispkg "github.com/ikkim/gadgetshop-backend/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Hub    *websocket.Hub
	Admin  service.ProductAdminService
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode},
		JWT:     config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: 15 * time.Minute, RefreshTokenExpiry: time.Hour},
		Session: config.SessionConfig{CookieName: "anon_session", TTL: time.Hour},
	}

	userRepo := repository.NewUserRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	hub := websocket.NewHub()
	go hub.Run()

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	sessions := redispkg.NewMemorySessionStore()
	identityService := service.NewIdentityService(testDB, userRepo, customerRepo, cartRepo, sessions, cfg.Session.TTL)
	cartService := service.NewCartService(testDB, cartRepo, productRepo, hub)
	catalogService := service.NewCatalogService(categoryRepo, productRepo)
	adminService := service.NewProductAdminService(testDB, categoryRepo, productRepo, cartRepo, cartService, nil)
	checkoutService := service.NewCheckoutService(testDB, cartRepo, orderRepo, customerRepo, nil, nil)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, nil)
	identityMiddleware := middleware.NewIdentityMiddleware(identityService, cfg.Session)

	r := router.NewRouter(
		controller.NewStorefrontController(catalogService, cartService),
		controller.NewCartController(cartService),
		controller.NewCheckoutController(cartService, checkoutService),
		controller.NewProfileController(service.NewProfileService(testDB, userRepo, customerRepo)),
		controller.NewAuthController(authService, identityService, cartService, identityMiddleware, nil, cfg.JWT.Secret),
		controller.NewCatalogController(catalogService),
		controller.NewProductController(adminService),
		controller.NewUploadController(adminService),
		controller.NewOrderController(service.NewOrderService(orderRepo)),
		controller.NewCartSocketController(hub, nil),
		authMiddleware,
		identityMiddleware,
		cfg,
	)

	server := httptest.NewServer(r.Setup())
	t.Cleanup(func() {
		server.Close()
		hub.Stop()
		sessions.Close()
		db.CleanupTestDB(testDB)
	})

	return &TestServer{
		Server: server,
		DB:     testDB,
		Hub:    hub,
		Admin:  adminService,
	}
}

// browser returns a client that keeps cookies, like a shopper's browser.
func (ts *TestServer) browser(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (ts *TestServer) seedNotebook(t *testing.T, name, price string) *model.Product {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	category, err := ts.Admin.CreateCategory(ctx, service.CategoryInput{Name: "Laptops"})
	require.NoError(t, err)
	product, err := ts.Admin.CreateProduct(ctx, service.ProductInput{
		Kind:       model.ProductKindNotebook,
		CategoryID: category.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Notebook:   &model.NotebookSpec{Diagonal: "14"},
	})
	require.NoError(t, err)
	return product
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestIntegration_Health(t *testing.T) {
	ts := setupIntegrationTest(t)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestIntegration_AnonymousShoppingToOrder(t *testing.T) {
	ts := setupIntegrationTest(t)
	product := ts.seedNotebook(t, "ThinkPad X1", "1200.00")
	client := ts.browser(t)

	resp, err := client.Post(ts.Server.URL+"/add-to-cart/"+product.Slug+"/", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	form := url.Values{
		"first_name":  {"Grace"},
		"last_name":   {"Hopper"},
		"phone":       {"5550100"},
		"address":     {"1 Navy Yard"},
		"buying_type": {"delivery"},
		"order_date":  {time.Now().AddDate(0, 0, 2).Format("2006-01-02")},
		"comment":     {"ring twice"},
	}
	resp, err = client.PostForm(ts.Server.URL+"/checkout/", form)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decodeBody(t, resp)["order"].(map[string]interface{})
	assert.Equal(t, "delivery", order["buying_type"])

	var cart model.Cart
	require.NoError(t, ts.DB.Where("in_order = ?", true).First(&cart).Error)
	assert.Equal(t, 1, cart.TotalItemCount)
	assert.True(t, decimal.NewFromInt(1200).Equal(cart.TotalPrice))
}

func TestIntegration_CartSocketReceivesTotals(t *testing.T) {
	ts := setupIntegrationTest(t)
	product := ts.seedNotebook(t, "ThinkPad X1", "99.50")
	client := ts.browser(t)

	resp, err := client.Get(ts.Server.URL + "/cart/")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	customerID := uint(body["cart"].(map[string]interface{})["owner_id"].(float64))

	serverURL, err := url.Parse(ts.Server.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, c := range client.Jar.Cookies(serverURL) {
		header.Add("Cookie", c.String())
	}

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws/cart"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return ts.Hub.SessionCount(customerID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = client.Post(ts.Server.URL+"/add-to-cart/"+product.Slug+"/", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type string              `json:"type"`
		Cart service.CartSummary `json:"cart"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "cart.updated", msg.Type)
	assert.Equal(t, 1, msg.Cart.TotalItemCount)
	assert.True(t, decimal.RequireFromString("99.50").Equal(msg.Cart.TotalPrice))
}
