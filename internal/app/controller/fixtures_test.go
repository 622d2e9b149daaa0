package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	"github.com/ikkim/gadgetshop-backend/internal/db"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	redispkg "github.com/ikkim/gadgetshop-backend/pkg/redis"
	"github.com/ikkim/gadgetshop-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret  = "test-jwt-secret-for-controllers"
	testCookieName = "anon_session"
)

type memoryImages struct {
	objects map[string][]byte
}

func (m *memoryImages) PutObject(_ context.Context, key, _ string, data []byte) (string, error) {
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryImages) DeleteObject(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type memoryRevoker struct {
	revoked map[string]time.Duration
}

func (m *memoryRevoker) BlacklistToken(_ context.Context, token string, expiry time.Duration) error {
	m.revoked[token] = expiry
	return nil
}

func (m *memoryRevoker) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	_, ok := m.revoked[token]
	return ok, nil
}

// testApp wires the controllers on top of an in-memory database with the
// same middleware chain as production.
type testApp struct {
	db       *gorm.DB
	router   *gin.Engine
	auth     service.AuthService
	admin    service.ProductAdminService
	images   *memoryImages
	revoker  *memoryRevoker
	category *model.Category
}

func setupControllerTest(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	images := &memoryImages{objects: map[string][]byte{}}
	revoker := &memoryRevoker{revoked: map[string]time.Duration{}}

	authService := service.NewAuthService(userRepo, testJWTSecret, 15*time.Minute, 24*time.Hour)
	sessions := redispkg.NewMemorySessionStore()
	t.Cleanup(sessions.Close)
	identity := service.NewIdentityService(testDB, userRepo, customerRepo, cartRepo, sessions, time.Hour)
	carts := service.NewCartService(testDB, cartRepo, productRepo, nil)
	catalog := service.NewCatalogService(categoryRepo, productRepo)
	admin := service.NewProductAdminService(testDB, categoryRepo, productRepo, cartRepo, carts, images)
	checkout := service.NewCheckoutService(testDB, cartRepo, orderRepo, customerRepo, nil, nil)
	orders := service.NewOrderService(orderRepo)
	profiles := service.NewProfileService(testDB, userRepo, customerRepo)

	authMW := middleware.NewAuthMiddleware(testJWTSecret, revoker)
	identityMW := middleware.NewIdentityMiddleware(identity, config.SessionConfig{CookieName: testCookieName, TTL: time.Hour})

	storefront := NewStorefrontController(catalog, carts)
	cartCtrl := NewCartController(carts)
	checkoutCtrl := NewCheckoutController(carts, checkout)
	profileCtrl := NewProfileController(profiles)
	authCtrl := NewAuthController(authService, identity, carts, identityMW, revoker, testJWTSecret)
	catalogCtrl := NewCatalogController(catalog)
	productCtrl := NewProductController(admin)
	uploadCtrl := NewUploadController(admin)
	orderCtrl := NewOrderController(orders)

	router := gin.New()
	shop := router.Group("/", authMW.OptionalAuthenticate(), identityMW.ResolveCustomer())
	shop.GET("/", storefront.Home)
	shop.GET("/product/:slug/", storefront.ProductDetail)
	shop.GET("/category/:slug/", storefront.CategoryDetail)
	shop.GET("/cart/", cartCtrl.GetCart)
	shop.POST("/add-to-cart/:slug/", cartCtrl.AddToCart)
	shop.POST("/remove-from-cart/:slug/", cartCtrl.RemoveFromCart)
	shop.POST("/change-product-quantity/:slug/", cartCtrl.ChangeQuantity)
	shop.GET("/checkout/", checkoutCtrl.GetCheckout)
	shop.POST("/checkout/", checkoutCtrl.PlaceOrder)

	profile := router.Group("/profile", authMW.Authenticate(), identityMW.ResolveCustomer())
	profile.GET("/", profileCtrl.GetProfile)
	profile.POST("/", profileCtrl.UpdateProfile)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", authCtrl.Register)
	v1.POST("/auth/login", authCtrl.Login)
	v1.POST("/auth/refresh", authCtrl.Refresh)
	v1.POST("/auth/logout", authMW.Authenticate(), authCtrl.Logout)
	v1.GET("/auth/me", authMW.Authenticate(), authCtrl.GetMe)
	v1.GET("/categories", catalogCtrl.ListCategories)
	v1.GET("/notebooks", catalogCtrl.ListProducts(model.ProductKindNotebook))
	v1.GET("/notebooks/:id", catalogCtrl.GetProduct(model.ProductKindNotebook))
	v1.GET("/smartphones", catalogCtrl.ListProducts(model.ProductKindSmartphone))
	v1.GET("/smartphones/:id", catalogCtrl.GetProduct(model.ProductKindSmartphone))

	adminGroup := v1.Group("/admin", authMW.Authenticate(), authMW.RequireRole(model.RoleAdmin))
	adminGroup.POST("/categories", productCtrl.CreateCategory)
	adminGroup.PUT("/categories/:id", productCtrl.UpdateCategory)
	adminGroup.DELETE("/categories/:id", productCtrl.DeleteCategory)
	adminGroup.POST("/products", productCtrl.CreateProduct)
	adminGroup.PUT("/products/:id", productCtrl.UpdateProduct)
	adminGroup.DELETE("/products/:id", productCtrl.DeleteProduct)
	adminGroup.GET("/products/image-requirements", uploadCtrl.ImageRequirements)
	adminGroup.POST("/products/:id/image", uploadCtrl.UploadProductImage)
	adminGroup.GET("/orders", orderCtrl.ListOrders)
	adminGroup.GET("/orders/:id", orderCtrl.GetOrder)
	adminGroup.PATCH("/orders/:id/status", orderCtrl.UpdateOrderStatus)

	category, err := admin.CreateCategory(context.Background(), service.CategoryInput{Name: "Gadgets"})
	require.NoError(t, err)

	return &testApp{
		db:       testDB,
		router:   router,
		auth:     authService,
		admin:    admin,
		images:   images,
		revoker:  revoker,
		category: category,
	}
}

func (a *testApp) notebook(t *testing.T, name, price string) *model.Product {
	t.Helper()
	product, err := a.admin.CreateProduct(context.Background(), service.ProductInput{
		Kind:       model.ProductKindNotebook,
		CategoryID: a.category.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Notebook:   &model.NotebookSpec{Diagonal: "14", Display: "IPS", Processor: "3.2 GHz", RAM: "16 GB", BatteryLife: "10 h"},
	})
	require.NoError(t, err)
	return product
}

func (a *testApp) smartphone(t *testing.T, name, price string) *model.Product {
	t.Helper()
	product, err := a.admin.CreateProduct(context.Background(), service.ProductInput{
		Kind:       model.ProductKindSmartphone,
		CategoryID: a.category.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Smartphone: &model.SmartphoneSpec{Diagonal: "6.1", Resolution: "2400x1080", RAM: "8 GB", SD: false},
	})
	require.NoError(t, err)
	return product
}

// registeredUser creates a user with role and returns an access token.
func (a *testApp) registeredUser(t *testing.T, username string, role model.UserRole) (*model.User, string) {
	t.Helper()
	user, _, err := a.auth.Register(service.RegisterInput{Username: username, Password: "password123"})
	require.NoError(t, err)
	if role != model.RoleUser {
		require.NoError(t, a.db.Model(user).Update("role", role).Error)
		user.Role = role
	}
	tokens, err := util.GenerateTokenPair(user.ID, user.Username, string(role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

// visitor is a browser: it keeps the anonymous session cookie and an
// optional bearer token between requests.
type visitor struct {
	app    *testApp
	cookie string
	token  string
}

func (a *testApp) visitor() *visitor {
	return &visitor{app: a}
}

func (v *visitor) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if v.cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: v.cookie})
	}
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	w := httptest.NewRecorder()
	v.app.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName {
			if c.MaxAge < 0 {
				v.cookie = ""
			} else {
				v.cookie = c.Value
			}
		}
	}
	return w
}

func (v *visitor) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return v.do(t, http.MethodGet, path, nil, "")
}

func (v *visitor) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	return v.do(t, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (v *visitor) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	return v.sendJSON(t, http.MethodPost, path, body)
}

func (v *visitor) sendJSON(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return v.do(t, method, path, bytes.NewReader(data), "application/json")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
