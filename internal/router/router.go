package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/controller"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
)

type Router struct {
	storefrontController *controller.StorefrontController
	cartController       *controller.CartController
	checkoutController   *controller.CheckoutController
	profileController    *controller.ProfileController
	authController       *controller.AuthController
	catalogController    *controller.CatalogController
	productController    *controller.ProductController
	uploadController     *controller.UploadController
	orderController      *controller.OrderController
	cartSocketController *controller.CartSocketController
	authMiddleware       *middleware.AuthMiddleware
	identityMiddleware   *middleware.IdentityMiddleware
	config               *config.Config
}

func NewRouter(
	storefrontController *controller.StorefrontController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	profileController *controller.ProfileController,
	authController *controller.AuthController,
	catalogController *controller.CatalogController,
	productController *controller.ProductController,
	uploadController *controller.UploadController,
	orderController *controller.OrderController,
	cartSocketController *controller.CartSocketController,
	authMiddleware *middleware.AuthMiddleware,
	identityMiddleware *middleware.IdentityMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		storefrontController: storefrontController,
		cartController:       cartController,
		checkoutController:   checkoutController,
		profileController:    profileController,
		authController:       authController,
		catalogController:    catalogController,
		productController:    productController,
		uploadController:     uploadController,
		orderController:      orderController,
		cartSocketController: cartSocketController,
		authMiddleware:       authMiddleware,
		identityMiddleware:   identityMiddleware,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Gadget shop API is running",
		})
	})

	// Storefront: every visitor acts as a customer, anonymous or not.
	shop := router.Group("/")
	shop.Use(r.authMiddleware.OptionalAuthenticate(), r.identityMiddleware.ResolveCustomer())
	{
		shop.GET("/", r.storefrontController.Home)
		shop.GET("/product/:slug/", r.storefrontController.ProductDetail)
		shop.GET("/category/:slug/", r.storefrontController.CategoryDetail)

		shop.GET("/cart/", r.cartController.GetCart)
		shop.GET("/add-to-cart/:slug/", r.cartController.AddToCart)
		shop.POST("/add-to-cart/:slug/", r.cartController.AddToCart)
		shop.POST("/remove-from-cart/:slug/", r.cartController.RemoveFromCart)
		shop.POST("/change-product-quantity/:slug/", r.cartController.ChangeQuantity)

		shop.GET("/checkout/", r.checkoutController.GetCheckout)
		shop.POST("/checkout/", r.checkoutController.PlaceOrder)

		shop.GET("/ws/cart", r.cartSocketController.Connect)
	}

	profile := router.Group("/profile")
	profile.Use(r.authMiddleware.Authenticate(), r.identityMiddleware.ResolveCustomer())
	{
		profile.GET("/", r.profileController.GetProfile)
		profile.POST("/", r.profileController.UpdateProfile)
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		v1.GET("/categories", r.catalogController.ListCategories)
		v1.GET("/notebooks", r.catalogController.ListProducts(model.ProductKindNotebook))
		v1.GET("/notebooks/:id", r.catalogController.GetProduct(model.ProductKindNotebook))
		v1.GET("/smartphones", r.catalogController.ListProducts(model.ProductKindSmartphone))
		v1.GET("/smartphones/:id", r.catalogController.GetProduct(model.ProductKindSmartphone))

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/categories", r.productController.CreateCategory)
			admin.PUT("/categories/:id", r.productController.UpdateCategory)
			admin.DELETE("/categories/:id", r.productController.DeleteCategory)

			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)
			admin.GET("/products/image-requirements", r.uploadController.ImageRequirements)
			admin.POST("/products/:id/image", r.uploadController.UploadProductImage)

			admin.GET("/orders", r.orderController.ListOrders)
			admin.GET("/orders/:id", r.orderController.GetOrder)
			admin.PATCH("/orders/:id/status", r.orderController.UpdateOrderStatus)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
