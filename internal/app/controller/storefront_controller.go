package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
)

// StorefrontController serves the shop pages. Every page carries the
// summary of the visitor's cart.
type StorefrontController struct {
	catalog service.CatalogService
	carts   service.CartService
}

func NewStorefrontController(catalog service.CatalogService, carts service.CartService) *StorefrontController {
	return &StorefrontController{
		catalog: catalog,
		carts:   carts,
	}
}

// Home lists categories and products
// GET /
func (ctrl *StorefrontController) Home(c *gin.Context) {
	_, cart, ok := currentCart(c, ctrl.carts)
	if !ok {
		return
	}

	categories, err := ctrl.catalog.ListCategories()
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}

	page, pageSize := service.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))
	products, total, err := ctrl.catalog.ListProducts(service.ProductQuery{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"products":   newPage(c, products, total, page, pageSize),
		"cart":       service.SummarizeCart(cart),
	})
}

// ProductDetail shows a product of either kind with its specification
// GET /product/:slug/
func (ctrl *StorefrontController) ProductDetail(c *gin.Context) {
	_, cart, ok := currentCart(c, ctrl.carts)
	if !ok {
		return
	}

	slug := c.Param("slug")
	detail, err := ctrl.catalog.GetProductBySlug(slug)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Product lookup failed", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
		respondServiceError(c, err, "fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":       detail.Product,
		"specification": detail.Specification,
		"cart":          service.SummarizeCart(cart),
	})
}

// CategoryDetail shows a category with its member products
// GET /category/:slug/
func (ctrl *StorefrontController) CategoryDetail(c *gin.Context) {
	_, cart, ok := currentCart(c, ctrl.carts)
	if !ok {
		return
	}

	detail, err := ctrl.catalog.GetCategoryBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "fetch category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": detail.Category,
		"products": detail.Products,
		"cart":     service.SummarizeCart(cart),
	})
}
