package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
)

// CatalogController is the read-only catalog API.
type CatalogController struct {
	catalog service.CatalogService
}

func NewCatalogController(catalog service.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// ListCategories returns categories with their product counts
// GET /api/v1/categories
func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	page, pageSize := service.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))

	categories, total, err := ctrl.catalog.ListCategoriesPage(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, newPage(c, categories, total, page, pageSize))
}

// ListProducts returns a handler listing products of one kind, filtered by
// ?search= (name or exact price) and ?category=<id>
// GET /api/v1/notebooks, /api/v1/smartphones
func (ctrl *CatalogController) ListProducts(kind model.ProductKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := service.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))

		categoryID := queryInt(c, "category")
		if categoryID < 0 {
			categoryID = 0
		}

		products, total, err := ctrl.catalog.ListProducts(service.ProductQuery{
			Kind:       kind,
			CategoryID: uint(categoryID),
			Search:     c.Query("search"),
			Page:       page,
			PageSize:   pageSize,
		})
		if err != nil {
			respondServiceError(c, err, "list products")
			return
		}
		c.JSON(http.StatusOK, newPage(c, products, total, page, pageSize))
	}
}

// GetProduct returns a handler for the detail of one product of kind
// GET /api/v1/notebooks/:id, /api/v1/smartphones/:id
func (ctrl *CatalogController) GetProduct(kind model.ProductKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		detail, err := ctrl.catalog.GetProduct(kind, id)
		if err != nil {
			respondServiceError(c, err, "fetch product")
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}
