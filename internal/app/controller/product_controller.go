package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// ProductController is the admin API for categories and products.
type ProductController struct {
	admin service.ProductAdminService
}

func NewProductController(admin service.ProductAdminService) *ProductController {
	return &ProductController{admin: admin}
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Slug string `json:"slug" binding:"max=255"`
}

type ProductRequest struct {
	Kind        string                `json:"kind" binding:"required"`
	CategoryID  uint                  `json:"category_id"`
	Name        string                `json:"name"`
	Slug        string                `json:"slug"`
	Description string                `json:"description"`
	Price       decimal.Decimal       `json:"price"`
	Notebook    *model.NotebookSpec   `json:"notebook"`
	Smartphone  *model.SmartphoneSpec `json:"smartphone"`
}

func (r ProductRequest) toInput(c *gin.Context) (service.ProductInput, bool) {
	kind, err := model.ParseProductKind(r.Kind)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ProductInvalidKind, "kind must be notebook or smartphone")
		return service.ProductInput{}, false
	}
	return service.ProductInput{
		Kind:        kind,
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Notebook:    r.Notebook,
		Smartphone:  r.Smartphone,
	}, true
}

// CreateCategory
// POST /api/v1/admin/categories
func (ctrl *ProductController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "name is required")
		return
	}

	category, err := ctrl.admin.CreateCategory(c.Request.Context(), service.CategoryInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory
// PUT /api/v1/admin/categories/:id
func (ctrl *ProductController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "name is required")
		return
	}

	category, err := ctrl.admin.UpdateCategory(c.Request.Context(), id, service.CategoryInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		respondServiceError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category together with its products
// DELETE /api/v1/admin/categories/:id
func (ctrl *ProductController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.admin.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// CreateProduct
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid product data")
		return
	}
	input, ok := req.toInput(c)
	if !ok {
		return
	}

	product, err := ctrl.admin.CreateProduct(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid product data")
		return
	}
	input, ok := req.toInput(c)
	if !ok {
		return
	}

	product, err := ctrl.admin.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.admin.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
