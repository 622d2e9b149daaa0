package service

import (
	"errors"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// ProductQuery filters catalog listings. Page is 1-based.
type ProductQuery struct {
	Kind       model.ProductKind
	CategoryID uint
	Search     string
	Page       int
	PageSize   int
}

type ProductDetail struct {
	Product       *model.Product     `json:"product"`
	Specification []SpecificationRow `json:"specification"`
}

type CategoryDetail struct {
	Category *model.Category `json:"category"`
	Products []model.Product `json:"products"`
}

type CatalogService interface {
	ListCategories() ([]model.CategoryWithCount, error)
	ListCategoriesPage(page, pageSize int) ([]model.CategoryWithCount, int64, error)
	GetCategoryBySlug(slug string) (*CategoryDetail, error)
	ListProducts(query ProductQuery) ([]model.Product, int64, error)
	GetProductBySlug(slug string) (*ProductDetail, error)
	GetProduct(kind model.ProductKind, id uint) (*ProductDetail, error)
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// NormalizePage clamps page to >= 1 and pageSize to [1, MaxPageSize],
// substituting DefaultPageSize for a non-positive size.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (s *catalogService) ListCategories() ([]model.CategoryWithCount, error) {
	categories, err := s.categoryRepo.FindAllWithProductCount()
	if err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

func (s *catalogService) ListCategoriesPage(page, pageSize int) ([]model.CategoryWithCount, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return s.categoryRepo.FindPageWithProductCount((page-1)*pageSize, pageSize)
}

func (s *catalogService) GetCategoryBySlug(slug string) (*CategoryDetail, error) {
	category, err := s.categoryRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Category not found", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	products, _, err := s.productRepo.FindAll(repository.ProductFilter{CategoryID: category.ID})
	if err != nil {
		return nil, err
	}
	return &CategoryDetail{Category: category, Products: products}, nil
}

func (s *catalogService) ListProducts(query ProductQuery) ([]model.Product, int64, error) {
	page, pageSize := NormalizePage(query.Page, query.PageSize)

	logger.Debug("Listing products", map[string]interface{}{
		"kind":        query.Kind,
		"category_id": query.CategoryID,
		"search":      query.Search,
		"page":        page,
		"page_size":   pageSize,
	})

	return s.productRepo.FindAll(repository.ProductFilter{
		Kind:       query.Kind,
		CategoryID: query.CategoryID,
		Search:     query.Search,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
}

func (s *catalogService) GetProductBySlug(slug string) (*ProductDetail, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.detail(product)
}

// GetProduct loads a product by id, treating a kind mismatch as not found.
func (s *catalogService) GetProduct(kind model.ProductKind, id uint) (*ProductDetail, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product.Kind != kind {
		return nil, ErrProductNotFound
	}
	return s.detail(product)
}

func (s *catalogService) detail(product *model.Product) (*ProductDetail, error) {
	rows, err := RenderSpecification(product)
	if err != nil {
		logger.Error("Failed to render product specification", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, err
	}
	return &ProductDetail{Product: product, Specification: rows}, nil
}
