package repository

import (
	"strings"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows product listings. Zero values mean "any".
type ProductFilter struct {
	Kind       model.ProductKind
	CategoryID uint
	// Search matches a case-insensitive substring of the name, or the exact
	// price when the term parses as a number.
	Search string
	Offset int
	Limit  int
}

type ProductRepository interface {
	Create(product *model.Product) error
	Update(product *model.Product) error
	Delete(id uint) error
	DeleteByCategoryID(categoryID uint) error
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	FindAll(filter ProductFilter) ([]model.Product, int64, error)
	FindIDsByCategoryID(categoryID uint) ([]uint, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	WithTx(tx *gorm.DB) ProductRepository
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) withDetails() *gorm.DB {
	return r.db.Preload("Category").Preload("Notebook").Preload("Smartphone")
}

// Create inserts the product together with its kind-specific spec row.
func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name": product.Name,
		"kind": product.Kind,
	})

	if err := r.db.Omit("Category").Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
			"kind": product.Kind,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

// Update saves the product columns and its spec row.
func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Omit(clause.Associations).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	var err error
	switch {
	case product.Notebook != nil:
		product.Notebook.ProductID = product.ID
		err = r.db.Save(product.Notebook).Error
	case product.Smartphone != nil:
		product.Smartphone.ProductID = product.ID
		err = r.db.Save(product.Smartphone).Error
	}
	if err != nil {
		logger.Error("Failed to update product spec in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.Where("product_id = ?", id).Delete(&model.NotebookSpec{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("product_id = ?", id).Delete(&model.SmartphoneSpec{}).Error; err != nil {
		return err
	}

	result := r.db.Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) DeleteByCategoryID(categoryID uint) error {
	ids := r.db.Model(&model.Product{}).Select("id").Where("category_id = ?", categoryID)

	if err := r.db.Where("product_id IN (?)", ids).Delete(&model.NotebookSpec{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("product_id IN (?)", ids).Delete(&model.SmartphoneSpec{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("category_id = ?", categoryID).Delete(&model.Product{}).Error; err != nil {
		logger.Error("Failed to delete category products", err, map[string]interface{}{
			"category_id": categoryID,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.withDetails().First(&product, id).Error; err != nil {
		logger.Debug("Product not found by ID", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	logger.Debug("Finding product by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var product model.Product
	if err := r.withDetails().Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindAll(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products in database", map[string]interface{}{
		"kind":        filter.Kind,
		"category_id": filter.CategoryID,
		"search":      filter.Search,
		"offset":      filter.Offset,
		"limit":       filter.Limit,
	})

	query := r.db.Model(&model.Product{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		if price, err := decimal.NewFromString(term); err == nil {
			query = query.Where("LOWER(name) LIKE ? OR price = ?", like, price)
		} else {
			query = query.Where("LOWER(name) LIKE ?", like)
		}
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	page := query.Preload("Notebook").Preload("Smartphone").Order("id DESC")
	if filter.Limit > 0 {
		page = page.Offset(filter.Offset).Limit(filter.Limit)
	}

	var products []model.Product
	if err := page.Find(&products).Error; err != nil {
		logger.Error("Failed to find products", err)
		return nil, 0, err
	}

	logger.Debug("Products found in database", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindIDsByCategoryID(categoryID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Product{}).Where("category_id = ?", categoryID).Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&model.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
