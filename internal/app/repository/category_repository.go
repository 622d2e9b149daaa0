package repository

import (
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.Category) error
	Update(category *model.Category) error
	Delete(id uint) error
	FindByID(id uint) (*model.Category, error)
	FindBySlug(slug string) (*model.Category, error)
	FindAllWithProductCount() ([]model.CategoryWithCount, error)
	FindPageWithProductCount(offset, limit int) ([]model.CategoryWithCount, int64, error)
	WithTx(tx *gorm.DB) CategoryRepository
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	return &categoryRepository{db: tx}
}

func (r *categoryRepository) Create(category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"slug": category.Slug,
	})

	if err := r.db.Omit("Products").Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"slug": category.Slug,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) Update(category *model.Category) error {
	if err := r.db.Omit("Products").Save(category).Error; err != nil {
		logger.Error("Failed to update category in database", err, map[string]interface{}{
			"category_id": category.ID,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) Delete(id uint) error {
	logger.Debug("Deleting category from database", map[string]interface{}{
		"category_id": id,
	})

	result := r.db.Delete(&model.Category{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete category from database", result.Error, map[string]interface{}{
			"category_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *categoryRepository) FindByID(id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindBySlug(slug string) (*model.Category, error) {
	logger.Debug("Finding category by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var category model.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindAllWithProductCount returns every category with the number of products
// of any kind that reference it.
func (r *categoryRepository) FindAllWithProductCount() ([]model.CategoryWithCount, error) {
	var categories []model.Category
	if err := r.db.Order("id ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}
	return r.withCounts(categories)
}

func (r *categoryRepository) FindPageWithProductCount(offset, limit int) ([]model.CategoryWithCount, int64, error) {
	var total int64
	if err := r.db.Model(&model.Category{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []model.Category
	if err := r.db.Order("id ASC").Offset(offset).Limit(limit).Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories page", err, map[string]interface{}{
			"offset": offset,
			"limit":  limit,
		})
		return nil, 0, err
	}

	result, err := r.withCounts(categories)
	return result, total, err
}

func (r *categoryRepository) withCounts(categories []model.Category) ([]model.CategoryWithCount, error) {
	type countRow struct {
		CategoryID uint
		Total      int64
	}

	var rows []countRow
	err := r.db.Model(&model.Product{}).
		Select("category_id, COUNT(*) AS total").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count products per category", err)
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}

	result := make([]model.CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		result = append(result, model.CategoryWithCount{Category: c, ProductCount: counts[c.ID]})
	}

	logger.Debug("Categories loaded with product counts", map[string]interface{}{
		"count": len(result),
	})
	return result, nil
}
