package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/internal/imageguard"
	"github.com/ikkim/gadgetshop-backend/internal/storage"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrStorageUnavailable = errors.New("image storage is not configured")

// ImageStorage persists product images and returns their public URL.
type ImageStorage interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type CategoryInput struct {
	Name string
	Slug string
}

// ProductInput carries the editable product fields. Exactly the spec matching
// Kind must be set.
type ProductInput struct {
	Kind        model.ProductKind
	CategoryID  uint
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Notebook    *model.NotebookSpec
	Smartphone  *model.SmartphoneSpec
}

type ProductAdminService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uint, input CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	UploadProductImage(ctx context.Context, id uint, data []byte) (*model.Product, error)
}

type productAdminService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	carts        CartService
	images       ImageStorage
}

func NewProductAdminService(
	db *gorm.DB,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	carts CartService,
	images ImageStorage,
) ProductAdminService {
	return &productAdminService{
		db:           db,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cartRepo:     cartRepo,
		carts:        carts,
		images:       images,
	}
}

func (s *productAdminService) CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category := &model.Category{}
	if err := s.applyCategory(ctx, category, input); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.WithTx(s.db.WithContext(ctx)).Create(category); err != nil {
		return nil, err
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return category, nil
}

func (s *productAdminService) UpdateCategory(ctx context.Context, id uint, input CategoryInput) (*model.Category, error) {
	repo := s.categoryRepo.WithTx(s.db.WithContext(ctx))
	category, err := repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if err := s.applyCategory(ctx, category, input); err != nil {
		return nil, err
	}
	if err := repo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *productAdminService) applyCategory(ctx context.Context, category *model.Category, input CategoryInput) error {
	fe := &FormError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		fe.add("name", "this field is required")
	}
	if len(name) > 255 {
		fe.add("name", "must be at most 255 characters")
	}

	categorySlug := strings.TrimSpace(input.Slug)
	if categorySlug == "" {
		categorySlug = slug.Make(name)
	}
	if categorySlug == "" {
		fe.add("slug", "this field is required")
	} else if !slug.IsSlug(categorySlug) {
		fe.add("slug", "must contain only lowercase letters, digits and hyphens")
	} else {
		existing, err := s.categoryRepo.WithTx(s.db.WithContext(ctx)).FindBySlug(categorySlug)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && existing.ID != category.ID {
			fe.add("slug", "category with this slug already exists")
		}
	}

	if err := fe.orNil(); err != nil {
		return err
	}
	category.Name = name
	category.Slug = categorySlug
	return nil
}

// DeleteCategory removes the category with all of its products. Carts that
// held those products are recomputed afterwards.
func (s *productAdminService) DeleteCategory(ctx context.Context, id uint) error {
	logger.Info("Deleting category", map[string]interface{}{
		"category_id": id,
	})

	var cartIDs []uint
	var imageKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		products, _, err := productRepo.FindAll(repository.ProductFilter{CategoryID: id})
		if err != nil {
			return err
		}
		productIDs := make([]uint, 0, len(products))
		for _, p := range products {
			productIDs = append(productIDs, p.ID)
			if p.ImageKey != "" {
				imageKeys = append(imageKeys, p.ImageKey)
			}
		}

		cartIDs, err = cartRepo.FindCartIDsByProduct(productIDs)
		if err != nil {
			return err
		}
		if err := cartRepo.DeleteItemsByProduct(productIDs); err != nil {
			return err
		}
		if err := productRepo.DeleteByCategoryID(id); err != nil {
			return err
		}
		return s.categoryRepo.WithTx(tx).Delete(id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		logger.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": id,
		})
		return err
	}

	s.deleteImages(ctx, imageKeys...)
	return s.carts.RecomputeCarts(ctx, cartIDs)
}

func (s *productAdminService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	product := &model.Product{}
	if err := s.applyProduct(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.productRepo.WithTx(s.db.WithContext(ctx)).Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"kind":       product.Kind,
		"slug":       product.Slug,
	})
	return s.productRepo.WithTx(s.db.WithContext(ctx)).FindByID(product.ID)
}

// UpdateProduct saves the product. A price change refreshes every active cart
// holding the product.
func (s *productAdminService) UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error) {
	repo := s.productRepo.WithTx(s.db.WithContext(ctx))
	product, err := repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if input.Kind != "" && input.Kind != product.Kind {
		return nil, &FormError{Fields: map[string]string{"kind": "product kind cannot be changed"}}
	}
	input.Kind = product.Kind

	oldPrice := product.Price
	if err := s.applyProduct(ctx, product, input); err != nil {
		return nil, err
	}
	if err := repo.Update(product); err != nil {
		return nil, err
	}

	if !oldPrice.Equal(product.Price) {
		logger.Info("Product price changed", map[string]interface{}{
			"product_id": product.ID,
			"old_price":  oldPrice.String(),
			"new_price":  product.Price.String(),
		})
		cartIDs, err := s.cartRepo.WithTx(s.db.WithContext(ctx)).FindCartIDsByProduct([]uint{product.ID})
		if err != nil {
			return nil, err
		}
		if err := s.carts.RecomputeCarts(ctx, cartIDs); err != nil {
			return nil, err
		}
	}

	return repo.FindByID(product.ID)
}

func (s *productAdminService) DeleteProduct(ctx context.Context, id uint) error {
	var cartIDs []uint
	var imageKey string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		product, err := productRepo.FindByID(id)
		if err != nil {
			return err
		}
		imageKey = product.ImageKey

		cartIDs, err = cartRepo.FindCartIDsByProduct([]uint{id})
		if err != nil {
			return err
		}
		if err := cartRepo.DeleteItemsByProduct([]uint{id}); err != nil {
			return err
		}
		return productRepo.Delete(id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id":     id,
		"affected_carts": len(cartIDs),
	})
	s.deleteImages(ctx, imageKey)
	return s.carts.RecomputeCarts(ctx, cartIDs)
}

// UploadProductImage runs data through the image guard and stores the result
// under the folder of the product's kind.
func (s *productAdminService) UploadProductImage(ctx context.Context, id uint, data []byte) (*model.Product, error) {
	if s.images == nil {
		return nil, ErrStorageUnavailable
	}

	repo := s.productRepo.WithTx(s.db.WithContext(ctx))
	product, err := repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	img, err := imageguard.Validate(data)
	if err != nil {
		logger.Warn("Product image rejected", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	key := storage.NewObjectKey(product.Kind.StoragePrefix(), img.Ext)
	url, err := s.images.PutObject(ctx, key, img.ContentType, img.Data)
	if err != nil {
		return nil, err
	}

	oldKey := product.ImageKey
	product.ImageKey = key
	product.ImageURL = url
	if err := repo.Update(product); err != nil {
		s.deleteImages(ctx, key)
		return nil, err
	}
	s.deleteImages(ctx, oldKey)

	logger.Info("Product image uploaded", map[string]interface{}{
		"product_id": id,
		"key":        key,
		"width":      img.Width,
		"height":     img.Height,
		"resized":    img.Resized,
	})
	return product, nil
}

func (s *productAdminService) applyProduct(ctx context.Context, product *model.Product, input ProductInput) error {
	fe := &FormError{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		fe.add("name", "this field is required")
	} else if len(name) > 255 {
		fe.add("name", "must be at most 255 characters")
	}
	if input.Price.IsNegative() {
		fe.add("price", "must be greater than or equal to 0")
	}

	switch input.Kind {
	case model.ProductKindNotebook:
		if input.Notebook == nil {
			fe.add("notebook", "notebook specification is required")
		}
	case model.ProductKindSmartphone:
		if input.Smartphone == nil {
			fe.add("smartphone", "smartphone specification is required")
		} else if !validSDMaxVolume(input.Smartphone) {
			fe.add("sd_max_volume", "must be one of: "+strings.Join(model.SDMaxVolumes, ", "))
		}
	default:
		fe.add("kind", "must be one of: notebook, smartphone")
	}

	if input.CategoryID == 0 {
		fe.add("category_id", "this field is required")
	} else if _, err := s.categoryRepo.WithTx(s.db.WithContext(ctx)).FindByID(input.CategoryID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		fe.add("category_id", "category does not exist")
	}

	productSlug := strings.TrimSpace(input.Slug)
	if productSlug == "" {
		productSlug = slug.Make(name)
	}
	if productSlug == "" {
		fe.add("slug", "this field is required")
	} else if !slug.IsSlug(productSlug) {
		fe.add("slug", "must contain only lowercase letters, digits and hyphens")
	} else {
		exists, err := s.productRepo.WithTx(s.db.WithContext(ctx)).SlugExists(productSlug, product.ID)
		if err != nil {
			return err
		}
		if exists {
			fe.add("slug", "product with this slug already exists")
		}
	}

	if err := fe.orNil(); err != nil {
		return err
	}

	product.Kind = input.Kind
	product.CategoryID = input.CategoryID
	product.Category = nil
	product.Name = name
	product.Slug = productSlug
	product.Description = input.Description
	product.Price = input.Price.Round(2)

	switch input.Kind {
	case model.ProductKindNotebook:
		spec := *input.Notebook
		if product.Notebook != nil {
			spec.ID = product.Notebook.ID
		}
		product.Notebook = &spec
		product.Smartphone = nil
	case model.ProductKindSmartphone:
		spec := *input.Smartphone
		if product.Smartphone != nil {
			spec.ID = product.Smartphone.ID
		}
		if !spec.SD {
			spec.SDMaxVolume = ""
		}
		product.Smartphone = &spec
		product.Notebook = nil
	}
	return nil
}

// validSDMaxVolume requires a listed capacity when the phone takes an SD card.
// Without one the value is ignored.
func validSDMaxVolume(spec *model.SmartphoneSpec) bool {
	if !spec.SD {
		return true
	}
	for _, v := range model.SDMaxVolumes {
		if v == spec.SDMaxVolume {
			return true
		}
	}
	return false
}

func (s *productAdminService) deleteImages(ctx context.Context, keys ...string) {
	if s.images == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.images.DeleteObject(ctx, key); err != nil {
			logger.Warn("Failed to delete product image", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}
