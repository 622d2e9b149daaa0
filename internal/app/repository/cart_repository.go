package repository

import (
	"errors"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleCart is returned when a cart write loses the version check.
var ErrStaleCart = errors.New("cart was modified concurrently")

type CartRepository interface {
	Create(cart *model.Cart) error
	FindByID(id uint) (*model.Cart, error)
	FindByIDForUpdate(id uint) (*model.Cart, error)
	FindActiveByOwner(ownerID uint) (*model.Cart, error)
	FindIDsByOwners(ownerIDs []uint) ([]uint, error)
	UpdateTotals(cart *model.Cart) error
	MarkInOrder(cart *model.Cart) error
	DeleteByIDs(ids []uint) error

	CreateItem(item *model.CartItem) error
	SaveItem(item *model.CartItem) error
	DeleteItem(item *model.CartItem) error
	FindItem(cartID, productID uint) (*model.CartItem, error)
	FindItemByToken(cartID, customerID uint, token string) (*model.CartItem, error)
	ListItems(cartID uint) ([]model.CartItem, error)
	FindCartIDsByProduct(productIDs []uint) ([]uint, error)
	DeleteItemsByProduct(productIDs []uint) error
	DeleteItemsByCart(cartIDs []uint) error

	WithTx(tx *gorm.DB) CartRepository
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"owner_id": cart.OwnerID,
	})

	if err := r.db.Omit(clause.Associations).Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"owner_id": cart.OwnerID,
		})
		return err
	}
	return nil
}

// FindByID loads the cart with its items and their products.
func (r *cartRepository) FindByID(id uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		First(&cart, id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByIDForUpdate loads the bare cart row and locks it until the
// surrounding transaction ends. Dialects without row locks ignore the clause.
func (r *cartRepository) FindByIDForUpdate(id uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindActiveByOwner(ownerID uint) (*model.Cart, error) {
	logger.Debug("Finding active cart by owner in database", map[string]interface{}{
		"owner_id": ownerID,
	})

	var cart model.Cart
	err := r.db.
		Where("owner_id = ? AND in_order = ?", ownerID, false).
		Order("id ASC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindIDsByOwners(ownerIDs []uint) ([]uint, error) {
	var ids []uint
	if len(ownerIDs) == 0 {
		return ids, nil
	}
	err := r.db.Model(&model.Cart{}).Where("owner_id IN ?", ownerIDs).Pluck("id", &ids).Error
	return ids, err
}

// UpdateTotals writes the cached totals if the stored version still equals
// cart.Version, then bumps the version.
func (r *cartRepository) UpdateTotals(cart *model.Cart) error {
	return r.casUpdate(cart, map[string]interface{}{
		"total_item_count": cart.TotalItemCount,
		"total_price":      cart.TotalPrice,
	})
}

// MarkInOrder freezes the cart under the same version check as UpdateTotals.
func (r *cartRepository) MarkInOrder(cart *model.Cart) error {
	if err := r.casUpdate(cart, map[string]interface{}{"in_order": true}); err != nil {
		return err
	}
	cart.InOrder = true
	return nil
}

func (r *cartRepository) casUpdate(cart *model.Cart, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")

	result := r.db.Model(&model.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(fields)
	if result.Error != nil {
		logger.Error("Failed to update cart in database", result.Error, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Cart version check failed", map[string]interface{}{
			"cart_id": cart.ID,
			"version": cart.Version,
		})
		return ErrStaleCart
	}

	cart.Version++
	return nil
}

func (r *cartRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&model.Cart{}).Error
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
	})

	if err := r.db.Omit(clause.Associations).Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

// SaveItem persists quantity changes; the model hook refreshes LineTotal.
func (r *cartRepository) SaveItem(item *model.CartItem) error {
	if err := r.db.Omit(clause.Associations).Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(item *model.CartItem) error {
	if err := r.db.Delete(&model.CartItem{}, item.ID).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) FindItem(cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByToken resolves a client-held token within one cart and customer.
func (r *cartRepository) FindItemByToken(cartID, customerID uint, token string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Preload("Product").
		Where("token = ? AND cart_id = ? AND customer_id = ?", token, cartID, customerID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) ListItems(cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.Preload("Product").
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to list cart items", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) FindCartIDsByProduct(productIDs []uint) ([]uint, error) {
	var ids []uint
	if len(productIDs) == 0 {
		return ids, nil
	}
	err := r.db.Model(&model.CartItem{}).
		Distinct("cart_id").
		Where("product_id IN ?", productIDs).
		Pluck("cart_id", &ids).Error
	return ids, err
}

func (r *cartRepository) DeleteItemsByProduct(productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.Where("product_id IN ?", productIDs).Delete(&model.CartItem{}).Error
}

func (r *cartRepository) DeleteItemsByCart(cartIDs []uint) error {
	if len(cartIDs) == 0 {
		return nil
	}
	return r.db.Where("cart_id IN ?", cartIDs).Delete(&model.CartItem{}).Error
}
