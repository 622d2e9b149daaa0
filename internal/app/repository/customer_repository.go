package repository

import (
	"time"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindByID(id uint) (*model.Customer, error)
	FindByUserID(userID uint) (*model.Customer, error)
	Update(customer *model.Customer) error
	AppendOrder(customer *model.Customer, order *model.Order) error
	FindOrders(customerID uint) ([]model.Order, error)
	Touch(id uint, seenAt time.Time) error
	FindStaleAnonymous(lastSeenBefore time.Time, limit int) ([]model.Customer, error)
	DeleteByIDs(ids []uint) error
	WithTx(tx *gorm.DB) CustomerRepository
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepository{db: tx}
}

func (r *customerRepository) Create(customer *model.Customer) error {
	logger.Debug("Creating customer in database", map[string]interface{}{
		"user_id": customer.UserID,
	})

	if err := r.db.Omit("User", "Orders").Create(customer).Error; err != nil {
		logger.Error("Failed to create customer in database", err, map[string]interface{}{
			"user_id": customer.UserID,
		})
		return err
	}
	return nil
}

func (r *customerRepository) FindByID(id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.Preload("User").First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByUserID(userID uint) (*model.Customer, error) {
	logger.Debug("Finding customer by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var customer model.Customer
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Update(customer *model.Customer) error {
	if err := r.db.Omit("User", "Orders").Save(customer).Error; err != nil {
		logger.Error("Failed to update customer in database", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return err
	}
	return nil
}

// AppendOrder links an already persisted order to the customer's order
// history.
func (r *customerRepository) AppendOrder(customer *model.Customer, order *model.Order) error {
	err := r.db.Model(customer).Omit("Orders.*").Association("Orders").Append(order)
	if err != nil {
		logger.Error("Failed to link order to customer", err, map[string]interface{}{
			"customer_id": customer.ID,
			"order_id":    order.ID,
		})
		return err
	}
	return nil
}

func (r *customerRepository) FindOrders(customerID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.
		Joins("JOIN customer_orders ON customer_orders.order_id = orders.id").
		Where("customer_orders.customer_id = ?", customerID).
		Order("orders.created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find customer orders", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}
	return orders, nil
}

// Touch records activity without bumping updated_at.
func (r *customerRepository) Touch(id uint, seenAt time.Time) error {
	if err := r.db.Model(&model.Customer{}).Where("id = ?", id).UpdateColumn("last_seen_at", seenAt).Error; err != nil {
		logger.Error("Failed to touch customer in database", err, map[string]interface{}{
			"customer_id": id,
		})
		return err
	}
	return nil
}

// FindStaleAnonymous returns anonymous customers not seen since the cutoff
// that never placed an order.
func (r *customerRepository) FindStaleAnonymous(lastSeenBefore time.Time, limit int) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.
		Joins("JOIN users ON users.id = customers.user_id").
		Where("users.role = ?", model.RoleAnonymous).
		Where("customers.last_seen_at < ?", lastSeenBefore).
		Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.customer_id = customers.id)").
		Order("customers.id ASC").
		Limit(limit).
		Find(&customers).Error
	if err != nil {
		logger.Error("Failed to find stale anonymous customers", err)
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&model.Customer{}).Error
}
