package service

import (
	"errors"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

type OrderService interface {
	ListOrders(status model.OrderStatus, page, pageSize int) ([]model.Order, int64, error)
	GetOrder(id uint) (*model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) ListOrders(status model.OrderStatus, page, pageSize int) ([]model.Order, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidOrderStatus
	}
	page, pageSize = NormalizePage(page, pageSize)

	orders, total, err := s.orderRepo.FindAll(repository.OrderFilter{
		Status: status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"status": status,
		})
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *orderService) GetOrder(id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found", map[string]interface{}{
				"order_id": id,
			})
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// UpdateStatus is the only mutation an order accepts after checkout.
func (s *orderService) UpdateStatus(id uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if !status.Valid() {
		logger.Warn("Invalid order status", map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return nil, ErrInvalidOrderStatus
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	return s.GetOrder(id)
}
