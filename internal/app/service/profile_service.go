package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProfileInput struct {
	FirstName string `form:"first_name" json:"first_name" validate:"max=255"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=255"`
	Email     string `form:"email" json:"email" validate:"omitempty,email,max=255"`
	Phone     string `form:"phone" json:"phone" validate:"omitempty,max=20,phone"`
	Address   string `form:"address" json:"address" validate:"max=255"`
}

type Profile struct {
	Customer *model.Customer `json:"customer"`
	Orders   []model.Order   `json:"orders"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, customer *model.Customer) (*Profile, error)
	UpdateProfile(ctx context.Context, customer *model.Customer, input ProfileInput) (*Profile, error)
}

type profileService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
	validate     *validator.Validate
}

func NewProfileService(db *gorm.DB, userRepo repository.UserRepository, customerRepo repository.CustomerRepository) ProfileService {
	return &profileService{
		db:           db,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		validate:     newValidator(),
	}
}

func (s *profileService) GetProfile(ctx context.Context, customer *model.Customer) (*Profile, error) {
	orders, err := s.customerRepo.WithTx(s.db.WithContext(ctx)).FindOrders(customer.ID)
	if err != nil {
		logger.Error("Failed to load customer orders", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return nil, err
	}
	return &Profile{Customer: customer, Orders: orders}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, customer *model.Customer, input ProfileInput) (*Profile, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)

	if err := s.validate.Struct(&input); err != nil {
		return nil, formErrorFrom(err)
	}

	user := customer.User
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Update(&user); err != nil {
			return err
		}
		return s.customerRepo.WithTx(tx).Update(customer)
	})
	if err != nil {
		logger.Error("Failed to update profile", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return nil, err
	}
	customer.User = user

	logger.Info("Profile updated", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return s.GetProfile(ctx, customer)
}
