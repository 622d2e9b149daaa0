package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/ikkim/gadgetshop-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	anonymousPurgeBatch = 100
	// lastSeenGranularity limits last_seen_at writes to one per window.
	lastSeenGranularity = time.Minute
)

// AnonymousSessionStore maps anonymous session tokens to user ids.
type AnonymousSessionStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	Resolve(ctx context.Context, token string, ttl time.Duration) (uint, bool, error)
	Delete(ctx context.Context, token string) error
}

// ResolvedIdentity is the customer acting on a request. SessionToken is the
// anonymous token in effect; IssuedSession is set when it was minted during
// this resolution and the caller must hand it to the client.
type ResolvedIdentity struct {
	Customer      *model.Customer
	SessionToken  string
	IssuedSession bool
}

type IdentityService interface {
	ResolveCustomer(ctx context.Context, userID *uint, anonToken string) (*ResolvedIdentity, error)
	GetOrCreateCustomer(ctx context.Context, userID uint) (*model.Customer, error)
	FindAnonymousCustomer(ctx context.Context, anonToken string) (*model.Customer, error)
	EndAnonymousSession(ctx context.Context, anonToken string) error
	PurgeStaleAnonymous(ctx context.Context, lastSeenBefore time.Time) (int, error)
}

type identityService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
	cartRepo     repository.CartRepository
	sessions     AnonymousSessionStore
	sessionTTL   time.Duration
}

func NewIdentityService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	customerRepo repository.CustomerRepository,
	cartRepo repository.CartRepository,
	sessions AnonymousSessionStore,
	sessionTTL time.Duration,
) IdentityService {
	return &identityService{
		db:           db,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		cartRepo:     cartRepo,
		sessions:     sessions,
		sessionTTL:   sessionTTL,
	}
}

func (s *identityService) ResolveCustomer(ctx context.Context, userID *uint, anonToken string) (*ResolvedIdentity, error) {
	if userID != nil {
		customer, err := s.GetOrCreateCustomer(ctx, *userID)
		if err != nil {
			return nil, err
		}
		return &ResolvedIdentity{Customer: customer}, nil
	}

	if anonToken != "" {
		customer, err := s.FindAnonymousCustomer(ctx, anonToken)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			return &ResolvedIdentity{Customer: customer, SessionToken: anonToken}, nil
		}
	}

	return s.createAnonymous(ctx)
}

// GetOrCreateCustomer returns the customer of userID, provisioning it on first
// use. Concurrent provisioning collapses on the unique user_id index.
func (s *identityService) GetOrCreateCustomer(ctx context.Context, userID uint) (*model.Customer, error) {
	customerRepo := s.customerRepo.WithTx(s.db.WithContext(ctx))

	customer, err := customerRepo.FindByUserID(userID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to fetch customer", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if _, err := s.userRepo.WithTx(s.db.WithContext(ctx)).FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if createErr := customerRepo.Create(&model.Customer{UserID: userID}); createErr != nil {
		existing, findErr := customerRepo.FindByUserID(userID)
		if findErr != nil {
			return nil, createErr
		}
		logger.Warn("Customer created concurrently, using existing customer", map[string]interface{}{
			"user_id":     userID,
			"customer_id": existing.ID,
		})
		return existing, nil
	}

	logger.Info("Customer provisioned", map[string]interface{}{
		"user_id": userID,
	})
	return customerRepo.FindByUserID(userID)
}

// FindAnonymousCustomer resolves an anonymous session token. It returns nil
// without error when the token is unknown, expired or its user is gone.
func (s *identityService) FindAnonymousCustomer(ctx context.Context, anonToken string) (*model.Customer, error) {
	if anonToken == "" {
		return nil, nil
	}

	userID, found, err := s.sessions.Resolve(ctx, anonToken, s.sessionTTL)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	customer, err := s.GetOrCreateCustomer(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		logger.Warn("Anonymous session points to a missing user", map[string]interface{}{
			"user_id": userID,
		})
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !customer.IsAnonymous() {
		return nil, nil
	}

	now := time.Now()
	if now.Sub(customer.LastSeenAt) >= lastSeenGranularity {
		if err := s.customerRepo.WithTx(s.db.WithContext(ctx)).Touch(customer.ID, now); err != nil {
			return nil, err
		}
		customer.LastSeenAt = now
	}
	return customer, nil
}

func (s *identityService) EndAnonymousSession(ctx context.Context, anonToken string) error {
	if anonToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, anonToken)
}

func (s *identityService) createAnonymous(ctx context.Context) (*ResolvedIdentity, error) {
	secret, err := util.RandomSecret(32)
	if err != nil {
		return nil, err
	}
	hash, err := util.HashThrowawayPassword(secret)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     model.AnonymousUsernamePrefix + uuid.NewString(),
		PasswordHash: hash,
		Role:         model.RoleAnonymous,
	}
	customer := &model.Customer{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		customer.UserID = user.ID
		return s.customerRepo.WithTx(tx).Create(customer)
	})
	if err != nil {
		logger.Error("Failed to create anonymous customer", err)
		return nil, fmt.Errorf("create anonymous customer: %w", err)
	}
	customer.User = *user

	token, err := util.RandomSecret(32)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, token, user.ID, s.sessionTTL); err != nil {
		return nil, err
	}

	logger.Info("Anonymous customer created", map[string]interface{}{
		"user_id":     user.ID,
		"customer_id": customer.ID,
	})
	return &ResolvedIdentity{Customer: customer, SessionToken: token, IssuedSession: true}, nil
}

// PurgeStaleAnonymous deletes anonymous customers not seen since the cutoff
// that never placed an order, together with their carts and users.
func (s *identityService) PurgeStaleAnonymous(ctx context.Context, lastSeenBefore time.Time) (int, error) {
	purged := 0
	for {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		stale, err := s.customerRepo.WithTx(s.db.WithContext(ctx)).FindStaleAnonymous(lastSeenBefore, anonymousPurgeBatch)
		if err != nil {
			return purged, err
		}
		if len(stale) == 0 {
			break
		}

		customerIDs := make([]uint, 0, len(stale))
		userIDs := make([]uint, 0, len(stale))
		for _, c := range stale {
			customerIDs = append(customerIDs, c.ID)
			userIDs = append(userIDs, c.UserID)
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cartRepo := s.cartRepo.WithTx(tx)
			cartIDs, err := cartRepo.FindIDsByOwners(customerIDs)
			if err != nil {
				return err
			}
			if err := cartRepo.DeleteItemsByCart(cartIDs); err != nil {
				return err
			}
			if err := cartRepo.DeleteByIDs(cartIDs); err != nil {
				return err
			}
			if err := s.customerRepo.WithTx(tx).DeleteByIDs(customerIDs); err != nil {
				return err
			}
			return s.userRepo.WithTx(tx).DeleteByIDs(userIDs)
		})
		if err != nil {
			logger.Error("Failed to purge anonymous customers", err, map[string]interface{}{
				"batch": len(stale),
			})
			return purged, err
		}
		purged += len(stale)

		if len(stale) < anonymousPurgeBatch {
			break
		}
	}

	if purged > 0 {
		logger.Info("Purged stale anonymous customers", map[string]interface{}{
			"count":  purged,
			"before": lastSeenBefore,
		})
	}
	return purged, nil
}
