package service

import (
	"context"
	"errors"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrInvalidQuantity      = errors.New("quantity must not be negative")
	ErrMissingCartItemToken = errors.New("cart item token is required")
	ErrCartConflict         = errors.New("cart was modified by another request")
	ErrCartFrozen           = errors.New("cart is already part of an order")
)

// CartSummary is the payload pushed to a customer's live sessions and
// returned by the quantity endpoint.
type CartSummary struct {
	CartID         uint            `json:"cart_id"`
	TotalItemCount int             `json:"total_item_count"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	InOrder        bool            `json:"in_order"`
	Version        uint            `json:"version"`
}

func SummarizeCart(cart *model.Cart) CartSummary {
	if cart == nil {
		return CartSummary{TotalPrice: decimal.Zero}
	}
	return CartSummary{
		CartID:         cart.ID,
		TotalItemCount: cart.TotalItemCount,
		TotalPrice:     cart.TotalPrice,
		InOrder:        cart.InOrder,
		Version:        cart.Version,
	}
}

// CartNotifier delivers messages to every open session of a customer.
type CartNotifier interface {
	PublishToCustomer(customerID uint, message interface{})
}

type CartService interface {
	GetOrCreateCart(ctx context.Context, customer *model.Customer) (*model.Cart, error)
	AddItem(ctx context.Context, customer *model.Customer, cart *model.Cart, productSlug string) (*model.Cart, bool, error)
	RemoveItem(ctx context.Context, customer *model.Customer, cart *model.Cart, token string) (*model.Cart, error)
	SetQuantity(ctx context.Context, customer *model.Customer, cart *model.Cart, token string, quantity int) (*model.Cart, *model.CartItem, error)
	MergeCarts(ctx context.Context, from, into *model.Customer) (*model.Cart, error)
	RecomputeCarts(ctx context.Context, cartIDs []uint) error
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	notifier    CartNotifier
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	notifier CartNotifier,
) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		notifier:    notifier,
	}
}

// GetOrCreateCart returns the owner's active cart, creating it on first use.
// A concurrent creator that wins the unique index is re-read instead.
func (s *cartService) GetOrCreateCart(ctx context.Context, customer *model.Customer) (*model.Cart, error) {
	repo := s.cartRepo.WithTx(s.db.WithContext(ctx))

	cart, err := repo.FindActiveByOwner(customer.ID)
	if err == nil {
		return repo.FindByID(cart.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to fetch active cart", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return nil, err
	}

	cart = &model.Cart{
		OwnerID:          customer.ID,
		IsAnonymousOwner: customer.IsAnonymous(),
		TotalPrice:       decimal.Zero,
	}
	if createErr := repo.Create(cart); createErr != nil {
		existing, findErr := repo.FindActiveByOwner(customer.ID)
		if findErr != nil {
			logger.Error("Failed to create cart", createErr, map[string]interface{}{
				"customer_id": customer.ID,
			})
			return nil, createErr
		}
		logger.Warn("Cart created concurrently, using existing cart", map[string]interface{}{
			"customer_id": customer.ID,
			"cart_id":     existing.ID,
		})
		return repo.FindByID(existing.ID)
	}

	logger.Info("Cart created", map[string]interface{}{
		"customer_id": customer.ID,
		"cart_id":     cart.ID,
		"anonymous":   cart.IsAnonymousOwner,
	})
	return repo.FindByID(cart.ID)
}

func (s *cartService) AddItem(ctx context.Context, customer *model.Customer, cart *model.Cart, productSlug string) (*model.Cart, bool, error) {
	logger.Info("Adding product to cart", map[string]interface{}{
		"customer_id": customer.ID,
		"cart_id":     cart.ID,
		"slug":        productSlug,
	})

	product, err := s.productRepo.WithTx(s.db.WithContext(ctx)).FindBySlug(productSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"slug": productSlug,
			})
			return nil, false, ErrProductNotFound
		}
		return nil, false, err
	}

	created := false
	updated, err := s.mutate(ctx, customer, cart, func(repo repository.CartRepository, locked *model.Cart) (bool, error) {
		_, err := repo.FindItem(locked.ID, product.ID)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}

		item := &model.CartItem{
			CustomerID: customer.ID,
			CartID:     locked.ID,
			ProductID:  product.ID,
			Quantity:   1,
			Product:    *product,
		}
		if err := repo.CreateItem(item); err != nil {
			return false, err
		}
		created = true
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}

	return updated, created, nil
}

func (s *cartService) RemoveItem(ctx context.Context, customer *model.Customer, cart *model.Cart, token string) (*model.Cart, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"customer_id": customer.ID,
		"cart_id":     cart.ID,
	})

	if token == "" {
		return nil, ErrCartItemNotFound
	}

	return s.mutate(ctx, customer, cart, func(repo repository.CartRepository, locked *model.Cart) (bool, error) {
		item, err := s.findOwnedItem(repo, locked, customer, token)
		if err != nil {
			return false, err
		}
		if err := repo.DeleteItem(item); err != nil {
			return false, err
		}
		return true, nil
	})
}

// SetQuantity updates one line. A quantity of zero removes the line; the
// returned item then carries Quantity 0 and a zero LineTotal.
func (s *cartService) SetQuantity(ctx context.Context, customer *model.Customer, cart *model.Cart, token string, quantity int) (*model.Cart, *model.CartItem, error) {
	logger.Info("Changing cart item quantity", map[string]interface{}{
		"customer_id": customer.ID,
		"cart_id":     cart.ID,
		"quantity":    quantity,
	})

	if token == "" {
		return nil, nil, ErrMissingCartItemToken
	}
	if quantity < 0 {
		logger.Warn("Rejected negative cart quantity", map[string]interface{}{
			"cart_id":  cart.ID,
			"quantity": quantity,
		})
		return nil, nil, ErrInvalidQuantity
	}

	var result *model.CartItem
	updated, err := s.mutate(ctx, customer, cart, func(repo repository.CartRepository, locked *model.Cart) (bool, error) {
		item, err := s.findOwnedItem(repo, locked, customer, token)
		if err != nil {
			return false, err
		}

		if quantity == 0 {
			if err := repo.DeleteItem(item); err != nil {
				return false, err
			}
			item.Quantity = 0
			item.LineTotal = decimal.Zero
			result = item
			return true, nil
		}

		if item.Quantity == quantity {
			result = item
			return false, nil
		}
		item.Quantity = quantity
		if err := repo.SaveItem(item); err != nil {
			return false, err
		}
		result = item
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, result, nil
}

// MergeCarts moves the lines of from's active cart into into's active cart.
// Lines for the same product add their quantities.
func (s *cartService) MergeCarts(ctx context.Context, from, into *model.Customer) (*model.Cart, error) {
	target, err := s.GetOrCreateCart(ctx, into)
	if err != nil {
		return nil, err
	}
	if from == nil || from.ID == into.ID {
		return target, nil
	}

	source, err := s.cartRepo.WithTx(s.db.WithContext(ctx)).FindActiveByOwner(from.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target, nil
	}
	if err != nil {
		return nil, err
	}

	moved := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		lockedSource, err := repo.FindByIDForUpdate(source.ID)
		if err != nil {
			return err
		}
		lockedTarget, err := repo.FindByIDForUpdate(target.ID)
		if err != nil {
			return err
		}
		if lockedSource.InOrder || lockedTarget.InOrder {
			return ErrCartFrozen
		}

		items, err := repo.ListItems(lockedSource.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		for _, line := range items {
			existing, err := repo.FindItem(lockedTarget.ID, line.ProductID)
			switch {
			case err == nil:
				existing.Quantity += line.Quantity
				existing.Product = line.Product
				if err := repo.SaveItem(existing); err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := repo.CreateItem(&model.CartItem{
					CustomerID: into.ID,
					CartID:     lockedTarget.ID,
					ProductID:  line.ProductID,
					Quantity:   line.Quantity,
					Product:    line.Product,
				}); err != nil {
					return err
				}
			default:
				return err
			}
			moved++
		}

		if err := repo.DeleteItemsByCart([]uint{lockedSource.ID}); err != nil {
			return err
		}
		if err := s.recompute(repo, lockedSource); err != nil {
			return err
		}
		return s.recompute(repo, lockedTarget)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleCart) {
			return nil, ErrCartConflict
		}
		logger.Error("Failed to merge carts", err, map[string]interface{}{
			"from_customer_id": from.ID,
			"into_customer_id": into.ID,
		})
		return nil, err
	}

	logger.Info("Merged anonymous cart", map[string]interface{}{
		"from_customer_id": from.ID,
		"into_customer_id": into.ID,
		"lines":            moved,
	})

	merged, err := s.cartRepo.WithTx(s.db.WithContext(ctx)).FindByID(target.ID)
	if err != nil {
		return nil, err
	}
	if moved > 0 {
		s.notify(merged)
	}
	return merged, nil
}

// RecomputeCarts refreshes line totals and cached totals of the given carts
// from current product prices. Carts that are part of an order keep their
// snapshot.
func (s *cartService) RecomputeCarts(ctx context.Context, cartIDs []uint) error {
	for _, id := range cartIDs {
		var refreshed *model.Cart
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.cartRepo.WithTx(tx)
			locked, err := repo.FindByIDForUpdate(id)
			if err != nil {
				return err
			}
			if locked.InOrder {
				return nil
			}

			items, err := repo.ListItems(locked.ID)
			if err != nil {
				return err
			}
			for i := range items {
				if err := repo.SaveItem(&items[i]); err != nil {
					return err
				}
			}
			if err := s.recompute(repo, locked); err != nil {
				return err
			}
			refreshed = locked
			return nil
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			logger.Error("Failed to recompute cart", err, map[string]interface{}{
				"cart_id": id,
			})
			return err
		}
		if refreshed != nil {
			s.notify(refreshed)
		}
	}
	return nil
}

type cartMutation func(repo repository.CartRepository, locked *model.Cart) (bool, error)

// mutate runs fn against the locked cart row in one transaction. When fn
// reports a change the totals are recomputed from the stored lines and written
// under the version check.
func (s *cartService) mutate(ctx context.Context, customer *model.Customer, cart *model.Cart, fn cartMutation) (*model.Cart, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		locked, err := repo.FindByIDForUpdate(cart.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return err
		}
		if locked.OwnerID != customer.ID {
			return ErrCartNotFound
		}
		if locked.InOrder {
			return ErrCartFrozen
		}

		changed, err = fn(repo, locked)
		if err != nil || !changed {
			return err
		}
		return s.recompute(repo, locked)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleCart) {
			return nil, ErrCartConflict
		}
		if !isCartDomainError(err) {
			logger.Error("Cart mutation failed", err, map[string]interface{}{
				"cart_id":     cart.ID,
				"customer_id": customer.ID,
			})
		}
		return nil, err
	}

	updated, err := s.cartRepo.WithTx(s.db.WithContext(ctx)).FindByID(cart.ID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(updated)
	}
	return updated, nil
}

func (s *cartService) recompute(repo repository.CartRepository, cart *model.Cart) error {
	items, err := repo.ListItems(cart.ID)
	if err != nil {
		return err
	}
	cart.Items = items
	cart.RecomputeTotals()
	return repo.UpdateTotals(cart)
}

func (s *cartService) findOwnedItem(repo repository.CartRepository, cart *model.Cart, customer *model.Customer, token string) (*model.CartItem, error) {
	item, err := repo.FindItemByToken(cart.ID, customer.ID, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item token not found", map[string]interface{}{
				"cart_id":     cart.ID,
				"customer_id": customer.ID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *cartService) notify(cart *model.Cart) {
	if s.notifier == nil || cart == nil {
		return
	}
	s.notifier.PublishToCustomer(cart.OwnerID, map[string]interface{}{
		"type": "cart.updated",
		"cart": SummarizeCart(cart),
	})
}

func isCartDomainError(err error) bool {
	return errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrCartFrozen) ||
		errors.Is(err, ErrProductNotFound)
}
