package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foodtuck/storefront/internal/domain"
	"github.com/foodtuck/storefront/internal/event"
	"github.com/foodtuck/storefront/internal/repository"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct foods allowed in a cart.
	MaxItemsPerCart = 50

	// maxSaveAttempts bounds the read-modify-write loop on version conflicts.
	maxSaveAttempts = 3
)

// Cart operation labels.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpClear  = "clear"
)

// Reasons attached to cart.cleared events.
const (
	ClearReasonUser     = "user"
	ClearReasonCheckout = "checkout"
)

// FoodLookup resolves a catalog food. Cart lines take their name, price and
// image from the catalog, never from the client.
type FoodLookup interface {
	GetFood(ctx context.Context, id string) (*domain.Food, error)
}

// AddItemInput holds the parameters for adding a food to the cart.
type AddItemInput struct {
	FoodID   string `json:"food_id" validate:"required,catalogid"`
	Quantity int    `json:"quantity" validate:"required,gte=1,lte=100"`
}

// UpdateQuantityInput holds the parameters for setting a line quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=100"`
}

// CartView is a cart together with its derived totals.
type CartView struct {
	Cart   *domain.Cart  `json:"cart"`
	Totals domain.Totals `json:"totals"`
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo     repository.CartRepository
	foods    FoodLookup
	producer *event.Producer
	policy   domain.ShippingPolicy
	logger   *slog.Logger
	cartTTL  time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(
	repo repository.CartRepository,
	foods FoodLookup,
	producer *event.Producer,
	policy domain.ShippingPolicy,
	logger *slog.Logger,
	cartTTL time.Duration,
) *CartService {
	return &CartService{
		repo:     repo,
		foods:    foods,
		producer: producer,
		policy:   policy,
		logger:   logger,
		cartTTL:  cartTTL,
	}
}

// GetCart returns the cart of a session. A session without a stored cart
// gets a new empty one; it is persisted on its first mutation.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.getOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

// Snapshot returns an independent copy of the session cart.
func (s *CartService) Snapshot(ctx context.Context, sessionID string) (domain.Cart, error) {
	cart, err := s.getOrCreateCart(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart.Snapshot(), nil
}

// AddItem adds a food to the cart, or increases the quantity of its line
// if the food is already there.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if input.FoodID == "" {
		return nil, apperrors.InvalidInput("food id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	food, err := s.foods.GetFood(ctx, input.FoodID)
	if err != nil {
		return nil, fmt.Errorf("look up food: %w", err)
	}
	if !food.Available {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s is not available", food.Name))
	}

	cart, err := s.mutate(ctx, sessionID, OpAdd, func(cart *domain.Cart) (bool, error) {
		idx := cart.FindItemIndex(food.ID)
		if idx < 0 && len(cart.Items) >= MaxItemsPerCart {
			return false, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		if idx >= 0 && cart.Items[idx].Quantity+input.Quantity > MaxQuantityPerItem {
			return false, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		if err := cart.Add(food.CartItem(input.Quantity)); err != nil {
			return false, apperrors.InvalidInput(err.Error())
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("food_id", food.ID),
		slog.Int("quantity", input.Quantity),
	)

	return s.view(cart), nil
}

// UpdateItemQuantity sets the quantity of a line. An id that is not in the
// cart leaves the cart unchanged.
func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionID, foodID string, quantity int) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if foodID == "" {
		return nil, apperrors.InvalidInput("food id is required")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	cart, err := s.mutate(ctx, sessionID, OpUpdate, func(cart *domain.Cart) (bool, error) {
		return cart.UpdateQuantity(foodID, quantity), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.String("food_id", foodID),
		slog.Int("quantity", quantity),
	)

	return s.view(cart), nil
}

// RemoveItem removes a line from the cart. Removing an id that is not in
// the cart is not an error.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, foodID string) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if foodID == "" {
		return nil, apperrors.InvalidInput("food id is required")
	}

	cart, err := s.mutate(ctx, sessionID, OpRemove, func(cart *domain.Cart) (bool, error) {
		return cart.Remove(foodID), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.String("food_id", foodID),
	)

	return s.view(cart), nil
}

// ClearCart removes every line from the cart. The cart itself is kept.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.clear(ctx, sessionID, ClearReasonUser)
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

// ClearAfterCheckout empties the cart once its order has been created.
func (s *CartService) ClearAfterCheckout(ctx context.Context, sessionID string) error {
	_, err := s.clear(ctx, sessionID, ClearReasonCheckout)
	return err
}

func (s *CartService) clear(ctx context.Context, sessionID, reason string) (*domain.Cart, error) {
	var cleared bool
	cart, err := s.mutate(ctx, sessionID, OpClear, func(cart *domain.Cart) (bool, error) {
		if cart.IsEmpty() {
			return false, nil
		}
		cart.Clear()
		cleared = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !cleared {
		return cart, nil
	}

	if err := s.producer.PublishCartCleared(ctx, sessionID, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sessionID),
		slog.String("reason", reason),
	)

	return cart, nil
}

// mutate loads the session cart, applies fn and saves the result with
// optimistic locking, reloading and reapplying fn when another writer got
// there first. fn reports whether it changed the cart; unchanged carts are
// not written.
func (s *CartService) mutate(ctx context.Context, sessionID, op string, fn func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		cart, err := s.getOrCreateCart(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		expectedVersion := cart.Version
		changed, err := fn(cart)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cart, nil
		}

		now := time.Now().UTC()
		cart.UpdatedAt = now
		cart.ExpiresAt = now.Add(s.cartTTL)

		ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			cartOperationsTotal.WithLabelValues(op).Inc()
			if op != OpClear {
				if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
					s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
						slog.String("session_id", sessionID),
						slog.String("error", err.Error()),
					)
				}
			}
			return cart, nil
		}

		cartConflictsTotal.Inc()
		s.logger.WarnContext(ctx, "cart version conflict, retrying",
			slog.String("session_id", sessionID),
			slog.String("op", op),
			slog.Int("attempt", attempt),
		)
	}

	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

// getOrCreateCart retrieves the cart of a session, creating an empty one if
// it does not exist.
func (s *CartService) getOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) newEmptyCart(sessionID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}

func (s *CartService) view(cart *domain.Cart) *CartView {
	return &CartView{Cart: cart, Totals: cart.Totals(s.policy)}
}
