package repository

import (
	"context"

	"github.com/foodtuck/storefront/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
// Carts are keyed by session ID.
type CartRepository interface {
	// Get retrieves the cart of a session. It returns an error wrapping
	// apperrors.ErrNotFound when the session has no cart.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// SaveIfVersion persists the cart only when the stored version equals
	// expectedVersion (0 for a cart that does not exist yet). On success the
	// cart's Version is advanced to expectedVersion+1. It returns false on a
	// version mismatch.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)
}

// AttemptRepository stores the history of checkout submissions.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *domain.CheckoutAttempt) error
	Update(ctx context.Context, attempt *domain.CheckoutAttempt) error
	GetByID(ctx context.Context, id string) (*domain.CheckoutAttempt, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.CheckoutAttempt, error)
}
