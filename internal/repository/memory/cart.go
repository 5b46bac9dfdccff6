package memory

import (
	"context"
	"sync"

	"github.com/foodtuck/storefront/internal/domain"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

// CartRepository keeps carts in process memory. It honours the same
// version contract as the Redis repository and is used when no Redis
// address is configured.
type CartRepository struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

// NewCartRepository creates an empty in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

func (r *CartRepository) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[sessionID]
	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}
	cp := cart.Snapshot()
	return &cp, nil
}

func (r *CartRepository) SaveIfVersion(_ context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := 0
	if stored, ok := r.carts[cart.SessionID]; ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return false, nil
	}

	cart.Version = expectedVersion + 1
	r.carts[cart.SessionID] = cart.Snapshot()
	return true, nil
}
