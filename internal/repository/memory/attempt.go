package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/foodtuck/storefront/internal/domain"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

// AttemptRepository keeps checkout attempts in process memory. History is
// lost on restart; configure Postgres to keep it.
type AttemptRepository struct {
	mu       sync.RWMutex
	attempts map[string]domain.CheckoutAttempt
}

// NewAttemptRepository creates an empty in-memory attempt repository.
func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{attempts: make(map[string]domain.CheckoutAttempt)}
}

func (r *AttemptRepository) Create(_ context.Context, a *domain.CheckoutAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[a.ID]; exists {
		return apperrors.Conflict("checkout attempt already exists")
	}
	r.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (r *AttemptRepository) Update(_ context.Context, a *domain.CheckoutAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[a.ID]; !exists {
		return apperrors.NotFound("checkout attempt", a.ID)
	}
	r.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (r *AttemptRepository) GetByID(_ context.Context, id string) (*domain.CheckoutAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.attempts[id]
	if !ok {
		return nil, apperrors.NotFound("checkout attempt", id)
	}
	cp := cloneAttempt(&a)
	return &cp, nil
}

// ListBySession returns the session's attempts, newest first.
func (r *AttemptRepository) ListBySession(_ context.Context, sessionID string, limit int) ([]domain.CheckoutAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CheckoutAttempt, 0)
	for _, a := range r.attempts {
		if a.SessionID == sessionID {
			out = append(out, cloneAttempt(&a))
		}
	}
	slices.SortFunc(out, func(a, b domain.CheckoutAttempt) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneAttempt(a *domain.CheckoutAttempt) domain.CheckoutAttempt {
	cp := *a
	cp.ItemIDs = slices.Clone(a.ItemIDs)
	return cp
}
