package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foodtuck/storefront/internal/domain"
	"github.com/foodtuck/storefront/internal/event"
	"github.com/foodtuck/storefront/internal/repository"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
	"github.com/foodtuck/storefront/pkg/validator"
)

// Checkout submission results, used as metric labels.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
)

const (
	// DefaultSubmitTimeout bounds the order create call when none is configured.
	DefaultSubmitTimeout = 10 * time.Second

	// MaxAttemptsListed caps the attempt history returned per session.
	MaxAttemptsListed = 50

	// settleTimeout bounds the bookkeeping that follows a submission. It
	// runs detached from the request so a disconnecting shopper cannot
	// leave a confirmed order with a full cart.
	settleTimeout = 5 * time.Second
)

// OrderCreator stores an order submission and returns the created order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, sub domain.OrderSubmission) (*domain.CreatedOrder, error)
}

// CartSource is the view of the cart store that checkout needs.
type CartSource interface {
	Snapshot(ctx context.Context, sessionID string) (domain.Cart, error)
	ClearAfterCheckout(ctx context.Context, sessionID string) error
}

// CheckoutResult describes a successful checkout.
type CheckoutResult struct {
	OrderID string                  `json:"order_id"`
	Attempt *domain.CheckoutAttempt `json:"attempt"`
	Totals  domain.Totals           `json:"totals"`
}

// CheckoutService submits session carts as orders.
type CheckoutService struct {
	carts         CartSource
	orders        OrderCreator
	attempts      repository.AttemptRepository
	producer      *event.Producer
	policy        domain.ShippingPolicy
	logger        *slog.Logger
	submitTimeout time.Duration
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts CartSource,
	orders OrderCreator,
	attempts repository.AttemptRepository,
	producer *event.Producer,
	policy domain.ShippingPolicy,
	logger *slog.Logger,
	submitTimeout time.Duration,
) *CheckoutService {
	if submitTimeout <= 0 {
		submitTimeout = DefaultSubmitTimeout
	}
	return &CheckoutService{
		carts:         carts,
		orders:        orders,
		attempts:      attempts,
		producer:      producer,
		policy:        policy,
		logger:        logger,
		submitTimeout: submitTimeout,
	}
}

// Checkout submits the current cart of a session as a pending order.
//
// The order is built from a snapshot taken before submission, so edits
// made while the create call is in flight are not part of it. The cart is
// cleared only after the store confirms the order. Checkout is not
// idempotent: calling it again after a success submits a new order.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, form domain.OrderForm) (*CheckoutResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if err := validator.Validate(form); err != nil {
		checkoutSubmissionsTotal.WithLabelValues(ResultRejected).Inc()
		return nil, err
	}

	cart, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	if cart.IsEmpty() {
		checkoutSubmissionsTotal.WithLabelValues(ResultRejected).Inc()
		return nil, apperrors.InvalidInput("cart is empty")
	}

	sub := domain.NewOrderSubmission(form, cart, s.policy)
	attempt := domain.NewCheckoutAttempt(sessionID, cart.ID, sub)
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to record checkout attempt",
			slog.String("attempt_id", attempt.ID),
			slog.String("error", err.Error()),
		)
	}

	created, err := s.submit(ctx, sub)

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if err != nil {
		attempt.Fail(failureReason(err))
		s.finish(settleCtx, attempt)
		checkoutSubmissionsTotal.WithLabelValues(ResultFailed).Inc()

		if err := s.producer.PublishCheckoutFailed(settleCtx, attempt); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish checkout.failed event",
				slog.String("attempt_id", attempt.ID),
				slog.String("error", err.Error()),
			)
		}

		s.logger.WarnContext(ctx, "checkout failed",
			slog.String("attempt_id", attempt.ID),
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("submit order: %w", err)
	}

	attempt.Succeed(created.ID)
	s.finish(settleCtx, attempt)
	checkoutSubmissionsTotal.WithLabelValues(ResultSucceeded).Inc()

	// The order exists at this point; a failed clear must not turn the
	// checkout into an error the customer would retry.
	if err := s.carts.ClearAfterCheckout(settleCtx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("session_id", sessionID),
			slog.String("order_id", created.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderSubmitted(settleCtx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.submitted event",
			slog.String("attempt_id", attempt.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout succeeded",
		slog.String("attempt_id", attempt.ID),
		slog.String("order_id", created.ID),
		slog.String("session_id", sessionID),
		slog.Int64("total", sub.Total),
	)

	return &CheckoutResult{
		OrderID: created.ID,
		Attempt: attempt,
		Totals:  cart.Totals(s.policy),
	}, nil
}

// GetAttempt returns a checkout attempt owned by the session. Attempts of
// other sessions are reported as not found.
func (s *CheckoutService) GetAttempt(ctx context.Context, sessionID, attemptID string) (*domain.CheckoutAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get checkout attempt: %w", err)
	}
	if attempt.SessionID != sessionID {
		return nil, apperrors.NotFound("checkout attempt", attemptID)
	}
	return attempt, nil
}

// ListAttempts returns the most recent attempts of a session, newest first.
func (s *CheckoutService) ListAttempts(ctx context.Context, sessionID string, limit int) ([]domain.CheckoutAttempt, error) {
	if limit <= 0 || limit > MaxAttemptsListed {
		limit = MaxAttemptsListed
	}
	attempts, err := s.attempts.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list checkout attempts: %w", err)
	}
	return attempts, nil
}

func (s *CheckoutService) submit(ctx context.Context, sub domain.OrderSubmission) (*domain.CreatedOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	created, err := s.orders.CreateOrder(ctx, sub)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.BadGateway("catalog", fmt.Errorf("order submission timed out after %s: %w", s.submitTimeout, err))
		}
		return nil, err
	}
	return created, nil
}

func (s *CheckoutService) finish(ctx context.Context, attempt *domain.CheckoutAttempt) {
	if err := s.attempts.Update(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to record checkout outcome",
			slog.String("attempt_id", attempt.ID),
			slog.String("status", attempt.Status),
			slog.String("error", err.Error()),
		)
	}
}

// failureReason is the customer-safe description stored on a failed attempt.
func failureReason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "order submission failed"
}
