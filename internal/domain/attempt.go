package domain

import (
	"time"

	"github.com/google/uuid"
)

// Checkout attempt states. An attempt starts submitting and ends in exactly
// one of the terminal states.
const (
	AttemptSubmitting = "submitting"
	AttemptSucceeded  = "succeeded"
	AttemptFailed     = "failed"
)

// CheckoutAttempt records one submission of a cart to the catalog store.
type CheckoutAttempt struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	CartID        string    `json:"cart_id"`
	Status        string    `json:"status"`
	Email         string    `json:"email"`
	PaymentMethod string    `json:"payment_method"`
	ItemIDs       []string  `json:"item_ids"`
	Subtotal      int64     `json:"subtotal"`
	Shipping      int64     `json:"shipping"`
	Total         int64     `json:"total"`
	OrderID       string    `json:"order_id,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewCheckoutAttempt starts an attempt for the given submission.
func NewCheckoutAttempt(sessionID, cartID string, sub OrderSubmission) *CheckoutAttempt {
	now := time.Now().UTC()
	return &CheckoutAttempt{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		CartID:        cartID,
		Status:        AttemptSubmitting,
		Email:         sub.Email,
		PaymentMethod: sub.PaymentMethod,
		ItemIDs:       sub.Items,
		Subtotal:      sub.Subtotal,
		Shipping:      sub.Shipping,
		Total:         sub.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Succeed marks the attempt as confirmed by the store.
func (a *CheckoutAttempt) Succeed(orderID string) {
	a.Status = AttemptSucceeded
	a.OrderID = orderID
	a.UpdatedAt = time.Now().UTC()
}

// Fail marks the attempt as rejected or unreachable.
func (a *CheckoutAttempt) Fail(reason string) {
	a.Status = AttemptFailed
	a.FailureReason = reason
	a.UpdatedAt = time.Now().UTC()
}
