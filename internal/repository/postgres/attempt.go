package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/foodtuck/storefront/internal/domain"
	"github.com/foodtuck/storefront/pkg/database"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

const attemptColumns = `id, session_id, cart_id, status, email, payment_method, item_ids,
			subtotal_amount, shipping_amount, total_amount, order_id, failure_reason,
			created_at, updated_at`

// AttemptRepository implements repository.AttemptRepository using PostgreSQL.
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new PostgreSQL-backed attempt repository.
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts a new checkout attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *domain.CheckoutAttempt) (err error) {
	itemsJSON, err := json.Marshal(a.ItemIDs)
	if err != nil {
		return fmt.Errorf("marshal item ids: %w", err)
	}

	query := `
		INSERT INTO checkout_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	ctx, end := database.TraceQuery(ctx, "InsertAttempt", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.SessionID,
		a.CartID,
		a.Status,
		a.Email,
		a.PaymentMethod,
		itemsJSON,
		a.Subtotal,
		a.Shipping,
		a.Total,
		nullableString(a.OrderID),
		nullableString(a.FailureReason),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout attempt: %w", err)
	}

	return nil
}

// Update records the outcome of an attempt.
func (r *AttemptRepository) Update(ctx context.Context, a *domain.CheckoutAttempt) (err error) {
	query := `
		UPDATE checkout_attempts
		SET status = $1, order_id = $2, failure_reason = $3, updated_at = $4
		WHERE id = $5`

	ctx, end := database.TraceQuery(ctx, "UpdateAttempt", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		a.Status,
		nullableString(a.OrderID),
		nullableString(a.FailureReason),
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update checkout attempt: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("checkout attempt", a.ID)
	}

	return nil
}

// GetByID retrieves a checkout attempt by its ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (attempt *domain.CheckoutAttempt, err error) {
	query := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetAttempt", query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	attempt, err = scanAttempt(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("checkout attempt", id)
		}
		return nil, fmt.Errorf("get checkout attempt: %w", err)
	}
	return attempt, nil
}

// ListBySession returns the newest attempts of a session.
func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID string, limit int) (attempts []domain.CheckoutAttempt, err error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM checkout_attempts
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListAttempts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list checkout attempts: %w", err)
	}
	defer rows.Close()

	attempts = []domain.CheckoutAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout attempt row: %w", err)
		}
		attempts = append(attempts, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout attempt rows: %w", err)
	}

	return attempts, nil
}

func scanAttempt(row pgx.Row) (*domain.CheckoutAttempt, error) {
	var (
		a             domain.CheckoutAttempt
		itemsJSON     []byte
		orderID       *string
		failureReason *string
	)

	if err := row.Scan(
		&a.ID,
		&a.SessionID,
		&a.CartID,
		&a.Status,
		&a.Email,
		&a.PaymentMethod,
		&itemsJSON,
		&a.Subtotal,
		&a.Shipping,
		&a.Total,
		&orderID,
		&failureReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &a.ItemIDs); err != nil {
		return nil, fmt.Errorf("unmarshal item ids: %w", err)
	}
	if orderID != nil {
		a.OrderID = *orderID
	}
	if failureReason != nil {
		a.FailureReason = *failureReason
	}

	return &a, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
