package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodtuck/storefront/internal/domain"
	"github.com/foodtuck/storefront/pkg/database"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestRepo(t *testing.T) (*AttemptRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewAttemptRepository(mock), mock
}

func sampleAttempt() *domain.CheckoutAttempt {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.CheckoutAttempt{
		ID:            "attempt-001",
		SessionID:     "sess-001",
		CartID:        "cart-001",
		Status:        domain.AttemptSubmitting,
		Email:         "ada@example.com",
		PaymentMethod: domain.PaymentCreditCard,
		ItemIDs:       []string{"food-1", "food-2"},
		Subtotal:      2500,
		Shipping:      3000,
		Total:         5500,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func attemptColumnNames() []string {
	return []string{
		"id", "session_id", "cart_id", "status", "email", "payment_method", "item_ids",
		"subtotal_amount", "shipping_amount", "total_amount", "order_id", "failure_reason",
		"created_at", "updated_at",
	}
}

func attemptRow(t *testing.T, a *domain.CheckoutAttempt) []any {
	t.Helper()
	itemsJSON, err := json.Marshal(a.ItemIDs)
	require.NoError(t, err)

	return []any{
		a.ID, a.SessionID, a.CartID, a.Status, a.Email, a.PaymentMethod, itemsJSON,
		a.Subtotal, a.Shipping, a.Total, nullableString(a.OrderID), nullableString(a.FailureReason),
		a.CreatedAt, a.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestAttemptRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	itemsJSON, err := json.Marshal(a.ItemIDs)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO checkout_attempts").
		WithArgs(
			a.ID, a.SessionID, a.CartID, a.Status, a.Email, a.PaymentMethod, itemsJSON,
			a.Subtotal, a.Shipping, a.Total, (*string)(nil), (*string)(nil),
			a.CreatedAt, a.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_Create_ExecError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO checkout_attempts").
		WillReturnError(errors.New("duplicate key"))

	err := repo.Create(context.Background(), sampleAttempt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert checkout attempt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestAttemptRepository_Update_Succeeded(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	a.Succeed("order-123")

	mock.ExpectExec("UPDATE checkout_attempts").
		WithArgs(domain.AttemptSucceeded, nullableString("order-123"), (*string)(nil), a.UpdatedAt, a.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_Update_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	a.Fail("catalog request failed")

	mock.ExpectExec("UPDATE checkout_attempts").
		WithArgs(domain.AttemptFailed, (*string)(nil), nullableString("catalog request failed"), a.UpdatedAt, a.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), a)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestAttemptRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	a.Succeed("order-123")

	mock.ExpectQuery("SELECT .+ FROM checkout_attempts WHERE id").
		WithArgs(a.ID).
		WillReturnRows(pgxmock.NewRows(attemptColumnNames()).AddRow(attemptRow(t, a)...))

	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.SessionID, got.SessionID)
	assert.Equal(t, domain.AttemptSucceeded, got.Status)
	assert.Equal(t, []string{"food-1", "food-2"}, got.ItemIDs)
	assert.Equal(t, int64(5500), got.Total)
	assert.Equal(t, "order-123", got.OrderID)
	assert.Empty(t, got.FailureReason)
	assert.Equal(t, a.CreatedAt, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM checkout_attempts WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ListBySession
// ---------------------------------------------------------------------------

func TestAttemptRepository_ListBySession(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	first := sampleAttempt()
	second := sampleAttempt()
	second.ID = "attempt-002"
	second.Fail("catalog unavailable")

	mock.ExpectQuery("SELECT .+ FROM checkout_attempts\\s+WHERE session_id").
		WithArgs("sess-001", 10).
		WillReturnRows(pgxmock.NewRows(attemptColumnNames()).
			AddRow(attemptRow(t, second)...).
			AddRow(attemptRow(t, first)...))

	got, err := repo.ListBySession(context.Background(), "sess-001", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "attempt-002", got[0].ID)
	assert.Equal(t, "catalog unavailable", got[0].FailureReason)
	assert.Equal(t, "attempt-001", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListBySession_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM checkout_attempts").
		WithArgs("sess-none", 5).
		WillReturnRows(pgxmock.NewRows(attemptColumnNames()))

	got, err := repo.ListBySession(context.Background(), "sess-none", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListBySession_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM checkout_attempts").
		WithArgs("sess-001", 5).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListBySession(context.Background(), "sess-001", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list checkout attempts")
}
