package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodtuck/storefront/internal/domain"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartRepository(client, 24*time.Hour), mr
}

func storeCart(t *testing.T, mr *miniredis.Miniredis, cart *domain.Cart) {
	t.Helper()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cartKey(cart.SessionID), string(data)))
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ID:        "cart-001",
		SessionID: "sess-001",
		Items: []domain.CartItem{
			{ID: "food-1", Name: "Chicken Chup", UnitPrice: 1990, Quantity: 2, ImageURL: "https://cdn.sanity.io/images/a.png"},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	storeCart(t, mr, cart)

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, cart.SessionID, got.SessionID)
	assert.Equal(t, cart.Version, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "food-1", got.Items[0].ID)
	assert.Equal(t, int64(1990), got.Items[0].UnitPrice)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "nonexistent-session")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_InvalidJSON(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:sess-bad", "{{not-valid-json"))

	got, err := repo.Get(context.Background(), "sess-bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_NullItemsBecomeEmpty(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:sess-1", `{"id":"c","session_id":"sess-1","items":null,"version":3}`))

	got, err := repo.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestCartRepository_SaveIfVersion_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	storeCart(t, mr, cart)

	cart.Items = append(cart.Items, domain.CartItem{ID: "food-2", Name: "Fresh Lime", UnitPrice: 3800, Quantity: 1})

	ok, err := repo.SaveIfVersion(context.Background(), cart, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, cart.Version)

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Len(t, got.Items, 2)
}

func TestCartRepository_SaveIfVersion_VersionMismatch(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	storeCart(t, mr, cart)

	ok, err := repo.SaveIfVersion(context.Background(), cart, 99)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, cart.Version)

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SaveIfVersion_NewCart(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	cart.Version = 0

	ok, err := repo.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, mr.TTL("cart:"+cart.SessionID), time.Duration(0))

	got, err := repo.Get(context.Background(), cart.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SaveIfVersion_ExpiresAfterTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	ok, err := repo.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, mr.TTL(cartKey(cart.SessionID)))

	mr.FastForward(25 * time.Hour)
	_, err = repo.Get(context.Background(), cart.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_SaveIfVersion_NewCartVersionMismatch(t *testing.T) {
	repo, _ := setupTestRedis(t)

	ok, err := repo.SaveIfVersion(context.Background(), sampleCart(), 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Get(context.Background(), "sess-001")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_SaveIfVersion_ConcurrentWritersOneWins(t *testing.T) {
	repo, mr := setupTestRedis(t)

	base := sampleCart()
	storeCart(t, mr, base)

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := base.Snapshot()
			ok, err := repo.SaveIfVersion(context.Background(), &c, 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := repo.Get(context.Background(), base.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestCartRepository_Ping(t *testing.T) {
	repo, mr := setupTestRedis(t)
	assert.NoError(t, repo.Ping(context.Background()))

	mr.Close()
	assert.Error(t, repo.Ping(context.Background()))
}
