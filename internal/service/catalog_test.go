package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foodtuck/storefront/internal/domain"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
	"github.com/foodtuck/storefront/pkg/pagination"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) SearchFoods(ctx context.Context, prefix string, page pagination.Params) (pagination.Result[domain.FoodSummary], error) {
	args := m.Called(ctx, prefix, page)
	return args.Get(0).(pagination.Result[domain.FoodSummary]), args.Error(1)
}

func (m *mockCatalog) GetFood(ctx context.Context, id string) (*domain.Food, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Food), args.Error(1)
}

func (m *mockCatalog) SimilarFoods(ctx context.Context, f *domain.Food) ([]domain.Food, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Food), args.Error(1)
}

func (m *mockCatalog) Menu(ctx context.Context) ([]domain.FoodSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FoodSummary), args.Error(1)
}

func (m *mockCatalog) Chefs(ctx context.Context) ([]domain.Chef, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Chef), args.Error(1)
}

func TestCatalogService_SearchFoods(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())
	page := pagination.DefaultParams()

	want := pagination.NewResult([]domain.FoodSummary{{ID: "food-1", Name: "Chicken Chup"}}, 1, page)
	catalog.On("SearchFoods", mock.Anything, "chick", page).Return(want, nil)

	got, err := svc.SearchFoods(context.Background(), "  chick** ", page)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCatalogService_SearchFoods_TooLong(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())

	_, err := svc.SearchFoods(context.Background(), strings.Repeat("a", MaxSearchLength+1), pagination.DefaultParams())
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	catalog.AssertNotCalled(t, "SearchFoods", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_GetFood_InvalidID(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())

	for _, id := range []string{"", "../etc", "food 1", `x"]`} {
		_, err := svc.GetFood(context.Background(), id)
		assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err), id)
	}
	catalog.AssertNotCalled(t, "GetFood", mock.Anything, mock.Anything)
}

func TestCatalogService_GetFoodDetail(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())

	f := food("food-1", 1000)
	f.Tags = []string{"Popular"}
	catalog.On("GetFood", mock.Anything, "food-1").Return(f, nil)
	catalog.On("SimilarFoods", mock.Anything, f).Return([]domain.Food{*food("food-2", 900)}, nil)

	detail, err := svc.GetFoodDetail(context.Background(), "food-1")
	require.NoError(t, err)
	assert.Equal(t, f, detail.Food)
	require.Len(t, detail.Similar, 1)
	assert.Equal(t, "food-2", detail.Similar[0].ID)
}

func TestCatalogService_GetFoodDetail_SimilarFailureIsSoft(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())

	f := food("food-1", 1000)
	catalog.On("GetFood", mock.Anything, "food-1").Return(f, nil)
	catalog.On("SimilarFoods", mock.Anything, f).Return(nil, errors.New("store down"))

	detail, err := svc.GetFoodDetail(context.Background(), "food-1")
	require.NoError(t, err)
	assert.Empty(t, detail.Similar)
	assert.NotNil(t, detail.Similar)
}

func TestCatalogService_SimilarFoods_NotFound(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())
	catalog.On("GetFood", mock.Anything, "food-9").Return(nil, apperrors.NotFound("food", "food-9"))

	_, err := svc.SimilarFoods(context.Background(), "food-9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogService_MenuAndChefs(t *testing.T) {
	catalog := new(mockCatalog)
	svc := NewCatalogService(catalog, newTestLogger())
	catalog.On("Menu", mock.Anything).Return([]domain.FoodSummary{{ID: "food-1", Price: domain.DefaultMenuPrice}}, nil)
	catalog.On("Chefs", mock.Anything).Return([]domain.Chef{{ID: "chef-1", Name: "Rumi"}}, nil)

	menu, err := svc.Menu(context.Background())
	require.NoError(t, err)
	assert.Len(t, menu, 1)

	chefs, err := svc.Chefs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rumi", chefs[0].Name)
}
