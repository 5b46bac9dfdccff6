package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/foodtuck/storefront/internal/domain"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
	"github.com/foodtuck/storefront/pkg/pagination"
	"github.com/foodtuck/storefront/pkg/validator"
)

// MaxSearchLength is the longest accepted search prefix, in characters.
const MaxSearchLength = 100

// Catalog is the read side of the content store.
type Catalog interface {
	SearchFoods(ctx context.Context, prefix string, page pagination.Params) (pagination.Result[domain.FoodSummary], error)
	GetFood(ctx context.Context, id string) (*domain.Food, error)
	SimilarFoods(ctx context.Context, food *domain.Food) ([]domain.Food, error)
	Menu(ctx context.Context) ([]domain.FoodSummary, error)
	Chefs(ctx context.Context) ([]domain.Chef, error)
}

// FoodDetail is a food together with foods sharing its first tag.
type FoodDetail struct {
	Food    *domain.Food  `json:"food"`
	Similar []domain.Food `json:"similar"`
}

// CatalogService validates browse requests before they reach the store.
type CatalogService struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(catalog Catalog, logger *slog.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger}
}

// SearchFoods lists foods whose name has a word starting with search.
func (s *CatalogService) SearchFoods(ctx context.Context, search string, page pagination.Params) (pagination.Result[domain.FoodSummary], error) {
	search = strings.TrimSpace(search)
	if utf8.RuneCountInString(search) > MaxSearchLength {
		return pagination.Result[domain.FoodSummary]{}, apperrors.InvalidInput(fmt.Sprintf("search must not exceed %d characters", MaxSearchLength))
	}
	// A trailing wildcard is appended by the query builder.
	search = strings.TrimRight(search, "*")

	return s.catalog.SearchFoods(ctx, search, page)
}

// GetFood returns one food by catalog id.
func (s *CatalogService) GetFood(ctx context.Context, id string) (*domain.Food, error) {
	if !validator.IsCatalogID(id) {
		return nil, apperrors.InvalidInput("invalid food id")
	}
	return s.catalog.GetFood(ctx, id)
}

// GetFoodDetail returns a food and up to four similar foods. A failure to
// load the similar foods is logged and yields an empty list.
func (s *CatalogService) GetFoodDetail(ctx context.Context, id string) (*FoodDetail, error) {
	food, err := s.GetFood(ctx, id)
	if err != nil {
		return nil, err
	}

	similar, err := s.catalog.SimilarFoods(ctx, food)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load similar foods",
			slog.String("food_id", id),
			slog.String("error", err.Error()),
		)
		similar = []domain.Food{}
	}

	return &FoodDetail{Food: food, Similar: similar}, nil
}

// SimilarFoods returns up to four foods sharing the first tag of a food.
func (s *CatalogService) SimilarFoods(ctx context.Context, id string) ([]domain.Food, error) {
	food, err := s.GetFood(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.catalog.SimilarFoods(ctx, food)
}

// Menu returns the featured menu.
func (s *CatalogService) Menu(ctx context.Context) ([]domain.FoodSummary, error) {
	return s.catalog.Menu(ctx)
}

// Chefs returns the featured chefs.
func (s *CatalogService) Chefs(ctx context.Context) ([]domain.Chef, error) {
	return s.catalog.Chefs(ctx)
}
