package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foodtuck/storefront/internal/domain"
	apperrors "github.com/foodtuck/storefront/pkg/errors"
	"github.com/foodtuck/storefront/pkg/pagination"
)

const (
	menuSize    = 4
	chefsSize   = 4
	similarSize = 4
)

var (
	summaryFields = []string{"_id", "name", `"imageUrl": image.asset->url`, "price"}
	detailFields  = []string{
		"_id", "name", "price", "originalPrice", `"imageUrl": image.asset->url`,
		"description", "category", "tags", "available",
	}
	chefFields = []string{"_id", "name", "role", `"imageUrl": image.asset->url`}
)

type pagedFoods struct {
	Total int          `json:"total"`
	Items []foodRecord `json:"items"`
}

// SearchFoods returns foods whose name has a word starting with prefix,
// ordered by name. An empty prefix lists every food.
func (c *Client) SearchFoods(ctx context.Context, prefix string, page pagination.Params) (pagination.Result[domain.FoodSummary], error) {
	q, params := NewQuery(domain.TypeFood).
		Prefix("name", prefix).
		OrderBy("name asc").
		Slice(page.Offset, page.End()).
		Project(summaryFields...).
		BuildPaged()

	var out pagedFoods
	if err := c.Query(ctx, q, params, &out); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return pagination.NewResult([]domain.FoodSummary{}, 0, page), nil
		}
		return pagination.Result[domain.FoodSummary]{}, fmt.Errorf("search foods: %w", err)
	}

	return pagination.NewResult(c.summaries(ctx, out.Items, 0), out.Total, page), nil
}

// GetFood returns the full record of one food.
func (c *Client) GetFood(ctx context.Context, id string) (*domain.Food, error) {
	q, params := NewQuery(domain.TypeFood).
		Eq("_id", id).
		First().
		Project(detailFields...).
		Build()

	var rec foodRecord
	if err := c.Query(ctx, q, params, &rec); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("food", id)
		}
		return nil, fmt.Errorf("get food: %w", err)
	}

	food, err := rec.food()
	if err != nil {
		return nil, apperrors.BadGateway(upstreamName, err)
	}
	return food, nil
}

// SimilarFoods returns up to four other foods sharing the first tag of
// food. A food without tags has no similar items.
func (c *Client) SimilarFoods(ctx context.Context, food *domain.Food) ([]domain.Food, error) {
	if len(food.Tags) == 0 {
		return []domain.Food{}, nil
	}

	q, params := NewQuery(domain.TypeFood).
		Neq("_id", food.ID).
		Contains("tags", food.Tags[0]).
		Slice(0, similarSize).
		Project(detailFields...).
		Build()

	var recs []foodRecord
	if err := c.Query(ctx, q, params, &recs); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("similar foods: %w", err)
	}

	out := make([]domain.Food, 0, len(recs))
	for i := range recs {
		f, err := recs[i].food()
		if err != nil {
			c.skipRecord(ctx, err)
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

// Menu returns the first four foods. Foods without a price are shown at
// domain.DefaultMenuPrice.
func (c *Client) Menu(ctx context.Context) ([]domain.FoodSummary, error) {
	q, params := NewQuery(domain.TypeFood).
		Slice(0, menuSize).
		Project(summaryFields...).
		Build()

	var recs []foodRecord
	if err := c.Query(ctx, q, params, &recs); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("menu: %w", err)
	}
	return c.summaries(ctx, recs, domain.DefaultMenuPrice), nil
}

// Chefs returns the first four chefs.
func (c *Client) Chefs(ctx context.Context) ([]domain.Chef, error) {
	q, params := NewQuery(domain.TypeChef).
		Slice(0, chefsSize).
		Project(chefFields...).
		Build()

	var recs []chefRecord
	if err := c.Query(ctx, q, params, &recs); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("chefs: %w", err)
	}

	out := make([]domain.Chef, 0, len(recs))
	for i := range recs {
		chef, err := recs[i].chef()
		if err != nil {
			c.skipRecord(ctx, err)
			continue
		}
		out = append(out, chef)
	}
	return out, nil
}

// CreateOrder stores the submission as an order document whose items
// reference the ordered foods.
func (c *Client) CreateOrder(ctx context.Context, sub domain.OrderSubmission) (*domain.CreatedOrder, error) {
	id, err := c.Create(ctx, newOrderDocument(sub))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &domain.CreatedOrder{ID: id}, nil
}

// CreateFood stores a food document. An empty ID lets the store assign one.
func (c *Client) CreateFood(ctx context.Context, f domain.Food) (string, error) {
	if f.Name == "" {
		return "", apperrors.InvalidInput("food name is required")
	}
	id, err := c.Create(ctx, newFoodDocument(f))
	if err != nil {
		return "", fmt.Errorf("create food: %w", err)
	}
	return id, nil
}

// CreateChef stores a chef document.
func (c *Client) CreateChef(ctx context.Context, chef domain.Chef) (string, error) {
	if chef.Name == "" {
		return "", apperrors.InvalidInput("chef name is required")
	}
	id, err := c.Create(ctx, chefDocument{Type: domain.TypeChef, ID: chef.ID, Name: chef.Name, Role: chef.Role})
	if err != nil {
		return "", fmt.Errorf("create chef: %w", err)
	}
	return id, nil
}

func (c *Client) summaries(ctx context.Context, recs []foodRecord, defaultPrice int64) []domain.FoodSummary {
	out := make([]domain.FoodSummary, 0, len(recs))
	for i := range recs {
		s, err := recs[i].summary(defaultPrice)
		if err != nil {
			c.skipRecord(ctx, err)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Malformed documents are dropped from listings rather than failing them.
func (c *Client) skipRecord(ctx context.Context, err error) {
	c.logger.WarnContext(ctx, "skipping invalid catalog record",
		slog.String("error", err.Error()),
	)
}
