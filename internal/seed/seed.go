// Package seed loads a starter menu and kitchen team into an empty content
// store so a fresh storefront has something to browse.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foodtuck/storefront/internal/domain"
)

// Store is the write surface of the content store used by the seeder.
type Store interface {
	CreateFood(ctx context.Context, f domain.Food) (string, error)
	CreateChef(ctx context.Context, c domain.Chef) (string, error)
}

// Summary counts the documents written by Run.
type Summary struct {
	Foods  int
	Chefs  int
	Failed int
}

func cents(v int64) *int64 { return &v }

// Foods returns the starter menu. Prices are in cents.
func Foods() []domain.Food {
	return []domain.Food{
		{ID: "food-fresh-lime", Name: "Fresh Lime", Price: 3800, OriginalPrice: cents(4500), Category: "Drink", Tags: []string{"drink", "cold"}, Available: true},
		{ID: "food-chocolate-muffin", Name: "Chocolate Muffin", Price: 2800, Category: "Dessert", Tags: []string{"dessert", "sweet"}, Available: true},
		{ID: "food-burger", Name: "Burger", Price: 2100, OriginalPrice: cents(4500), Category: "Burger", Tags: []string{"burger", "beef"}, Available: true},
		{ID: "food-country-burger", Name: "Country Burger", Price: 4500, Category: "Burger", Tags: []string{"burger", "chicken"}, Available: true},
		{ID: "food-drink", Name: "Drink", Price: 2300, OriginalPrice: cents(4500), Category: "Drink", Tags: []string{"drink"}, Available: true},
		{ID: "food-pizza", Name: "Pizza", Price: 4300, Category: "Pizza", Tags: []string{"pizza", "cheese"}, Available: true},
		{ID: "food-cheese-butter", Name: "Cheese Butter", Price: 1000, Category: "Sides", Tags: []string{"cheese", "sides"}, Available: true},
		{ID: "food-sandwiches", Name: "Sandwiches", Price: 2500, Category: "Sandwich", Tags: []string{"sandwich", "chicken"}, Available: false},
		{ID: "food-chicken-chup", Name: "Chicken Chup", Price: 1250, Category: "Main", Tags: []string{"chicken", "spicy"}, Available: true},
	}
}

// Chefs returns the starter kitchen team.
func Chefs() []domain.Chef {
	return []domain.Chef{
		{ID: "chef-tahmina-rumi", Name: "Tahmina Rumi", Role: "Chef"},
		{ID: "chef-jorina-begum", Name: "Jorina Begum", Role: "Chef"},
		{ID: "chef-m-mohammad", Name: "M. Mohammad", Role: "Chef"},
		{ID: "chef-munna-kathy", Name: "Munna Kathy", Role: "Chef"},
	}
}

// Run writes foods and chefs to store. A failed document is logged and
// skipped; Run fails only when the context ends or nothing was written.
func Run(ctx context.Context, store Store, foods []domain.Food, chefs []domain.Chef, logger *slog.Logger) (Summary, error) {
	var (
		sum      Summary
		firstErr error
	)
	fail := func(kind, name string, err error) {
		sum.Failed++
		if firstErr == nil {
			firstErr = err
		}
		logger.WarnContext(ctx, "seed document failed",
			slog.String("kind", kind),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}

	for _, f := range foods {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("seed foods: %w", err)
		}
		id, err := store.CreateFood(ctx, f)
		if err != nil {
			fail("food", f.Name, err)
			continue
		}
		sum.Foods++
		logger.InfoContext(ctx, "food created", slog.String("id", id), slog.String("name", f.Name))
	}

	for _, c := range chefs {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("seed chefs: %w", err)
		}
		id, err := store.CreateChef(ctx, c)
		if err != nil {
			fail("chef", c.Name, err)
			continue
		}
		sum.Chefs++
		logger.InfoContext(ctx, "chef created", slog.String("id", id), slog.String("name", c.Name))
	}

	if sum.Foods+sum.Chefs == 0 && sum.Failed > 0 {
		return sum, fmt.Errorf("seed: all %d documents failed: %w", sum.Failed, firstErr)
	}
	return sum, nil
}
