// Command seed populates an empty content store with the starter menu and
// kitchen team. It needs CATALOG_TOKEN with write access.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/foodtuck/storefront/internal/catalog"
	"github.com/foodtuck/storefront/internal/config"
	"github.com/foodtuck/storefront/internal/seed"
	pkgconfig "github.com/foodtuck/storefront/pkg/config"
	"github.com/foodtuck/storefront/pkg/httpclient"
	"github.com/foodtuck/storefront/pkg/logger"
)

func main() {
	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront-seed", cfg.LogLevel)
	if cfg.CatalogToken == "" {
		log.Error("CATALOG_TOKEN is required to write documents")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = time.Duration(cfg.CatalogTimeoutSec) * time.Second
	cb := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), httpclient.DefaultCircuitBreakerConfig("catalog-seed"), log)

	client := catalog.NewClient(cb, catalog.Config{
		ProjectID:  cfg.CatalogProjectID,
		Dataset:    cfg.CatalogDataset,
		APIVersion: cfg.CatalogAPIVersion,
		Token:      cfg.CatalogToken,
		BaseURL:    cfg.CatalogBaseURL,
	}, log)

	sum, err := seed.Run(ctx, client, seed.Foods(), seed.Chefs(), log)
	if err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("seed complete",
		slog.Int("foods", sum.Foods),
		slog.Int("chefs", sum.Chefs),
		slog.Int("failed", sum.Failed),
	)
}
