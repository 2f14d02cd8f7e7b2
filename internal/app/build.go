package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/gradfund/counselor/internal/cache"
	"github.com/gradfund/counselor/internal/chatlog"
	"github.com/gradfund/counselor/internal/config"
	"github.com/gradfund/counselor/internal/counsel"
	"github.com/gradfund/counselor/internal/httpapi"
	"github.com/gradfund/counselor/internal/lender"
	"github.com/gradfund/counselor/internal/model"
	"github.com/gradfund/counselor/internal/observability"
	"github.com/gradfund/counselor/internal/recstore"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Counselor *counsel.Counselor
	Metrics   *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build assembles the whole service from configuration.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	modelClient, err := model.NewClient(model.Config{
		Mode:        cfg.ModelProvider,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.ModelTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("model client init: %w", err)
	}

	recStore, err := recstore.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("recommendation store init: %w", err)
	}

	lenderStore := lender.NewStore()
	catalog := lender.Catalog()
	if err := lenderStore.Index(ctx, catalog); err != nil {
		_ = recStore.Close()
		return nil, fmt.Errorf("lender index init: %w", err)
	}

	responseCache := cache.New(cfg.RedisAddr, cfg.CacheTTL)
	chatLog := chatlog.New()
	workers := semaphore.NewWeighted(int64(cfg.WorkerPoolSize))

	counselor := counsel.New(counsel.Deps{
		Model:           modelClient,
		Recommendations: recStore,
		Aggregator:      counsel.NewAggregator(catalog, recStore, lenderStore, workers),
		ChatLog:         chatLog,
		Cache:           responseCache,
		Metrics:         metrics,
		Workers:         workers,
	})

	api := httpapi.New(cfg, counselor, chatLog, metrics)

	cleanup := func() error {
		counselor.Drain()
		cacheErr := responseCache.Close()
		storeErr := recStore.Close()
		if cacheErr != nil {
			return cacheErr
		}
		return storeErr
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Counselor: counselor,
		Metrics:   metrics,
		Cleanup:   cleanup,
	}, nil
}
