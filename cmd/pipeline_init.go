package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flipscan/appraise/internal/cost"
	"github.com/flipscan/appraise/internal/evidence"
	"github.com/flipscan/appraise/internal/identify"
	"github.com/flipscan/appraise/internal/marketdata"
	"github.com/flipscan/appraise/internal/pipeline"
	"github.com/flipscan/appraise/internal/provider"
	"github.com/flipscan/appraise/internal/reason"
	"github.com/flipscan/appraise/internal/resilience"
	"github.com/flipscan/appraise/internal/store"
	anthropicpkg "github.com/flipscan/appraise/pkg/anthropic"
	"github.com/flipscan/appraise/pkg/ebay"
	"github.com/flipscan/appraise/pkg/gemini"
	"github.com/flipscan/appraise/pkg/keepa"
	"github.com/flipscan/appraise/pkg/openai"
	"github.com/flipscan/appraise/pkg/perplexity"
	"github.com/flipscan/appraise/pkg/pricecharting"
	"github.com/flipscan/appraise/pkg/psacard"
	"github.com/flipscan/appraise/pkg/upcitemdb"
)

// pipelineEnv holds the initialized store, registries, and pipeline
// needed by the appraise/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured history backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initProviders registers every AI backend that has credentials. The
// pipeline degrades gracefully when a provider is absent; zero vision
// providers still works as long as requests carry a hint.
func initProviders() *provider.Registry {
	registry := provider.NewRegistry()

	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key, anthropicpkg.WithModel(cfg.Anthropic.Model))
		registry.Register(provider.NewAnthropic(client, cfg.Anthropic.Model))
	}
	if cfg.OpenAI.Key != "" {
		client := openai.NewClient(cfg.OpenAI.Key, openai.WithBaseURL(cfg.OpenAI.BaseURL), openai.WithModel(cfg.OpenAI.Model))
		registry.Register(provider.NewOpenAI(client, cfg.OpenAI.Model))
	}
	if cfg.Gemini.Key != "" {
		client := gemini.NewClient(cfg.Gemini.Key, gemini.WithBaseURL(cfg.Gemini.BaseURL), gemini.WithModel(cfg.Gemini.Model))
		registry.Register(provider.NewGemini(client, cfg.Gemini.Model))
	}
	if cfg.Perplexity.Key != "" {
		client := perplexity.NewClient(cfg.Perplexity.Key, perplexity.WithBaseURL(cfg.Perplexity.BaseURL), perplexity.WithModel(cfg.Perplexity.Model))
		registry.Register(provider.NewPerplexity(client, cfg.Perplexity.Model))
	}

	zap.L().Info("providers configured", zap.Int("count", registry.Len()))
	return registry
}

// initSources registers every market-data source that has credentials,
// each behind its own rate limiter and circuit breaker.
func initSources() *marketdata.Registry {
	retry := resilience.DefaultRetryConfig()
	if cfg.Sources.RetryMaxAttempts > 0 {
		retry.MaxAttempts = cfg.Sources.RetryMaxAttempts
	}
	registry := marketdata.NewRegistry(retry)
	breaker := resilience.DefaultCircuitBreakerConfig()
	if cfg.Sources.BreakerFailures > 0 {
		breaker.FailureThreshold = cfg.Sources.BreakerFailures
	}
	if cfg.Sources.BreakerResetSecs > 0 {
		breaker.ResetTimeout = time.Duration(cfg.Sources.BreakerResetSecs) * time.Second
	}
	breaker.ShouldTrip = resilience.IsTransient
	registry.WithBreaker(breaker)

	limit := rate.Limit(cfg.Sources.RateLimitPerSec)
	if limit <= 0 {
		limit = 5
	}
	burst := cfg.Sources.RateBurst
	if burst <= 0 {
		burst = 5
	}

	if cfg.Ebay.Key != "" {
		client := ebay.NewClient(cfg.Ebay.Key, ebay.WithBaseURL(cfg.Ebay.BaseURL))
		registry.Register(marketdata.NewEbaySource(client, 5), limit, burst)
	}
	if cfg.Keepa.Key != "" {
		client := keepa.NewClient(cfg.Keepa.Key, keepa.WithBaseURL(cfg.Keepa.BaseURL))
		registry.Register(marketdata.NewKeepaSource(client), limit, burst)
	}
	if cfg.PriceCharting.Key != "" {
		client := pricecharting.NewClient(cfg.PriceCharting.Key, pricecharting.WithBaseURL(cfg.PriceCharting.BaseURL))
		registry.Register(marketdata.NewPriceChartingSource(client), limit, burst)
	}
	client := upcitemdb.NewClient(upcitemdb.WithBaseURL(cfg.UPCItemDB.BaseURL))
	registry.Register(marketdata.NewUPCItemDBSource(client), limit, burst)
	if cfg.PSACard.Token != "" {
		client := psacard.NewClient(cfg.PSACard.Token, psacard.WithBaseURL(cfg.PSACard.BaseURL))
		registry.Register(marketdata.NewPSACardSource(client), limit, burst)
	}

	zap.L().Info("market sources configured", zap.Strings("sources", registry.IDs()))
	return registry
}

// initPipeline sets up the store, providers, market sources, and the
// three stages. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	providers := initProviders()
	sources := initSources()

	catalog := evidence.DefaultCatalog()
	if cfg.Sources.CatalogPath != "" {
		catalog, err = evidence.LoadCatalog(cfg.Sources.CatalogPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load source catalog")
		}
	}

	identifyStage := identify.New(providers, identify.Options{
		StageTimeout: time.Duration(cfg.Pipeline.IdentifyTimeoutSecs) * time.Second,
	})
	overrides := make(map[string]time.Duration, len(cfg.Sources.TimeoutOverrideSecs))
	for id, secs := range cfg.Sources.TimeoutOverrideSecs {
		overrides[id] = time.Duration(secs) * time.Second
	}
	aggregator := evidence.New(sources, catalog, evidence.Options{
		DefaultSourceTimeout: time.Duration(cfg.Sources.TimeoutSecs) * time.Second,
		SourceTimeouts:       overrides,
	})
	reasonStage := reason.New(providers, reason.Options{
		StageTimeout: time.Duration(cfg.Pipeline.ReasonTimeoutSecs) * time.Second,
		BuyThreshold: cfg.Pipeline.FallbackBuyFloor,
	})

	rates := cfg.Pricing
	if len(rates.Anthropic) == 0 && len(rates.OpenAI) == 0 && len(rates.Gemini) == 0 {
		perQuery := rates.Perplexity.PerQuery
		rates = cost.DefaultRates()
		if perQuery > 0 {
			rates.Perplexity.PerQuery = perQuery
		}
	}

	return &pipelineEnv{
		Store: st,
		Pipeline: pipeline.New(identifyStage, aggregator, reasonStage, st).
			WithCosts(cost.NewCalculator(rates)),
	}, nil
}
