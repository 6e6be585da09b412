package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vilaweb/leadgen-cli/internal/genai"
	"github.com/vilaweb/leadgen-cli/internal/leadgen"
	"github.com/vilaweb/leadgen-cli/internal/store"
	"github.com/vilaweb/leadgen-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initService builds the full pipeline: store, provider adapter, and
// synthetic fallback. The returned Service is ready for all operations.
func initService(st store.Store) *leadgen.Service {
	adapter := genai.NewAdapter(anthropic.NewClient(cfg.Anthropic.Key), genai.AdapterOptions{
		APIKey:    cfg.Anthropic.Key,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Timeout:   time.Duration(cfg.Generation.ProviderTimeoutSecs) * time.Second,
		RPM:       cfg.Generation.ProviderRPM,
		Defaulter: genai.NewDefaulter(!cfg.Generation.StrictValidation, nil),
	})

	fallback := genai.NewFallback(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

	return leadgen.NewService(st, adapter, fallback, leadgen.Options{
		DefaultModel:       cfg.Anthropic.Model,
		DefaultLocation:    cfg.Generation.DefaultLocation,
		CorpusSampleCap:    cfg.Generation.CorpusSampleCap,
		PromptExclusionCap: cfg.Generation.PromptExclusionCap,
		PersistConcurrency: cfg.Generation.PersistConcurrency,
	})
}
