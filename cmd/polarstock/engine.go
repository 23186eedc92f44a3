package main

import (
	"errors"
	"fmt"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/provider"
	"github.com/pders01/polarstock/internal/storage"
	"github.com/pders01/polarstock/internal/supply"
)

var errNoAPIKey = errors.New("no Pexels API key: set provider.api_key in the config file or PEXELS_API_KEY")

// engine is the supply pipeline shared by the TUI and the CLI subcommands.
type engine struct {
	store        *storage.Store
	breaker      *provider.Breaker
	orchestrator *supply.Orchestrator
}

func openEngine(cfg *config.Config) (*engine, error) {
	if cfg.Provider.APIKey == "" {
		return nil, errNoAPIKey
	}

	client, err := provider.NewPexelsClient(cfg)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, client)
}

func newEngine(cfg *config.Config, p provider.Provider) (*engine, error) {
	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	breaker := provider.NewBreaker(p, cfg.Provider.Breaker)
	cache := supply.NewQueryResultCache(breaker)
	exclusions := supply.NewExclusionTracker(cfg.Engine.ExclusionCapacity, store)
	orch := supply.NewOrchestrator(cache, exclusions, supply.OrchestratorOptions{
		Overfetch:       cfg.Engine.Overfetch,
		AcquireAttempts: cfg.Engine.AcquireAttempts,
	})

	return &engine{store: store, breaker: breaker, orchestrator: orch}, nil
}

// Close flushes pending exclusions and closes the database.
func (e *engine) Close() error {
	flushErr := e.orchestrator.Exclusions().Flush()
	return errors.Join(flushErr, e.store.Close())
}
