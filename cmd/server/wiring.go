package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-boardgame-planner/internal/cache"
	"github.com/tbourn/go-boardgame-planner/internal/config"
	"github.com/tbourn/go-boardgame-planner/internal/generator"
	"github.com/tbourn/go-boardgame-planner/internal/search"
	"github.com/tbourn/go-boardgame-planner/internal/simulation"
)

func noop() {}

// buildGenerator returns the configured Content Generator and its cleanup.
func buildGenerator(ctx context.Context, cfg config.GeneratorConfig) (generator.Generator, func(), error) {
	switch cfg.Kind {
	case "", "stub":
		return generator.Stub{}, noop, nil
	case "gemini":
		g, err := generator.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := g.Close(); err != nil {
				log.Warn().Err(err).Msg("close gemini client")
			}
		}
		return generator.NewLLM(g, cfg.Timeout), closeFn, nil
	default:
		return nil, noop, fmt.Errorf("unknown generator %q", cfg.Kind)
	}
}

// buildIndex loads the reference catalog used to ground concept generation.
func buildIndex(path string) (search.Index, error) {
	var (
		games []search.Game
		err   error
	)
	if path == "" {
		games, err = search.DefaultCatalog()
	} else {
		games, err = search.LoadCatalog(path)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("games", len(games)).Str("source", path).Msg("reference catalog loaded")
	return search.NewIndex(games), nil
}

// buildRunner selects the turn effect and applies the worker limits.
func buildRunner(cfg config.SimulationConfig) (*simulation.Runner, error) {
	var script string
	if cfg.TurnScriptPath != "" {
		b, err := os.ReadFile(cfg.TurnScriptPath)
		if err != nil {
			return nil, fmt.Errorf("read turn script: %w", err)
		}
		script = string(b)
	}
	f, err := simulation.NewEffectFactory(cfg.TurnEffect, script)
	if err != nil {
		return nil, err
	}
	r := simulation.NewRunner(f)
	if cfg.Workers > 0 {
		r.Workers = cfg.Workers
	}
	if cfg.GameTimeout > 0 {
		r.GameTimeout = cfg.GameTimeout
	}
	return r, nil
}

// buildReports uses Redis when an address is configured, otherwise an
// in-process cache.
func buildReports(ctx context.Context, cfg config.CacheConfig) (cache.Reports, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.ReportTTL), noop, nil
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.ReportTTL)
	if err != nil {
		return nil, noop, err
	}
	return rc, func() { _ = rc.Close() }, nil
}
