// Command server runs the board game planner HTTP API.
//
//	@title			Board Game Planner API
//	@version		1.0
//	@description	Concept, objective, component and rule generation with rule simulation and balance feedback.
//	@BasePath		/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-boardgame-planner/internal/config"
	httpapi "github.com/tbourn/go-boardgame-planner/internal/http"
	"github.com/tbourn/go-boardgame-planner/internal/observability"
	"github.com/tbourn/go-boardgame-planner/internal/repo"
	"github.com/tbourn/go-boardgame-planner/internal/services"
	"github.com/tbourn/go-boardgame-planner/internal/sysutil"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger("info", true, os.Stderr)
		log.Fatal().Err(err).Msg("load config")
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if cfg.DB.SeedDemo {
		if err := repo.SeedDemo(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("seed demo data")
		}
	}

	gen, closeGen, err := buildGenerator(ctx, cfg.Generator)
	if err != nil {
		log.Fatal().Err(err).Msg("generator")
	}
	defer closeGen()

	idx, err := buildIndex(cfg.Generator.ReferenceDataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("reference catalog")
	}

	runner, err := buildRunner(cfg.Simulation)
	if err != nil {
		log.Fatal().Err(err).Msg("simulation runner")
	}

	reports, closeReports, err := buildReports(ctx, cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("report cache")
	}
	defer closeReports()

	planner := services.NewOrchestrator(db, gen, idx, runner, reports)

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Planner: planner}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", Version).
			Str("generator", cfg.Generator.Kind).
			Str("turn_effect", sysutil.FirstNonEmpty(cfg.Simulation.TurnEffect, "heuristic")).
			Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
