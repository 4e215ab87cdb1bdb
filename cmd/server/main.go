// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/farmakpi/backend-go/internal/api"
	"github.com/farmakpi/backend-go/internal/cache"
	"github.com/farmakpi/backend-go/internal/config"
	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/ingest"
	"github.com/farmakpi/backend-go/internal/repository/postgres"
	"github.com/farmakpi/backend-go/internal/service"
	"github.com/farmakpi/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	repo := postgres.NewKpiRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	kpiCache, err := cache.NewKpiCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		kpiCache = cache.NewNoopKpiCache()
	}

	services := &api.Services{
		KpiService: service.NewKpiService(repo, kpiCache),
	}

	// Recompute endpoint is enabled only when a transactions export is
	// available locally.
	if path := os.Getenv("TRANSACTIONS_FILE"); path != "" {
		source := ingest.NewCSVSource(filepath.Clean(path))
		engineCfg := engineConfigFrom(cfg.Engine)
		services.ComputeService = service.NewComputeService(source, repo, kpiCache, engineCfg)
		log.Info().Str("file", path).Msg("Recompute enabled")
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	opsSrv := &http.Server{
		Addr:    ":" + cfg.Server.OpsPort,
		Handler: api.NewOpsRouter(),
	}

	go func() {
		log.Info().Str("port", cfg.Server.OpsPort).Msg("Starting ops server")
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Ops server stopped")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	if err := opsSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Ops server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

func engineConfigFrom(cfg config.EngineConfig) domain.EngineConfig {
	return domain.EngineConfig{
		MarginPct:                 cfg.MarginPct,
		LeadTimeDays:              cfg.LeadTimeDays,
		ServiceLevelZ:             cfg.ServiceLevelZ,
		ExcessThresholdDays:       cfg.ExcessThresholdDays,
		ShortageThresholdDays:     cfg.ShortageThresholdDays,
		SuspiciousFactorThreshold: cfg.SuspiciousFactorThreshold,
	}
}
