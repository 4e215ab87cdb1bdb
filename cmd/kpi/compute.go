// cmd/kpi/compute.go
package main

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/farmakpi/backend-go/internal/cache"
	"github.com/farmakpi/backend-go/internal/config"
	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/ingest"
	"github.com/farmakpi/backend-go/internal/repository/postgres"
	"github.com/farmakpi/backend-go/internal/service"
)

func runCompute(c *cli.Context) error {
	period, err := periodFromFlags(c)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewKpiRepository(db)
	if err := repo.InitSchema(c.Context); err != nil {
		return err
	}

	cfg := config.Load()
	engineCfg := domain.EngineConfig{
		MarginPct:                 cfg.Engine.MarginPct,
		LeadTimeDays:              cfg.Engine.LeadTimeDays,
		ServiceLevelZ:             cfg.Engine.ServiceLevelZ,
		ExcessThresholdDays:       cfg.Engine.ExcessThresholdDays,
		ShortageThresholdDays:     cfg.Engine.ShortageThresholdDays,
		SuspiciousFactorThreshold: cfg.Engine.SuspiciousFactorThreshold,
	}

	source := ingest.NewCSVSource(c.String("file"))
	compute := service.NewComputeService(source, repo, cache.NewNoopKpiCache(), engineCfg)

	result, err := compute.ComputePeriod(c.Context, period)
	if err != nil {
		return err
	}

	log.Info().
		Str("period_start", period.Start.Format("2006-01-02")).
		Str("period_end", period.End.Format("2006-01-02")).
		Int("records", result.Records).
		Int64("rows_written", result.Commit.RowsWritten).
		Int64("rows_deleted", result.Commit.RowsDeleted).
		Int("excluded_rows", result.ExcludedRows).
		Int("warnings", result.Warnings).
		Msg("period computed")

	return nil
}
