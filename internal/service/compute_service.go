// internal/service/compute_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/farmakpi/backend-go/internal/cache"
	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/engine"
	"github.com/farmakpi/backend-go/internal/ingest"
)

// ComputeService runs the engine over an ingestion source and commits the
// result for one period scope. It is the only write path into the KPI store.
type ComputeService struct {
	source ingest.Source
	writer *engine.Writer
	cache  cache.KpiCache
	cfg    domain.EngineConfig
}

// ComputeResult reports one recomputation: what the commit did plus the
// row-level issue counts of the run.
type ComputeResult struct {
	Commit       domain.CommitResult `json:"commit"`
	Records      int                 `json:"records"`
	ExcludedRows int                 `json:"excluded_rows"`
	Warnings     int                 `json:"warnings"`
}

func NewComputeService(source ingest.Source, store engine.Store, cacheImpl cache.KpiCache, cfg domain.EngineConfig) *ComputeService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopKpiCache()
	}
	return &ComputeService{
		source: source,
		writer: engine.NewWriter(store),
		cache:  cacheImpl,
		cfg:    cfg,
	}
}

// ComputePeriod recomputes and atomically replaces the KPI rows of one
// period. Rows outside the period are bucketed out by the engine and
// reported; persisted rows outside the scope are never touched.
func (s *ComputeService) ComputePeriod(ctx context.Context, period domain.Period) (*ComputeResult, error) {
	txs, err := s.source.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	cfg := s.cfg
	cfg.PeriodBoundaries = []domain.Period{period}
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}

	result := eng.Run(txs)

	scope := domain.PeriodScope{Start: period.Start, End: period.End}
	commit, err := s.writer.Commit(ctx, result.Records, scope)
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("kpi: cache invalidation after commit failed")
	}

	return &ComputeResult{
		Commit:       commit,
		Records:      len(result.Records),
		ExcludedRows: len(result.Report.Excluded),
		Warnings:     len(result.Report.Warnings),
	}, nil
}
