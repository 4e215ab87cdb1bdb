// internal/engine/engine.go

// Package engine implements the deterministic aggregation-and-classification
// core: it turns raw, possibly-duplicated, possibly-fractional transaction
// rows into stable per-product, per-period KPI and classification records.
// Identical input multisets always yield byte-identical output sequences,
// regardless of row arrival order or prior run history.
package engine

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/farmakpi/backend-go/internal/domain"
)

// Engine chains the pure pipeline stages:
// Normalize -> Aggregate -> ComputeKpis -> Classify.
// The Writer is the only side-effecting component and lives separately.
type Engine struct {
	cfg domain.EngineConfig
}

// Result is the outcome of one engine run: the finalized record sequence,
// sorted by (product_code, period_start), plus the row-level issue report.
type Result struct {
	Records []domain.KpiRecord
	Report  *Report
}

// New validates the configuration and builds an engine.
func New(cfg domain.EngineConfig) (*Engine, error) {
	if len(cfg.PeriodBoundaries) == 0 {
		return nil, errors.New("engine: at least one period boundary is required")
	}
	for _, p := range cfg.PeriodBoundaries {
		if !p.Start.Before(p.End) {
			return nil, errors.New("engine: period start must precede period end")
		}
	}
	if cfg.LeadTimeDays <= 0 {
		return nil, errors.New("engine: lead time days must be positive")
	}
	if cfg.SuspiciousFactorThreshold <= 0 {
		cfg.SuspiciousFactorThreshold = domain.DefaultEngineConfig().SuspiciousFactorThreshold
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() domain.EngineConfig {
	return e.cfg
}

// Run executes the four pure stages over a batch of raw transactions.
// Row-level issues (invalid fractions, out-of-range dates) drop the
// offending row and continue; the report carries them all.
func (e *Engine) Run(txs []domain.Transaction) *Result {
	rep := &Report{}

	normalized := Normalize(txs, e.cfg, rep)
	aggregates := Aggregate(normalized, e.cfg.PeriodBoundaries, rep)

	records := make([]domain.KpiRecord, 0, len(aggregates))
	for _, agg := range aggregates {
		records = append(records, ComputeKpis(agg, e.cfg, rep))
	}
	records = Classify(records, e.cfg)

	log.Info().
		Int("transactions", len(txs)).
		Int("records", len(records)).
		Int("excluded_rows", len(rep.Excluded)).
		Int("warnings", len(rep.Warnings)).
		Msg("engine run completed")

	return &Result{Records: records, Report: rep}
}
