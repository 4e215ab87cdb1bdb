// internal/repository/kpi_repository.go
package repository

import (
	"context"

	"github.com/farmakpi/backend-go/internal/domain"
)

// KpiReadRepository is the read-only surface the presentation layer
// consumes. Implementations must return records in (product_code,
// period_start) order so consumers always observe the engine's fixed
// sequence.
type KpiReadRepository interface {
	GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, error)
	GetSummary(ctx context.Context, period domain.Period) (domain.KpiSummary, error)
	GetAvailablePeriods(ctx context.Context, limit int) ([]domain.Period, error)
}

// Summarize folds a record sequence into its period summary. Shared by
// store implementations that do not aggregate in the database.
func Summarize(period domain.Period, records []domain.KpiRecord) domain.KpiSummary {
	summary := domain.KpiSummary{
		PeriodStart:   period.Start.Format("2006-01-02"),
		PeriodEnd:     period.End.Format("2006-01-02"),
		TotalProducts: len(records),
		ABCCounts:     map[string]int{},
		XYZCounts:     map[string]int{},
	}
	for _, r := range records {
		summary.ABCCounts[string(r.ABCClass)]++
		summary.XYZCounts[string(r.XYZClass)]++
		if r.ExcessFlag {
			summary.ExcessCount++
		}
		if r.ShortageFlag {
			summary.ShortageCount++
		}
	}
	return summary
}
