// internal/engine/kpi.go
package engine

import (
	"math"

	"github.com/farmakpi/backend-go/internal/domain"
)

// ComputeKpis derives the KPI record for one aggregate. Pure function: the
// only ordering it depends on is the demand series order already fixed by
// the Aggregator. Every float is rounded to six decimals on attach.
//
// Division edge cases are values, not errors: a zero average inventory
// yields rotation 0 plus a ZeroInventoryWarning; zero COGS or zero demand
// yield the NoMovement sentinel for DIO and coverage.
func ComputeKpis(agg domain.PeriodAggregate, cfg domain.EngineConfig, rep *Report) domain.KpiRecord {
	periodDays := agg.Period().Days()

	rec := domain.KpiRecord{
		ProductCode: agg.ProductCode,
		ProductName: agg.ProductName,
		Cabys:       agg.Cabys,
		PeriodStart: agg.PeriodStart,
		PeriodEnd:   agg.PeriodEnd,

		TotalPurchasedQty: round6(agg.TotalPurchasedQty),
		TotalSoldQty:      round6(agg.TotalSoldQty),
		FinalStockQty:     round6(agg.FinalStockQty),
		AvgUnitCost:       round6(agg.AvgUnitCost),
		TotalCOGS:         round6(agg.TotalCOGS),
		AvgInventoryValue: round6(agg.AvgInventoryValue),
		TotalSalesValue:   round6(agg.TotalSalesValue),
	}

	if agg.AvgInventoryValue > 0 {
		rec.Rotation = round6(agg.TotalCOGS / agg.AvgInventoryValue)
	} else {
		rec.Rotation = 0
		rep.warn(&ZeroInventoryWarning{ProductCode: agg.ProductCode, PeriodStart: agg.PeriodStart})
	}

	if agg.TotalCOGS > 0 {
		rec.Dio = domain.DaysOf(round6(agg.AvgInventoryValue * float64(periodDays) / agg.TotalCOGS))
	} else {
		rec.Dio = domain.NoMovement()
	}

	var mean float64
	if len(agg.DemandSeries) > 0 {
		var total float64
		for _, v := range agg.DemandSeries {
			total += v
		}
		mean = total / float64(len(agg.DemandSeries))
	}
	std := popStdDev(agg.DemandSeries, mean)

	safety := cfg.ServiceLevelZ * std * math.Sqrt(float64(cfg.LeadTimeDays))
	rop := mean*float64(cfg.LeadTimeDays) + safety

	rec.MeanDemand = round6(mean)
	rec.StdDemand = round6(std)
	rec.CVDemand = round6(safeDivide(std, mean, 0))
	rec.SafetyStock = round6(safety)
	rec.Rop = round6(rop)

	if mean > 0 {
		rec.CoverageDays = domain.DaysOf(round6(agg.AvgInventoryValue / mean))
	} else {
		rec.CoverageDays = domain.NoMovement()
	}

	return rec
}
