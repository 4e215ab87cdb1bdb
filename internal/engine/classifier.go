// internal/engine/classifier.go
package engine

import (
	"sort"

	"github.com/farmakpi/backend-go/internal/domain"
)

// XYZ coefficient-of-variation cutoffs. Exact numeric comparisons, no sort
// involved, so no tie-break is needed.
const (
	cvThresholdX = 0.5
	cvThresholdY = 1.0
)

// ABC cumulative sales-value percentage cutoffs, boundary inclusive.
const (
	abcCutoffA = 80.0
	abcCutoffB = 95.0
)

// Classify assigns ABC and XYZ classes and the excess/shortage flags in
// place and returns the records. Classification runs within each period
// group independently.
//
// The ABC walk is ordered by (-total_sales_value, product_code). The
// product_code tie-break is mandatory: two products with identical sales
// value must land in the same relative order on every run.
func Classify(records []domain.KpiRecord, cfg domain.EngineConfig) []domain.KpiRecord {
	groups := make(map[domain.Period][]int)
	var periods []domain.Period
	for i, r := range records {
		p := r.Period()
		if _, ok := groups[p]; !ok {
			periods = append(periods, p)
		}
		groups[p] = append(groups[p], i)
	}

	// Deterministic group processing order.
	sort.Slice(periods, func(i, j int) bool {
		if !periods[i].Start.Equal(periods[j].Start) {
			return periods[i].Start.Before(periods[j].Start)
		}
		return periods[i].End.Before(periods[j].End)
	})

	for _, p := range periods {
		classifyABC(records, groups[p])
	}

	for i := range records {
		records[i].XYZClass = classifyXYZ(records[i])
		records[i].ExcessFlag, records[i].ShortageFlag = coverageFlags(records[i], cfg)
	}
	return records
}

func classifyABC(records []domain.KpiRecord, idx []int) {
	ordered := make([]int, len(idx))
	copy(ordered, idx)
	sort.Slice(ordered, func(a, b int) bool {
		ra, rb := records[ordered[a]], records[ordered[b]]
		if ra.TotalSalesValue != rb.TotalSalesValue {
			return ra.TotalSalesValue > rb.TotalSalesValue
		}
		return ra.ProductCode < rb.ProductCode
	})

	var total float64
	for _, i := range ordered {
		total += records[i].TotalSalesValue
	}

	var cumulative float64
	for _, i := range ordered {
		cumulative += records[i].TotalSalesValue
		// Rounded before comparison so a product sitting exactly on the
		// 80.000000% boundary always classifies the same way.
		pct := round6(safeDivide(cumulative, total, 0) * 100)
		switch {
		case pct <= abcCutoffA:
			records[i].ABCClass = domain.ClassA
		case pct <= abcCutoffB:
			records[i].ABCClass = domain.ClassB
		default:
			records[i].ABCClass = domain.ClassC
		}
	}
}

// classifyXYZ tiers by coefficient of variation of demand. A product with
// zero mean demand has an undefined (infinite) CV and lands in Z.
func classifyXYZ(r domain.KpiRecord) domain.XYZClass {
	if r.MeanDemand == 0 {
		return domain.ClassZ
	}
	switch {
	case r.CVDemand <= cvThresholdX:
		return domain.ClassX
	case r.CVDemand <= cvThresholdY:
		return domain.ClassY
	default:
		return domain.ClassZ
	}
}

// coverageFlags derives the excess/shortage flags from coverage days. Both
// stay false when coverage carries the no-movement sentinel.
func coverageFlags(r domain.KpiRecord, cfg domain.EngineConfig) (excess, shortage bool) {
	if !r.CoverageDays.Valid {
		return false, false
	}
	return r.CoverageDays.Float64 > cfg.ExcessThresholdDays,
		r.CoverageDays.Float64 < cfg.ShortageThresholdDays
}
