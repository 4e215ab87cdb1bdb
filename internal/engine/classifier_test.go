package engine

import (
	"testing"

	"github.com/farmakpi/backend-go/internal/domain"
)

func classRecord(code string, salesValue float64) domain.KpiRecord {
	return domain.KpiRecord{
		ProductCode:     code,
		PeriodStart:     day("2023-01-01"),
		PeriodEnd:       day("2023-02-01"),
		TotalSalesValue: salesValue,
	}
}

func abcOf(records []domain.KpiRecord) map[string]domain.ABCClass {
	out := make(map[string]domain.ABCClass, len(records))
	for _, r := range records {
		out[r.ProductCode] = r.ABCClass
	}
	return out
}

func TestClassifyABCCutoffs(t *testing.T) {
	records := Classify([]domain.KpiRecord{
		classRecord("P1", 80), // cumulative 80% sits exactly on the A boundary
		classRecord("P2", 15), // cumulative 95% sits exactly on the B boundary
		classRecord("P3", 5),  // cumulative 100%
	}, domain.DefaultEngineConfig())

	got := abcOf(records)
	want := map[string]domain.ABCClass{"P1": domain.ClassA, "P2": domain.ClassB, "P3": domain.ClassC}
	for code, cls := range want {
		if got[code] != cls {
			t.Errorf("abc[%s] = %s, want %s", code, got[code], cls)
		}
	}
}

func TestClassifyABCJustAboveCutoff(t *testing.T) {
	// 80.2% cumulative on the first product: one step past the boundary
	// already lands in B.
	records := Classify([]domain.KpiRecord{
		classRecord("P1", 80.2),
		classRecord("P2", 19.8),
	}, domain.DefaultEngineConfig())

	got := abcOf(records)
	if got["P1"] != domain.ClassB {
		t.Errorf("abc[P1] = %s, want B just above the cutoff", got["P1"])
	}
}

func TestClassifyABCTieBreakByProductCode(t *testing.T) {
	// Two products with identical sales value: the walk must visit them in
	// product_code order, so the first one lands in A and the second pushes
	// past the cutoff.
	records := Classify([]domain.KpiRecord{
		classRecord("P2", 50),
		classRecord("P1", 50),
	}, domain.DefaultEngineConfig())

	got := abcOf(records)
	if got["P1"] != domain.ClassA {
		t.Errorf("abc[P1] = %s, want A (ties walk in code order)", got["P1"])
	}
	if got["P2"] != domain.ClassC {
		t.Errorf("abc[P2] = %s, want C", got["P2"])
	}
}

func TestClassifyABCZeroTotalSales(t *testing.T) {
	records := Classify([]domain.KpiRecord{
		classRecord("P1", 0),
		classRecord("P2", 0),
	}, domain.DefaultEngineConfig())

	for _, r := range records {
		if r.ABCClass != domain.ClassA {
			t.Errorf("abc[%s] = %s, want A when the period has no sales at all", r.ProductCode, r.ABCClass)
		}
	}
}

func TestClassifyABCPerPeriodGroups(t *testing.T) {
	feb := func(code string, sales float64) domain.KpiRecord {
		r := classRecord(code, sales)
		r.PeriodStart = day("2023-02-01")
		r.PeriodEnd = day("2023-03-01")
		return r
	}

	// P1 dominates january, P2 dominates february. Classified per period
	// each leads its own group; pooled across periods the february volumes
	// would be noise.
	records := Classify([]domain.KpiRecord{
		classRecord("P1", 80),
		classRecord("P2", 20),
		feb("P1", 1),
		feb("P2", 4),
	}, domain.DefaultEngineConfig())

	got := make(map[string]domain.ABCClass)
	for _, r := range records {
		got[r.ProductCode+"/"+r.PeriodStart.Format("2006-01")] = r.ABCClass
	}
	want := map[string]domain.ABCClass{
		"P1/2023-01": domain.ClassA,
		"P2/2023-01": domain.ClassC,
		"P2/2023-02": domain.ClassA,
		"P1/2023-02": domain.ClassC,
	}
	for key, cls := range want {
		if got[key] != cls {
			t.Errorf("abc[%s] = %s, want %s", key, got[key], cls)
		}
	}
}

func TestClassifyXYZ(t *testing.T) {
	tests := []struct {
		name string
		mean float64
		cv   float64
		want domain.XYZClass
	}{
		{"steady demand", 5, 0.2, domain.ClassX},
		{"cv exactly at x cutoff", 5, 0.5, domain.ClassX},
		{"moderate variability", 5, 0.8, domain.ClassY},
		{"cv exactly at y cutoff", 5, 1.0, domain.ClassY},
		{"erratic demand", 5, 1.7, domain.ClassZ},
		{"zero mean demand", 0, 0, domain.ClassZ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := classRecord("P1", 10)
			rec.MeanDemand = tt.mean
			rec.CVDemand = tt.cv
			got := Classify([]domain.KpiRecord{rec}, domain.DefaultEngineConfig())
			if got[0].XYZClass != tt.want {
				t.Errorf("xyz = %s, want %s", got[0].XYZClass, tt.want)
			}
		})
	}
}

func TestClassifyCoverageFlags(t *testing.T) {
	cfg := domain.DefaultEngineConfig() // excess > 45, shortage < 7

	tests := []struct {
		name         string
		coverage     domain.Days
		wantExcess   bool
		wantShortage bool
	}{
		{"well stocked", domain.DaysOf(20), false, false},
		{"excess", domain.DaysOf(60), true, false},
		{"exactly at excess cutoff", domain.DaysOf(45), false, false},
		{"shortage", domain.DaysOf(3), false, true},
		{"exactly at shortage cutoff", domain.DaysOf(7), false, false},
		{"no movement", domain.NoMovement(), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := classRecord("P1", 10)
			rec.MeanDemand = 1
			rec.CoverageDays = tt.coverage
			got := Classify([]domain.KpiRecord{rec}, cfg)
			if got[0].ExcessFlag != tt.wantExcess || got[0].ShortageFlag != tt.wantShortage {
				t.Errorf("flags = %v/%v, want %v/%v",
					got[0].ExcessFlag, got[0].ShortageFlag, tt.wantExcess, tt.wantShortage)
			}
		})
	}
}
