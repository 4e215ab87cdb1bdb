package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/farmakpi/backend-go/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeFractionFactor(t *testing.T) {
	tests := []struct {
		name       string
		unitCost   float64
		marginPct  float64
		unitPrice  float64
		quantity   float64
		wantFactor int
		wantQty    float64
	}{
		{
			name:       "blister of ten",
			unitCost:   1000,
			marginPct:  30,
			unitPrice:  130,
			quantity:   5,
			wantFactor: 10,
			wantQty:    0.5,
		},
		{
			name:       "factor rounds to nearest",
			unitCost:   100,
			marginPct:  30,
			unitPrice:  52, // 130/52 = 2.5, rounds to 3
			quantity:   3,
			wantFactor: 3,
			wantQty:    1,
		},
		{
			name:       "factor below one clamps to one",
			unitCost:   1,
			marginPct:  30,
			unitPrice:  100,
			quantity:   2,
			wantFactor: 1,
			wantQty:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultEngineConfig()
			cfg.MarginPct = tt.marginPct
			rep := &Report{}

			got := Normalize([]domain.Transaction{{
				Type:        domain.TypeSale,
				Date:        day("2023-01-05"),
				ProductCode: "P1",
				Quantity:    tt.quantity,
				UnitCost:    tt.unitCost,
				UnitPrice:   tt.unitPrice,
				IsFraction:  true,
			}}, cfg, rep)

			if len(got) != 1 {
				t.Fatalf("got %d rows, want 1", len(got))
			}
			if got[0].FractionFactor != tt.wantFactor {
				t.Errorf("factor = %d, want %d", got[0].FractionFactor, tt.wantFactor)
			}
			if got[0].Quantity != tt.wantQty {
				t.Errorf("quantity = %v, want %v", got[0].Quantity, tt.wantQty)
			}
			if !rep.Clean() {
				t.Errorf("unexpected report entries: %+v", rep)
			}
		})
	}
}

func TestNormalizeInvalidFractionExcluded(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	rep := &Report{}

	got := Normalize([]domain.Transaction{
		{Type: domain.TypeSale, Date: day("2023-01-05"), ProductCode: "BAD", Quantity: 1, UnitCost: 100, UnitPrice: 0, IsFraction: true},
		{Type: domain.TypeSale, Date: day("2023-01-05"), ProductCode: "OK", Quantity: 1, UnitCost: 100, UnitPrice: 13},
	}, cfg, rep)

	if len(got) != 1 || got[0].ProductCode != "OK" {
		t.Fatalf("invalid fraction row should be dropped, got %+v", got)
	}
	if len(rep.Excluded) != 1 {
		t.Fatalf("excluded = %d, want 1", len(rep.Excluded))
	}
	var invErr *InvalidFractionError
	if !errors.As(rep.Excluded[0], &invErr) {
		t.Fatalf("excluded[0] = %T, want *InvalidFractionError", rep.Excluded[0])
	}
	if invErr.ProductCode != "BAD" {
		t.Errorf("error product = %s, want BAD", invErr.ProductCode)
	}
}

func TestNormalizeSuspiciousFactorKept(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	cfg.SuspiciousFactorThreshold = 200
	rep := &Report{}

	got := Normalize([]domain.Transaction{{
		Type:        domain.TypeSale,
		Date:        day("2023-02-01"),
		ProductCode: "P1",
		Quantity:    300,
		UnitCost:    10000,
		UnitPrice:   13, // factor 1000, far above threshold
		IsFraction:  true,
	}}, cfg, rep)

	if len(got) != 1 {
		t.Fatalf("suspicious row must stay in the batch, got %d rows", len(got))
	}
	if got[0].FractionFactor != 1000 {
		t.Errorf("factor = %d, want 1000", got[0].FractionFactor)
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(rep.Warnings))
	}
	var warn *SuspiciousFactorWarning
	if !errors.As(rep.Warnings[0], &warn) {
		t.Fatalf("warnings[0] = %T, want *SuspiciousFactorWarning", rep.Warnings[0])
	}
	if warn.Factor != 1000 || warn.Threshold != 200 {
		t.Errorf("warning = %+v", warn)
	}
}

func TestNormalizeCanonicalizesFractionMarker(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	rep := &Report{}

	got := Normalize([]domain.Transaction{
		{Type: domain.TypeSale, Date: day("2023-01-05"), ProductCode: "FRAC. 1001", ProductName: "FRAC. ACETAMINOFEN 500MG", Quantity: 2, UnitCost: 130, UnitPrice: 13, IsFraction: true},
		{Type: domain.TypePurchase, Date: day("2023-01-02"), ProductCode: "1001", ProductName: "ACETAMINOFEN 500MG", Quantity: 10, UnitCost: 130, UnitPrice: 169},
	}, cfg, rep)

	if got[0].ProductCode != "1001" {
		t.Errorf("fractional code = %q, want canonical %q", got[0].ProductCode, "1001")
	}
	if got[0].ProductName != "ACETAMINOFEN 500MG" {
		t.Errorf("fractional name = %q, marker not stripped", got[0].ProductName)
	}
	if got[0].ProductCode != got[1].ProductCode {
		t.Errorf("fractional and whole rows must share a code: %q vs %q", got[0].ProductCode, got[1].ProductCode)
	}
}

func TestNormalizePreservesInputOrder(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	rep := &Report{}

	in := []domain.Transaction{
		{Type: domain.TypeSale, Date: day("2023-03-01"), ProductCode: "C", Quantity: 1, UnitCost: 10, UnitPrice: 13},
		{Type: domain.TypePurchase, Date: day("2023-01-01"), ProductCode: "A", Quantity: 1, UnitCost: 10, UnitPrice: 13},
		{Type: domain.TypeSale, Date: day("2023-02-01"), ProductCode: "B", Quantity: 1, UnitCost: 10, UnitPrice: 13},
	}
	got := Normalize(in, cfg, rep)

	want := []string{"C", "A", "B"}
	for i, w := range want {
		if got[i].ProductCode != w {
			t.Fatalf("row %d = %s, want %s (input order must be preserved)", i, got[i].ProductCode, w)
		}
	}
}
