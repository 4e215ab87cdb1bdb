package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/engine"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func record(code, start, end string, sales float64) domain.KpiRecord {
	return domain.KpiRecord{
		ProductCode:     code,
		PeriodStart:     day(start),
		PeriodEnd:       day(end),
		TotalSalesValue: sales,
		ABCClass:        domain.ClassA,
		XYZClass:        domain.ClassX,
	}
}

func janScope() domain.PeriodScope {
	return domain.PeriodScope{Start: day("2023-01-01"), End: day("2023-02-01")}
}

func febScope() domain.PeriodScope {
	return domain.PeriodScope{Start: day("2023-02-01"), End: day("2023-03-01")}
}

func TestCommitIsIdempotent(t *testing.T) {
	store := New()
	w := engine.NewWriter(store)
	ctx := context.Background()

	records := []domain.KpiRecord{
		record("P1", "2023-01-01", "2023-02-01", 100),
		record("P2", "2023-01-01", "2023-02-01", 50),
	}

	first, err := w.Commit(ctx, records, janScope())
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if first.RowsWritten != 2 || first.RowsDeleted != 0 {
		t.Errorf("first commit = %+v, want 2 written / 0 deleted", first)
	}

	before, _ := store.GetRecords(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})

	second, err := w.Commit(ctx, records, janScope())
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if second.RowsWritten != 2 || second.RowsDeleted != 2 {
		t.Errorf("second commit = %+v, want 2 written / 2 deleted (full replace)", second)
	}

	after, _ := store.GetRecords(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})
	if !reflect.DeepEqual(before, after) {
		t.Error("re-committing the same records must leave the store identical")
	}
	if store.Len() != 2 {
		t.Errorf("store holds %d records, want 2", store.Len())
	}
}

func TestCommitScopeIsolation(t *testing.T) {
	store := New()
	w := engine.NewWriter(store)
	ctx := context.Background()

	if _, err := w.Commit(ctx, []domain.KpiRecord{
		record("P1", "2023-01-01", "2023-02-01", 100),
	}, janScope()); err != nil {
		t.Fatalf("january commit: %v", err)
	}

	febResult, err := w.Commit(ctx, []domain.KpiRecord{
		record("P1", "2023-02-01", "2023-03-01", 70),
	}, febScope())
	if err != nil {
		t.Fatalf("february commit: %v", err)
	}
	if febResult.RowsDeleted != 0 {
		t.Errorf("february deleted %d rows, january rows must be out of reach", febResult.RowsDeleted)
	}

	jan, _ := store.GetRecords(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})
	if len(jan) != 1 || jan[0].TotalSalesValue != 100 {
		t.Errorf("january records disturbed by february commit: %+v", jan)
	}
}

func TestCommitSupersededRecordRemoved(t *testing.T) {
	store := New()
	w := engine.NewWriter(store)
	ctx := context.Background()

	w.Commit(ctx, []domain.KpiRecord{
		record("P1", "2023-01-01", "2023-02-01", 100),
		record("GONE", "2023-01-01", "2023-02-01", 40),
	}, janScope())

	// Recompute no longer produces GONE; the commit must remove it, not
	// just overwrite the survivors.
	w.Commit(ctx, []domain.KpiRecord{
		record("P1", "2023-01-01", "2023-02-01", 120),
	}, janScope())

	records, _ := store.GetRecords(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})
	if len(records) != 1 || records[0].ProductCode != "P1" {
		t.Fatalf("stale record survived the replace: %+v", records)
	}
	if records[0].TotalSalesValue != 120 {
		t.Errorf("sales value = %v, want the recomputed 120", records[0].TotalSalesValue)
	}
}

func TestWithTxRollbackLeavesStoreUntouched(t *testing.T) {
	store := New()
	ctx := context.Background()

	w := engine.NewWriter(store)
	w.Commit(ctx, []domain.KpiRecord{record("P1", "2023-01-01", "2023-02-01", 100)}, janScope())

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx engine.StoreTx) error {
		if _, err := tx.DeleteScope(ctx, janScope()); err != nil {
			return err
		}
		if _, err := tx.UpsertRecords(ctx, []domain.KpiRecord{record("P9", "2023-01-01", "2023-02-01", 1)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	records, _ := store.GetRecords(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})
	if len(records) != 1 || records[0].ProductCode != "P1" {
		t.Fatalf("failed transaction leaked into the store: %+v", records)
	}
}

func TestGetRecordsSortedByProductCode(t *testing.T) {
	store := New()
	w := engine.NewWriter(store)
	ctx := context.Background()

	w.Commit(ctx, []domain.KpiRecord{
		record("ZZ", "2023-01-01", "2023-02-01", 1),
		record("AA", "2023-01-01", "2023-02-01", 2),
		record("MM", "2023-01-01", "2023-02-01", 3),
	}, janScope())

	records, err := store.GetRecords(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	want := []string{"AA", "MM", "ZZ"}
	for i, w := range want {
		if records[i].ProductCode != w {
			t.Fatalf("records[%d] = %s, want %s", i, records[i].ProductCode, w)
		}
	}
}

func TestGetSummaryCounts(t *testing.T) {
	store := New()
	w := engine.NewWriter(store)
	ctx := context.Background()

	r1 := record("P1", "2023-01-01", "2023-02-01", 100)
	r1.ExcessFlag = true
	r2 := record("P2", "2023-01-01", "2023-02-01", 20)
	r2.ABCClass = domain.ClassB
	r2.XYZClass = domain.ClassZ
	r2.ShortageFlag = true

	w.Commit(ctx, []domain.KpiRecord{r1, r2}, janScope())

	summary, err := store.GetSummary(ctx, domain.Period{Start: day("2023-01-01"), End: day("2023-02-01")})
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.TotalProducts != 2 {
		t.Errorf("total products = %d, want 2", summary.TotalProducts)
	}
	if summary.ABCCounts["A"] != 1 || summary.ABCCounts["B"] != 1 {
		t.Errorf("abc counts = %v", summary.ABCCounts)
	}
	if summary.XYZCounts["X"] != 1 || summary.XYZCounts["Z"] != 1 {
		t.Errorf("xyz counts = %v", summary.XYZCounts)
	}
	if summary.ExcessCount != 1 || summary.ShortageCount != 1 {
		t.Errorf("flag counts = %d/%d, want 1/1", summary.ExcessCount, summary.ShortageCount)
	}
}

func TestGetAvailablePeriodsNewestFirst(t *testing.T) {
	store := New()
	w := engine.NewWriter(store)
	ctx := context.Background()

	w.Commit(ctx, []domain.KpiRecord{record("P1", "2023-01-01", "2023-02-01", 1)}, janScope())
	w.Commit(ctx, []domain.KpiRecord{record("P1", "2023-02-01", "2023-03-01", 1)}, febScope())

	periods, err := store.GetAvailablePeriods(ctx, 10)
	if err != nil {
		t.Fatalf("GetAvailablePeriods: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(periods))
	}
	if !periods[0].Start.Equal(day("2023-02-01")) {
		t.Errorf("periods[0] = %v, want newest first", periods[0])
	}

	limited, _ := store.GetAvailablePeriods(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d periods", len(limited))
	}
}
