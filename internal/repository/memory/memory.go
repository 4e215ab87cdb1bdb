// internal/repository/memory/memory.go

// Package memory provides an in-memory KPI store with the same transactional
// contract as the PostgreSQL store. It backs tests and local development;
// the backend uses PostgreSQL when a database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/engine"
	"github.com/farmakpi/backend-go/internal/repository"
)

type recordKey struct {
	ProductCode string
	PeriodStart string
	PeriodEnd   string
}

func keyOf(r domain.KpiRecord) recordKey {
	return recordKey{
		ProductCode: r.ProductCode,
		PeriodStart: r.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   r.PeriodEnd.Format("2006-01-02"),
	}
}

// Store keeps KPI records in a mutex-guarded map. Transactions stage their
// operations and apply them atomically on commit, so a failed transaction
// leaves the map untouched.
type Store struct {
	mu      sync.RWMutex
	records map[recordKey]domain.KpiRecord
}

func New() *Store {
	return &Store{records: make(map[recordKey]domain.KpiRecord)}
}

// WithTx implements engine.Store. The callback operates on a staged view;
// nothing becomes visible until it returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx engine.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &tx{store: s}
	if err := fn(staged); err != nil {
		return err
	}

	for _, scope := range staged.deletes {
		for k, r := range s.records {
			if scope.ContainsPeriod(r.Period()) {
				delete(s.records, k)
			}
		}
	}
	for _, r := range staged.upserts {
		s.records[keyOf(r)] = r
	}
	return nil
}

type tx struct {
	store   *Store
	deletes []domain.PeriodScope
	upserts []domain.KpiRecord
}

func (t *tx) DeleteScope(ctx context.Context, scope domain.PeriodScope) (int64, error) {
	var n int64
	for _, r := range t.store.records {
		if scope.ContainsPeriod(r.Period()) {
			n++
		}
	}
	t.deletes = append(t.deletes, scope)
	return n, nil
}

func (t *tx) UpsertRecords(ctx context.Context, records []domain.KpiRecord) (int64, error) {
	t.upserts = append(t.upserts, records...)
	return int64(len(records)), nil
}

// Len returns the number of persisted records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// GetRecords implements repository.KpiReadRepository, in the engine's fixed
// product_code order.
func (s *Store) GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.KpiRecord
	for _, r := range s.records {
		if r.PeriodStart.Equal(period.Start) && r.PeriodEnd.Equal(period.End) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out, nil
}

func (s *Store) GetSummary(ctx context.Context, period domain.Period) (domain.KpiSummary, error) {
	records, err := s.GetRecords(ctx, period)
	if err != nil {
		return domain.KpiSummary{}, err
	}
	return repository.Summarize(period, records), nil
}

func (s *Store) GetAvailablePeriods(ctx context.Context, limit int) ([]domain.Period, error) {
	if limit <= 0 {
		limit = 30
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[domain.Period]struct{})
	var periods []domain.Period
	for _, r := range s.records {
		p := r.Period()
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			periods = append(periods, p)
		}
	}
	sort.Slice(periods, func(i, j int) bool {
		if !periods[i].Start.Equal(periods[j].Start) {
			return periods[i].Start.After(periods[j].Start)
		}
		return periods[i].End.After(periods[j].End)
	})
	if len(periods) > limit {
		periods = periods[:limit]
	}
	return periods, nil
}
