// internal/engine/writer.go
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/farmakpi/backend-go/internal/domain"
)

// Store is the transactional persistence surface the Writer commits
// through. Implementations must guarantee that the function passed to
// WithTx either commits atomically or leaves the store unchanged, on every
// exit path.
type Store interface {
	WithTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the logical operation set available inside one transaction.
type StoreTx interface {
	// DeleteScope removes every persisted record whose period falls fully
	// inside the scope and returns the number of rows removed.
	DeleteScope(ctx context.Context, scope domain.PeriodScope) (int64, error)
	// UpsertRecords replaces records whole, keyed by
	// (product_code, period_start, period_end), and returns the row count.
	UpsertRecords(ctx context.Context, records []domain.KpiRecord) (int64, error)
}

// Writer owns the mapping from (product, period) to persisted rows. It is
// the only component that deletes or upserts them, and it only ever touches
// rows inside the scope it was asked to commit. Re-running the same scope
// with the same records leaves the store byte-identical; other scopes are
// never affected.
type Writer struct {
	store Store
}

// NewWriter builds a Writer over the given store.
func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// Commit replaces the scope's persisted rows with the given records inside
// a single transaction: delete-by-scope, then upsert. All-or-nothing; on
// failure the store keeps its pre-commit state and a CommitError surfaces
// the cause.
//
// Disjoint scopes may be committed concurrently without coordination.
// Concurrent commits of the same scope require external mutual exclusion.
func (w *Writer) Commit(ctx context.Context, records []domain.KpiRecord, scope domain.PeriodScope) (domain.CommitResult, error) {
	for _, r := range records {
		if !scope.ContainsPeriod(r.Period()) {
			return domain.CommitResult{}, fmt.Errorf(
				"record %s period %s..%s outside commit scope %s..%s",
				r.ProductCode,
				r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"),
				scope.Start.Format("2006-01-02"), scope.End.Format("2006-01-02"))
		}
	}

	var result domain.CommitResult
	err := w.store.WithTx(ctx, func(tx StoreTx) error {
		deleted, err := tx.DeleteScope(ctx, scope)
		if err != nil {
			return fmt.Errorf("delete scope: %w", err)
		}
		written, err := tx.UpsertRecords(ctx, records)
		if err != nil {
			return fmt.Errorf("upsert records: %w", err)
		}
		result = domain.CommitResult{RowsWritten: written, RowsDeleted: deleted}
		return nil
	})
	if err != nil {
		return domain.CommitResult{}, &CommitError{Scope: scope, Err: err}
	}

	log.Info().
		Time("scope_start", scope.Start).
		Time("scope_end", scope.End).
		Int64("rows_written", result.RowsWritten).
		Int64("rows_deleted", result.RowsDeleted).
		Msg("scope committed")

	return result, nil
}
