// internal/engine/errors.go
package engine

import (
	"fmt"
	"time"

	"github.com/farmakpi/backend-go/internal/domain"
)

// InvalidFractionError marks a fractional row whose unit price is not
// positive, so no fraction factor can be derived. The row is excluded from
// the batch and reported.
type InvalidFractionError struct {
	ProductCode string
	Date        time.Time
	UnitPrice   float64
}

func (e *InvalidFractionError) Error() string {
	return fmt.Sprintf("invalid fraction row for %s on %s: unit price %.2f must be positive",
		e.ProductCode, e.Date.Format("2006-01-02"), e.UnitPrice)
}

// OutOfRangeError marks a transaction whose date falls outside every
// configured period boundary. The row is excluded and reported.
type OutOfRangeError struct {
	ProductCode string
	Date        time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("transaction for %s on %s is outside all configured periods",
		e.ProductCode, e.Date.Format("2006-01-02"))
}

// SuspiciousFactorWarning flags a fraction factor above the configured
// threshold. The row is still applied; the caller decides whether to
// escalate. The threshold is a heuristic carried over from operations, not
// a hard validation.
type SuspiciousFactorWarning struct {
	ProductCode string
	Date        time.Time
	Factor      int
	Threshold   int
}

func (e *SuspiciousFactorWarning) Error() string {
	return fmt.Sprintf("unusually high fraction factor %d (threshold %d) for %s on %s",
		e.Factor, e.Threshold, e.ProductCode, e.Date.Format("2006-01-02"))
}

// ZeroInventoryWarning flags a product whose rotation could not be computed
// because its average inventory value is zero. Non-fatal.
type ZeroInventoryWarning struct {
	ProductCode string
	PeriodStart time.Time
}

func (e *ZeroInventoryWarning) Error() string {
	return fmt.Sprintf("zero average inventory for %s in period starting %s, rotation set to 0",
		e.ProductCode, e.PeriodStart.Format("2006-01-02"))
}

// CommitError wraps a persistence failure during a scoped commit. The scope
// is rolled back in full; no partial state is visible.
type CommitError struct {
	Scope domain.PeriodScope
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed for scope %s..%s: %v",
		e.Scope.Start.Format("2006-01-02"), e.Scope.End.Format("2006-01-02"), e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Report collects the row-level issues of one engine run. Excluded rows were
// dropped from the batch; warned rows stayed in. Row-level issues never abort
// the batch.
type Report struct {
	Excluded []error
	Warnings []error
}

func (r *Report) exclude(err error) {
	r.Excluded = append(r.Excluded, err)
}

func (r *Report) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// Clean reports whether the run had no exclusions and no warnings.
func (r *Report) Clean() bool {
	return len(r.Excluded) == 0 && len(r.Warnings) == 0
}
