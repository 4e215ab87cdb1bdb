// internal/ingest/source.go

// Package ingest adapts external transaction feeds into the engine's input
// sequence. Sources hand over already-extracted rows; file-format heavy
// lifting (Excel exports and the like) happens upstream of this backend.
package ingest

import (
	"context"

	"github.com/farmakpi/backend-go/internal/domain"
)

// Source yields raw transaction rows. No ordering contract: the engine
// produces identical output for any permutation of the same rows.
type Source interface {
	Transactions(ctx context.Context) ([]domain.Transaction, error)
}
