// internal/engine/normalizer.go
package engine

import (
	"math"
	"strings"

	"github.com/farmakpi/backend-go/internal/domain"
)

// fractionMarker prefixes the product code/name of fractionally-sold rows in
// the pharmacy's exports, e.g. "FRAC. ACETAMINOFEN 500MG".
const fractionMarker = "FRAC."

// Normalize resolves fractional quantities into canonical whole units and
// canonicalizes product codes. Output order is exactly input order;
// reordering is the Aggregator's job.
//
// For fractional rows the factor is derived from prices:
//
//	factor = round(unit_cost * (1 + margin/100) / unit_price), clamped to >= 1
//
// A fractional row with a non-positive unit price cannot yield a factor; it
// is excluded and reported. A factor above cfg.SuspiciousFactorThreshold is
// warned about but still applied.
func Normalize(txs []domain.Transaction, cfg domain.EngineConfig, rep *Report) []domain.NormalizedTransaction {
	out := make([]domain.NormalizedTransaction, 0, len(txs))
	for _, tx := range txs {
		tx.ProductCode = CanonicalCode(tx.ProductCode)
		tx.ProductName = stripFractionMarker(tx.ProductName)

		if !tx.IsFraction {
			out = append(out, domain.NormalizedTransaction{Transaction: tx, FractionFactor: 1})
			continue
		}

		if tx.UnitPrice <= 0 {
			rep.exclude(&InvalidFractionError{
				ProductCode: tx.ProductCode,
				Date:        tx.Date,
				UnitPrice:   tx.UnitPrice,
			})
			continue
		}

		factor := fractionFactor(tx.UnitCost, cfg.MarginPct, tx.UnitPrice)
		if factor > cfg.SuspiciousFactorThreshold {
			rep.warn(&SuspiciousFactorWarning{
				ProductCode: tx.ProductCode,
				Date:        tx.Date,
				Factor:      factor,
				Threshold:   cfg.SuspiciousFactorThreshold,
			})
		}

		tx.Quantity = tx.Quantity / float64(factor)
		out = append(out, domain.NormalizedTransaction{Transaction: tx, FractionFactor: factor})
	}
	return out
}

// fractionFactor derives how many fractions make up one whole unit by
// comparing the whole-unit cost (marked up by the margin) against the price
// of one fraction.
func fractionFactor(unitCost, marginPct, unitPrice float64) int {
	factor := int(math.Round(unitCost * (1 + marginPct/100) / unitPrice))
	if factor < 1 {
		return 1
	}
	return factor
}

// CanonicalCode strips the fraction marker prefix so that fractional and
// whole-unit rows of the same product fold into one aggregate.
func CanonicalCode(code string) string {
	return stripFractionMarker(code)
}

func stripFractionMarker(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), fractionMarker) {
		s = strings.TrimSpace(s[len(fractionMarker):])
	}
	return s
}
