// internal/engine/aggregator.go
package engine

import (
	"sort"

	"github.com/farmakpi/backend-go/internal/domain"
)

// Aggregate buckets transactions into their configured periods and folds
// them into one PeriodAggregate per (product, period).
//
// Summation always walks a fully ordered sequence, never a map: before
// folding, each bucket is sorted by the composite key (date, product_code,
// type, quantity, unit_cost, unit_price). The trailing fields only break
// ties between same-day rows of the same product; rows identical on all six
// fields are interchangeable. This fixed walk order makes floating point
// summation, and therefore rounding, independent of arrival order.
// Transactions outside every configured period are excluded and reported.
func Aggregate(txs []domain.NormalizedTransaction, boundaries []domain.Period, rep *Report) []domain.PeriodAggregate {
	buckets := make([][]domain.NormalizedTransaction, len(boundaries))
	for _, tx := range txs {
		idx := -1
		for i, p := range boundaries {
			if p.Contains(tx.Date) {
				idx = i
				break
			}
		}
		if idx < 0 {
			rep.exclude(&OutOfRangeError{ProductCode: tx.ProductCode, Date: tx.Date})
			continue
		}
		buckets[idx] = append(buckets[idx], tx)
	}

	var aggs []domain.PeriodAggregate
	for i, period := range boundaries {
		aggs = append(aggs, foldPeriod(period, buckets[i])...)
	}

	// Fixed downstream iteration order.
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].ProductCode != aggs[j].ProductCode {
			return aggs[i].ProductCode < aggs[j].ProductCode
		}
		return aggs[i].PeriodStart.Before(aggs[j].PeriodStart)
	})
	return aggs
}

// productFold accumulates one product's movements while walking a period
// bucket in sorted order.
type productFold struct {
	agg domain.PeriodAggregate

	costValue float64 // sum qty*unit_cost over purchases, for weighted avg cost
	costQty   float64

	// dayNetValue[d] is the signed inventory value movement of day d:
	// purchases at cost in, sales at cost out.
	dayNetValue []float64
}

func foldPeriod(period domain.Period, bucket []domain.NormalizedTransaction) []domain.PeriodAggregate {
	days := period.Days()
	if len(bucket) == 0 || days <= 0 {
		return nil
	}

	sortBucket(bucket)

	folds := make(map[string]*productFold)
	order := make([]string, 0)

	for _, tx := range bucket {
		f, ok := folds[tx.ProductCode]
		if !ok {
			f = &productFold{
				agg: domain.PeriodAggregate{
					ProductCode:  tx.ProductCode,
					PeriodStart:  period.Start,
					PeriodEnd:    period.End,
					DemandSeries: make([]float64, days),
				},
				dayNetValue: make([]float64, days),
			}
			folds[tx.ProductCode] = f
			order = append(order, tx.ProductCode)
		}

		// First occurrence in the sorted walk wins, so name and CABYS are
		// stable across runs.
		if f.agg.ProductName == "" {
			f.agg.ProductName = tx.ProductName
		}
		if f.agg.Cabys == "" {
			f.agg.Cabys = tx.Cabys
		}

		day := int(tx.Date.Sub(period.Start).Hours() / 24)
		switch tx.Type {
		case domain.TypePurchase:
			f.agg.TotalPurchasedQty += tx.Quantity
			f.costValue += tx.Quantity * tx.UnitCost
			f.costQty += tx.Quantity
			f.dayNetValue[day] += tx.Quantity * tx.UnitCost
		case domain.TypeSale:
			f.agg.TotalSoldQty += tx.Quantity
			f.agg.TotalCOGS += tx.Quantity * tx.UnitCost
			f.dayNetValue[day] -= tx.Quantity * tx.UnitCost
			f.agg.DemandSeries[day] += tx.Quantity
		}
	}

	// The bucket walk above visited products in sorted order (product_code
	// is the second sort key), but `order` records first-seen order by date;
	// finish with an explicit sort rather than trusting it.
	sort.Strings(order)

	out := make([]domain.PeriodAggregate, 0, len(order))
	for _, code := range order {
		f := folds[code]

		// Mean of the per-day running balance value snapshots, opening
		// balance zero, negatives clamped per snapshot.
		var running, snapSum float64
		for d := 0; d < days; d++ {
			running += f.dayNetValue[d]
			if running > 0 {
				snapSum += running
			}
		}
		f.agg.AvgInventoryValue = snapSum / float64(days)

		finalStock := f.agg.TotalPurchasedQty - f.agg.TotalSoldQty
		if finalStock < 0 {
			finalStock = 0
		}
		f.agg.FinalStockQty = finalStock
		f.agg.AvgUnitCost = safeDivide(f.costValue, f.costQty, 0)
		f.agg.TotalSalesValue = f.agg.TotalSoldQty * f.agg.AvgUnitCost

		out = append(out, f.agg)
	}
	return out
}

func sortBucket(bucket []domain.NormalizedTransaction) {
	sort.Slice(bucket, func(i, j int) bool {
		a, b := bucket[i], bucket[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ProductCode != b.ProductCode {
			return a.ProductCode < b.ProductCode
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Quantity != b.Quantity {
			return a.Quantity < b.Quantity
		}
		if a.UnitCost != b.UnitCost {
			return a.UnitCost < b.UnitCost
		}
		return a.UnitPrice < b.UnitPrice
	})
}
