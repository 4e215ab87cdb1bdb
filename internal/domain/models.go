// internal/domain/models.go
package domain

import "time"

// TransactionType distinguishes purchase and sale movements.
type TransactionType string

const (
	TypePurchase TransactionType = "PURCHASE"
	TypeSale     TransactionType = "SALE"
)

// Transaction is a raw movement row as handed over by the ingestion source.
// Date carries a calendar day only; any time component is truncated upstream.
type Transaction struct {
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Cabys       string          `json:"cabys"`
	Quantity    float64         `json:"quantity"`
	UnitCost    float64         `json:"unit_cost"`
	UnitPrice   float64         `json:"unit_price"`
	IsFraction  bool            `json:"is_fraction"`
}

// NormalizedTransaction is a Transaction whose quantity has been converted to
// whole canonical units and whose product code has been canonicalized.
// FractionFactor is 1 for non-fractional rows.
type NormalizedTransaction struct {
	Transaction
	FractionFactor int `json:"fraction_factor"`
}

// Period is a half-open [Start, End) date range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// Contains reports whether the given date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.Start) && date.Before(p.End)
}

// PeriodScope is the period range a single commit is allowed to rewrite.
// Commits never touch persisted rows outside their scope.
type PeriodScope struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ContainsPeriod reports whether the given period lies fully inside the scope.
func (s PeriodScope) ContainsPeriod(p Period) bool {
	return !p.Start.Before(s.Start) && !p.End.After(s.End)
}

// PeriodAggregate holds the folded totals for one product over one period.
// At most one aggregate exists per (product, period) key; recomputation
// replaces it whole.
type PeriodAggregate struct {
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	Cabys       string    `json:"cabys"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalPurchasedQty float64 `json:"total_purchased_qty"`
	TotalSoldQty      float64 `json:"total_sold_qty"`
	TotalCOGS         float64 `json:"total_cogs"`
	AvgInventoryValue float64 `json:"average_inventory_value"`
	FinalStockQty     float64 `json:"final_stock_qty"`
	AvgUnitCost       float64 `json:"avg_unit_cost"`
	TotalSalesValue   float64 `json:"total_sales_value"`

	// DemandSeries holds one demand value per calendar day of the period,
	// in day order, zero-filled for days without sales. Its order is fixed
	// here and must not be re-derived downstream.
	DemandSeries []float64 `json:"demand_series"`
}

// Period returns the aggregate's period key.
func (a PeriodAggregate) Period() Period {
	return Period{Start: a.PeriodStart, End: a.PeriodEnd}
}

// ABCClass tiers products by cumulative contribution to sales value.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// XYZClass tiers products by demand variability.
type XYZClass string

const (
	ClassX XYZClass = "X"
	ClassY XYZClass = "Y"
	ClassZ XYZClass = "Z"
)

// KpiRecord is the finalized per-product, per-period KPI row. It is always
// written and replaced as one unit, never field-patched.
type KpiRecord struct {
	ProductCode string    `json:"product_code" db:"product_code"`
	ProductName string    `json:"product_name" db:"product_name"`
	Cabys       string    `json:"cabys" db:"cabys"`
	PeriodStart time.Time `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time `json:"period_end" db:"period_end"`

	TotalPurchasedQty float64 `json:"total_purchased_qty" db:"total_purchased_qty"`
	TotalSoldQty      float64 `json:"total_sold_qty" db:"total_sold_qty"`
	FinalStockQty     float64 `json:"final_stock_qty" db:"final_stock_qty"`
	AvgUnitCost       float64 `json:"avg_unit_cost" db:"avg_unit_cost"`
	TotalCOGS         float64 `json:"total_cogs" db:"total_cogs"`
	AvgInventoryValue float64 `json:"average_inventory_value" db:"average_inventory_value"`
	TotalSalesValue   float64 `json:"total_sales_value" db:"total_sales_value"`

	Rotation     float64 `json:"rotation" db:"rotation"`
	Dio          Days    `json:"dio" db:"dio"`
	Rop          float64 `json:"rop" db:"rop"`
	SafetyStock  float64 `json:"safety_stock" db:"safety_stock"`
	CoverageDays Days    `json:"coverage_days" db:"coverage_days"`
	MeanDemand   float64 `json:"mean_demand" db:"mean_demand"`
	StdDemand    float64 `json:"std_demand" db:"std_demand"`
	CVDemand     float64 `json:"cv_demand" db:"cv_demand"`

	ABCClass     ABCClass `json:"abc_class" db:"abc_class"`
	XYZClass     XYZClass `json:"xyz_class" db:"xyz_class"`
	ExcessFlag   bool     `json:"excess_flag" db:"excess_flag"`
	ShortageFlag bool     `json:"shortage_flag" db:"shortage_flag"`
}

// Period returns the record's period key.
func (r KpiRecord) Period() Period {
	return Period{Start: r.PeriodStart, End: r.PeriodEnd}
}

// CommitResult reports what a scoped commit did against the store.
type CommitResult struct {
	RowsWritten int64 `json:"rows_written"`
	RowsDeleted int64 `json:"rows_deleted"`
}

// EngineConfig carries every threshold the engine stages need. It is passed
// explicitly into each stage; stages never read ambient state.
type EngineConfig struct {
	MarginPct                 float64  `json:"margin_pct"`
	PeriodBoundaries          []Period `json:"period_boundaries"`
	LeadTimeDays              int      `json:"lead_time_days"`
	ServiceLevelZ             float64  `json:"service_level_z"`
	ExcessThresholdDays       float64  `json:"excess_threshold_days"`
	ShortageThresholdDays     float64  `json:"shortage_threshold_days"`
	SuspiciousFactorThreshold int      `json:"suspicious_factor_threshold"`
}

// DefaultEngineConfig mirrors the thresholds the pharmacy has been running
// with: 95% service level (z=1.645), 7-day lead time, 45/7 day excess and
// shortage cutoffs, 30% margin for fraction factor derivation.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MarginPct:                 30,
		LeadTimeDays:              7,
		ServiceLevelZ:             1.645,
		ExcessThresholdDays:       45,
		ShortageThresholdDays:     7,
		SuspiciousFactorThreshold: 200,
	}
}
