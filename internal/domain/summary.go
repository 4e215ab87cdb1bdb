// internal/domain/summary.go
package domain

// KpiSummary is the dashboard roll-up for one period: product counts per
// class tier plus flagged-product counts.
type KpiSummary struct {
	PeriodStart   string         `json:"period_start"`
	PeriodEnd     string         `json:"period_end"`
	TotalProducts int            `json:"total_products"`
	ABCCounts     map[string]int `json:"abc_counts"`
	XYZCounts     map[string]int `json:"xyz_counts"`
	ExcessCount   int            `json:"excess_count"`
	ShortageCount int            `json:"shortage_count"`
}
