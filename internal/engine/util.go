// internal/engine/util.go
package engine

import "math"

// round6 rounds to six decimal places. Every float attached to a KpiRecord
// goes through this so that platform-level floating point noise cannot leak
// into persisted output.
func round6(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}

// safeDivide returns num/den, or fallback when den is zero.
func safeDivide(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}

// popStdDev computes the population standard deviation of series around
// mean. Population (not sample) on purpose: the result must not depend on a
// library's ddof default.
func popStdDev(series []float64, mean float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(series)))
}
