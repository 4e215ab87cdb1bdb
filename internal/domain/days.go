// internal/domain/days.go
package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Days is a day-denominated KPI value that may carry the no-movement
// sentinel. Valid is false when the product had no movement in the period
// and the metric is undefined; callers must check Valid instead of relying
// on a magic numeric value. It marshals to JSON null and scans from a
// nullable numeric column.
type Days struct {
	Float64 float64
	Valid   bool
}

// NoMovement is the sentinel for an undefined day metric.
func NoMovement() Days {
	return Days{}
}

// DaysOf wraps a defined day value.
func DaysOf(v float64) Days {
	return Days{Float64: v, Valid: true}
}

func (d Days) String() string {
	if !d.Valid {
		return "no_movement"
	}
	return fmt.Sprintf("%.6f", d.Float64)
}

// Value implements driver.Valuer; NoMovement persists as NULL.
func (d Days) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Float64, nil
}

// Scan implements sql.Scanner.
func (d *Days) Scan(src any) error {
	if src == nil {
		*d = Days{}
		return nil
	}
	switch v := src.(type) {
	case float64:
		*d = Days{Float64: v, Valid: true}
	case int64:
		*d = Days{Float64: float64(v), Valid: true}
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(v), "%g", &f); err != nil {
			return fmt.Errorf("scan days from %q: %w", v, err)
		}
		*d = Days{Float64: f, Valid: true}
	default:
		return fmt.Errorf("cannot scan %T into Days", src)
	}
	return nil
}

// MarshalJSON encodes NoMovement as null.
func (d Days) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Float64)
}

// UnmarshalJSON decodes null as NoMovement.
func (d *Days) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Days{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*d = Days{Float64: f, Valid: true}
	return nil
}
