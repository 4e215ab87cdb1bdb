// internal/repository/postgres/kpi_repository.go
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/engine"
	"github.com/farmakpi/backend-go/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

// KpiRepository persists finalized KPI records. It implements both the
// engine's transactional Store (scoped delete + upsert) and the read-only
// repository the API consumes.
type KpiRepository struct {
	db *DB
}

func NewKpiRepository(db *DB) *KpiRepository {
	return &KpiRepository{db: db}
}

// InitSchema creates the KPI table and indexes if missing.
func (r *KpiRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("init kpi schema: %w", err)
	}
	return nil
}

// WithTx implements engine.Store. The delete-then-upsert sequence of one
// scoped commit runs inside a single database transaction.
func (r *KpiRepository) WithTx(ctx context.Context, fn func(tx engine.StoreTx) error) error {
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&kpiTx{tx: tx})
	})
}

type kpiTx struct {
	tx *sqlx.Tx
}

func (t *kpiTx) DeleteScope(ctx context.Context, scope domain.PeriodScope) (int64, error) {
	// Scoped replace, never a full-table clear: only rows whose period lies
	// fully inside the scope are touched.
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM product_kpis
		WHERE period_start >= $1 AND period_end <= $2
	`, scope.Start, scope.End)
	if err != nil {
		return 0, fmt.Errorf("failed to delete kpi scope: %w", err)
	}
	return res.RowsAffected()
}

func (t *kpiTx) UpsertRecords(ctx context.Context, records []domain.KpiRecord) (int64, error) {
	query := `
		INSERT INTO product_kpis (
			product_code, product_name, cabys, period_start, period_end,
			total_purchased_qty, total_sold_qty, final_stock_qty, avg_unit_cost,
			total_cogs, average_inventory_value, total_sales_value,
			rotation, dio, rop, safety_stock, coverage_days,
			mean_demand, std_demand, cv_demand,
			abc_class, xyz_class, excess_flag, shortage_flag, updated_at
		) VALUES (
			:product_code, :product_name, :cabys, :period_start, :period_end,
			:total_purchased_qty, :total_sold_qty, :final_stock_qty, :avg_unit_cost,
			:total_cogs, :average_inventory_value, :total_sales_value,
			:rotation, :dio, :rop, :safety_stock, :coverage_days,
			:mean_demand, :std_demand, :cv_demand,
			:abc_class, :xyz_class, :excess_flag, :shortage_flag, NOW()
		)
		ON CONFLICT (product_code, period_start, period_end) DO UPDATE SET
			product_name            = EXCLUDED.product_name,
			cabys                   = EXCLUDED.cabys,
			total_purchased_qty     = EXCLUDED.total_purchased_qty,
			total_sold_qty          = EXCLUDED.total_sold_qty,
			final_stock_qty         = EXCLUDED.final_stock_qty,
			avg_unit_cost           = EXCLUDED.avg_unit_cost,
			total_cogs              = EXCLUDED.total_cogs,
			average_inventory_value = EXCLUDED.average_inventory_value,
			total_sales_value       = EXCLUDED.total_sales_value,
			rotation                = EXCLUDED.rotation,
			dio                     = EXCLUDED.dio,
			rop                     = EXCLUDED.rop,
			safety_stock            = EXCLUDED.safety_stock,
			coverage_days           = EXCLUDED.coverage_days,
			mean_demand             = EXCLUDED.mean_demand,
			std_demand              = EXCLUDED.std_demand,
			cv_demand               = EXCLUDED.cv_demand,
			abc_class               = EXCLUDED.abc_class,
			xyz_class               = EXCLUDED.xyz_class,
			excess_flag             = EXCLUDED.excess_flag,
			shortage_flag           = EXCLUDED.shortage_flag,
			updated_at              = NOW()
	`

	var written int64
	for _, rec := range records {
		if _, err := t.tx.NamedExecContext(ctx, query, rec); err != nil {
			return 0, fmt.Errorf("failed to upsert kpi record %s: %w", rec.ProductCode, err)
		}
		written++
	}
	return written, nil
}

// GetRecords returns the finalized record sequence for one period, in the
// engine's fixed (product_code) order.
func (r *KpiRepository) GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, error) {
	query := `
		SELECT product_code, product_name, cabys, period_start, period_end,
		       total_purchased_qty, total_sold_qty, final_stock_qty, avg_unit_cost,
		       total_cogs, average_inventory_value, total_sales_value,
		       rotation, dio, rop, safety_stock, coverage_days,
		       mean_demand, std_demand, cv_demand,
		       abc_class, xyz_class, excess_flag, shortage_flag
		FROM product_kpis
		WHERE period_start = $1 AND period_end = $2
		ORDER BY product_code
	`

	var records []domain.KpiRecord
	if err := r.db.SelectContext(ctx, &records, query, period.Start, period.End); err != nil {
		return nil, fmt.Errorf("error getting kpi records: %w", err)
	}
	return records, nil
}

// GetSummary rolls up class and flag counts for one period.
func (r *KpiRepository) GetSummary(ctx context.Context, period domain.Period) (domain.KpiSummary, error) {
	records, err := r.GetRecords(ctx, period)
	if err != nil {
		return domain.KpiSummary{}, err
	}
	return repository.Summarize(period, records), nil
}

// GetAvailablePeriods lists the distinct computed periods, newest first.
func (r *KpiRepository) GetAvailablePeriods(ctx context.Context, limit int) ([]domain.Period, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT period_start AS "start", period_end AS "end"
		FROM product_kpis
		ORDER BY period_start DESC, period_end DESC
		LIMIT $1
	`

	var periods []domain.Period
	if err := r.db.SelectContext(ctx, &periods, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available periods: %w", err)
	}
	return periods, nil
}
