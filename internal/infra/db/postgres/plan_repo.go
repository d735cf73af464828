package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, name, kind, duration_days, device_limit, credits, price_centavos, active, created_at`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Kind, &p.DurationDays, &p.DeviceLimit, &p.Credits, &p.PriceCentavos, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const q = `
INSERT INTO plans (id, name, kind, duration_days, device_limit, credits, price_centavos, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE
  SET name           = EXCLUDED.name,
      kind           = EXCLUDED.kind,
      duration_days  = EXCLUDED.duration_days,
      device_limit   = EXCLUDED.device_limit,
      credits        = EXCLUDED.credits,
      price_centavos = EXCLUDED.price_centavos,
      active         = EXCLUDED.active;`

	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Name, plan.Kind, plan.DurationDays, plan.DeviceLimit, plan.Credits, plan.PriceCentavos, plan.Active, plan.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE active=true ORDER BY price_centavos ASC;`
	return r.list(ctx, tx, q)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans ORDER BY created_at ASC;`
	return r.list(ctx, tx, q)
}

func (r *planRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	// Plans referenced by payments are deactivated, never removed.
	const countSQL = `SELECT COUNT(1) FROM payments WHERE plan_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, countSQL, id)
	if err != nil {
		return err
	}
	var cnt int
	if err := row.Scan(&cnt); err != nil {
		return domain.ErrReadDatabaseRow
	}
	if cnt > 0 {
		const deactivateSQL = `UPDATE plans SET active=false WHERE id=$1;`
		_, err := execSQL(ctx, r.pool, tx, deactivateSQL, id)
		return err
	}

	const delSQL = `DELETE FROM plans WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, delSQL, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
