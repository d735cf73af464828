package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
)

var _ repository.PromotionRepository = (*promotionRepo)(nil)

type promotionRepo struct{ pool *pgxpool.Pool }

func NewPromotionRepo(pool *pgxpool.Pool) *promotionRepo {
	return &promotionRepo{pool: pool}
}

const promotionColumns = `id, name, discount_pct, starts_at, ends_at, active, created_at`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	if err := row.Scan(&p.ID, &p.Name, &p.DiscountPct, &p.StartsAt, &p.EndsAt, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *promotionRepo) Save(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	const q = `
INSERT INTO promotions (id, name, discount_pct, starts_at, ends_at, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, discount_pct=$3, starts_at=$4, ends_at=$5, active=$6;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.Name, p.DiscountPct, p.StartsAt, p.EndsAt, p.Active, p.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *promotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPromotion(row)
}

func (r *promotionRepo) FindActiveAt(ctx context.Context, tx repository.Tx, at time.Time) (*model.Promotion, error) {
	// When campaigns overlap the biggest discount wins.
	const q = `
SELECT ` + promotionColumns + `
  FROM promotions
 WHERE active=true AND starts_at <= $1 AND ends_at > $1
 ORDER BY discount_pct DESC
 LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, at)
	if err != nil {
		return nil, err
	}
	return scanPromotion(row)
}

func (r *promotionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions ORDER BY starts_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *promotionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM promotions WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
