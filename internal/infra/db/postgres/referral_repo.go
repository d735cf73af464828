package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
)

var _ repository.ReferralRepository = (*referralRepo)(nil)

type referralRepo struct{ pool *pgxpool.Pool }

func NewReferralRepo(pool *pgxpool.Pool) *referralRepo {
	return &referralRepo{pool: pool}
}

const referralColumns = `id, code, owner_email, discount_pct, reward_centavos, valid_from, valid_until, max_uses_per_customer, active, created_at`

func scanReferral(row pgx.Row) (*model.ReferralCode, error) {
	var rc model.ReferralCode
	if err := row.Scan(&rc.ID, &rc.Code, &rc.OwnerEmail, &rc.DiscountPct, &rc.RewardCentavos, &rc.ValidFrom, &rc.ValidUntil, &rc.MaxUsesPerCustomer, &rc.Active, &rc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &rc, nil
}

func (r *referralRepo) Save(ctx context.Context, tx repository.Tx, code *model.ReferralCode) error {
	const q = `
INSERT INTO referral_codes (id, code, owner_email, discount_pct, reward_centavos, valid_from, valid_until, max_uses_per_customer, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  code=$2, owner_email=$3, discount_pct=$4, reward_centavos=$5,
  valid_from=$6, valid_until=$7, max_uses_per_customer=$8, active=$9;`

	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.OwnerEmail, code.DiscountPct, code.RewardCentavos,
		code.ValidFrom, code.ValidUntil, code.MaxUsesPerCustomer, code.Active, code.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *referralRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	q := `SELECT ` + referralColumns + ` FROM referral_codes WHERE code=$1 AND active=true;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanReferral(row)
}

func (r *referralRepo) CountRedemptions(ctx context.Context, tx repository.Tx, code, customerEmail string) (int, error) {
	const q = `SELECT COUNT(1) FROM referral_redemptions WHERE code=$1 AND customer_email=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, code, customerEmail)
	if err != nil {
		return 0, err
	}
	var cnt int
	if err := row.Scan(&cnt); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return cnt, nil
}

func (r *referralRepo) SaveRedemption(ctx context.Context, tx repository.Tx, red *model.ReferralRedemption) error {
	const q = `
INSERT INTO referral_redemptions (id, code, owner_email, customer_email, payment_id, reward_centavos, paid_out, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		red.ID, red.Code, red.OwnerEmail, red.CustomerEmail, red.PaymentID,
		red.RewardCentavos, red.PaidOut, red.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *referralRepo) ListUnpaidRedemptions(ctx context.Context, tx repository.Tx) ([]*model.ReferralRedemption, error) {
	const q = `
SELECT id, code, owner_email, customer_email, payment_id, reward_centavos, paid_out, created_at
  FROM referral_redemptions
 WHERE paid_out=false
 ORDER BY created_at ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.ReferralRedemption
	for rows.Next() {
		var red model.ReferralRedemption
		if err := rows.Scan(&red.ID, &red.Code, &red.OwnerEmail, &red.CustomerEmail, &red.PaymentID, &red.RewardCentavos, &red.PaidOut, &red.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &red)
	}
	return out, rows.Err()
}

func (r *referralRepo) MarkRedemptionsPaid(ctx context.Context, tx repository.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE referral_redemptions SET paid_out=true WHERE id = ANY($1);`
	_, err := execSQL(ctx, r.pool, tx, q, ids)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
