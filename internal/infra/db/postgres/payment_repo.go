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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, session_id, plan_id, customer_email, customer_name, provider, amount_centavos, currency, preference_id, provider_ref, status, coupon_code, referral_code, balance_used, full_balance, provisioned, created_at, updated_at, paid_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.SessionID, &p.PlanID, &p.CustomerEmail, &p.CustomerName, &p.Provider, &p.AmountCentavos, &p.Currency, &p.PreferenceID, &p.ProviderRef, &p.Status, &p.CouponCode, &p.ReferralCode, &p.BalanceUsed, &p.FullBalance, &p.Provisioned, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, session_id, plan_id, customer_email, customer_name, provider, amount_centavos, currency,
  preference_id, provider_ref, status, coupon_code, referral_code, balance_used, full_balance,
  provisioned, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
) ON CONFLICT (id) DO UPDATE SET
  session_id=$2, plan_id=$3, customer_email=$4, customer_name=$5, provider=$6, amount_centavos=$7,
  currency=$8, preference_id=$9, provider_ref=$10, status=$11, coupon_code=$12, referral_code=$13,
  balance_used=$14, full_balance=$15, provisioned=$16, updated_at=$18, paid_at=$19;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.SessionID, p.PlanID, p.CustomerEmail, p.CustomerName, p.Provider, p.AmountCentavos, p.Currency,
		p.PreferenceID, p.ProviderRef, p.Status, p.CouponCode, p.ReferralCode, p.BalanceUsed, p.FullBalance,
		p.Provisioned, p.CreatedAt, p.UpdatedAt, p.PaidAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByPreference(ctx context.Context, tx repository.Tx, preferenceID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE preference_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, preferenceID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// UpdateStatusIfPending atomically transitions a payment out of pending.
// It reports false when the row was already terminal, which makes the
// webhook/poller race idempotent.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time,
) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       provider_ref = COALESCE($3, provider_ref),
       paid_at = COALESCE($4, paid_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	ct, err := execSQL(ctx, r.pool, tx, q, id, string(status), providerRef, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return ct.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkProvisioned(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payments SET provisioned=true, updated_at=NOW() WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	// Full-balance purchases never wait on the provider.
	const q = `
SELECT ` + paymentColumns + `
  FROM payments
 WHERE status='pending' AND full_balance=false AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) SumApprovedByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_centavos + balance_used),0) FROM payments WHERE status='approved' AND paid_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}

	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
