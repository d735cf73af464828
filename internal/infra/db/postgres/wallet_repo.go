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

var _ repository.WalletRepository = (*walletRepo)(nil)

type walletRepo struct{ pool *pgxpool.Pool }

func NewWalletRepo(pool *pgxpool.Pool) *walletRepo {
	return &walletRepo{pool: pool}
}

func (r *walletRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Wallet, error) {
	q := `SELECT customer_email, balance_centavos, updated_at FROM wallets WHERE customer_email=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, email)
	if err != nil {
		return nil, err
	}

	var w model.Wallet
	if err := row.Scan(&w.CustomerEmail, &w.BalanceCentavos, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &w, nil
}

func (r *walletRepo) Credit(ctx context.Context, tx repository.Tx, email string, centavos int64) error {
	if centavos <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO wallets (customer_email, balance_centavos, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (customer_email) DO UPDATE
  SET balance_centavos = wallets.balance_centavos + EXCLUDED.balance_centavos,
      updated_at = NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, email, centavos)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// Debit is a guarded single-statement update so two concurrent purchases
// can never spend the same centavos.
func (r *walletRepo) Debit(ctx context.Context, tx repository.Tx, email string, centavos int64) error {
	if centavos <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
UPDATE wallets
   SET balance_centavos = balance_centavos - $2,
       updated_at = NOW()
 WHERE customer_email = $1
   AND balance_centavos >= $2;`

	ct, err := execSQL(ctx, r.pool, tx, q, email, centavos)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}
