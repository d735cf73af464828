package repository

import (
	"context"

	"vpn-storefront/internal/domain/model"
)

type WalletRepository interface {
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Wallet, error)
	// Credit adds centavos, creating the wallet row if absent.
	Credit(ctx context.Context, tx Tx, email string, centavos int64) error
	// Debit subtracts centavos; returns domain.ErrInsufficientBalance
	// when the balance does not cover the amount.
	Debit(ctx context.Context, tx Tx, email string, centavos int64) error
}
