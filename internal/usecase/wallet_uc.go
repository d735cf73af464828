package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/ports/repository"
)

// Compile-time check
var _ WalletUseCase = (*walletUC)(nil)

// WalletUseCase reads spendable balance by identity key (email).
// Checkout treats it as read-only; debits happen inside purchase
// transactions, credits through payout settlement.
type WalletUseCase interface {
	Balance(ctx context.Context, email string) (int64, error)
	Credit(ctx context.Context, email string, centavos int64) error
}

type walletUC struct {
	wallets repository.WalletRepository
	log     *zerolog.Logger
}

func NewWalletUseCase(wallets repository.WalletRepository, logger *zerolog.Logger) *walletUC {
	return &walletUC{wallets: wallets, log: logger}
}

// Balance returns 0 for customers without a wallet row yet.
func (u *walletUC) Balance(ctx context.Context, email string) (int64, error) {
	if email == "" {
		return 0, nil
	}
	w, err := u.wallets.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return w.BalanceCentavos, nil
}

func (u *walletUC) Credit(ctx context.Context, email string, centavos int64) error {
	if email == "" || centavos <= 0 {
		return domain.ErrInvalidArgument
	}
	return u.wallets.Credit(ctx, nil, email, centavos)
}
