package repository

import (
	"context"

	"vpn-storefront/internal/domain/model"
)

type ReferralRepository interface {
	Save(ctx context.Context, tx Tx, code *model.ReferralCode) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ReferralCode, error)
	// CountRedemptions returns how many approved purchases this customer
	// already made with the code (per-customer usage limit).
	CountRedemptions(ctx context.Context, tx Tx, code, customerEmail string) (int, error)
	SaveRedemption(ctx context.Context, tx Tx, r *model.ReferralRedemption) error
	ListUnpaidRedemptions(ctx context.Context, tx Tx) ([]*model.ReferralRedemption, error)
	MarkRedemptionsPaid(ctx context.Context, tx Tx, ids []string) error
}

// ReferralCodeCache remembers the last code a customer validated, as a
// UX hint only: a recalled code is always re-validated server-side.
type ReferralCodeCache interface {
	Remember(ctx context.Context, customerEmail, code string) error
	Recall(ctx context.Context, customerEmail string) (string, error)
	Forget(ctx context.Context, customerEmail string) error
}
