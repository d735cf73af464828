package repository

import (
	"context"

	"vpn-storefront/internal/domain/model"
)

type CouponRepository interface {
	Save(ctx context.Context, tx Tx, coupon *model.Coupon) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	// IncrementUses bumps the usage counter; called when a purchase that
	// redeemed the coupon reaches approved.
	IncrementUses(ctx context.Context, tx Tx, code string) error
	ListAll(ctx context.Context, tx Tx) ([]*model.Coupon, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
