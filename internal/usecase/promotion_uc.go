package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
)

// Compile-time check
var _ PromotionUseCase = (*promotionUC)(nil)

// PromotionUseCase manages sitewide campaigns. Promotions lower the
// listed plan price before a checkout session starts; the per-session
// discount order (coupon, referral, balance) is untouched.
type PromotionUseCase interface {
	// EffectivePrice returns the plan price with the running campaign
	// applied, and the campaign itself when one is active.
	EffectivePrice(ctx context.Context, plan *model.Plan) (int64, *model.Promotion, error)

	Create(ctx context.Context, p *model.Promotion) error
	Update(ctx context.Context, p *model.Promotion) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Promotion, error)
}

type promotionUC struct {
	promos repository.PromotionRepository
}

func NewPromotionUseCase(promos repository.PromotionRepository) *promotionUC {
	return &promotionUC{promos: promos}
}

func (u *promotionUC) EffectivePrice(ctx context.Context, plan *model.Plan) (int64, *model.Promotion, error) {
	if plan.IsZero() {
		return 0, nil, domain.ErrInvalidArgument
	}
	promo, err := u.promos.FindActiveAt(ctx, nil, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return plan.PriceCentavos, nil, nil
		}
		// A storage hiccup must not sell at an unverified discount.
		return plan.PriceCentavos, nil, nil
	}
	return promo.EffectivePrice(plan.PriceCentavos), promo, nil
}

func (u *promotionUC) Create(ctx context.Context, p *model.Promotion) error {
	if p.Name == "" || p.DiscountPct <= 0 || p.DiscountPct > 100 || !p.EndsAt.After(p.StartsAt) {
		return domain.ErrInvalidArgument
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	p.Active = true
	return u.promos.Save(ctx, nil, p)
}

func (u *promotionUC) Update(ctx context.Context, p *model.Promotion) error {
	if p.ID == "" {
		return domain.ErrInvalidArgument
	}
	return u.promos.Save(ctx, nil, p)
}

func (u *promotionUC) Delete(ctx context.Context, id string) error {
	return u.promos.Delete(ctx, nil, id)
}

func (u *promotionUC) List(ctx context.Context) ([]*model.Promotion, error) {
	return u.promos.ListAll(ctx, nil)
}
