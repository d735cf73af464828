package usecase

import (
	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

// DiscountInputs are the independently-sourced discounts feeding one
// price resolution. Validators guarantee percentage ranges; amounts
// here are taken at face value and clamped.
type DiscountInputs struct {
	Coupon           *model.AppliedCoupon
	ReferralPct      int64
	BalanceRequested int64
}

// PricingUseCase combines discount sources into the authoritative
// payable amount. Application order is fixed: coupon on the base
// price, referral on the remainder, wallet balance last.
type PricingUseCase interface {
	Resolve(basePriceCentavos int64, in DiscountInputs) (model.PriceBreakdown, error)
}

type pricingUC struct{}

func NewPricingUseCase() *pricingUC { return &pricingUC{} }

// Resolve is pure and cheap; callers re-run it synchronously on every
// input change rather than caching results.
func (u *pricingUC) Resolve(basePriceCentavos int64, in DiscountInputs) (model.PriceBreakdown, error) {
	if basePriceCentavos <= 0 {
		return model.PriceBreakdown{}, domain.ErrInvalidPrice
	}

	b := model.PriceBreakdown{BasePrice: basePriceCentavos}

	if in.Coupon != nil {
		switch in.Coupon.Kind {
		case model.DiscountPercentage:
			b.CouponDiscount = basePriceCentavos * in.Coupon.Value / 100
		case model.DiscountFixed:
			b.CouponDiscount = in.Coupon.Value
		}
		b.CouponDiscount = clamp(b.CouponDiscount, 0, basePriceCentavos)
	}
	b.AfterCoupon = basePriceCentavos - b.CouponDiscount

	if in.ReferralPct > 0 {
		// Referral applies to the remainder after the coupon, not the base price.
		b.ReferralDiscount = clamp(b.AfterCoupon*in.ReferralPct/100, 0, b.AfterCoupon)
	}
	b.AfterReferral = b.AfterCoupon - b.ReferralDiscount

	b.BalanceApplied = clamp(in.BalanceRequested, 0, b.AfterReferral)
	b.Payable = b.AfterReferral - b.BalanceApplied

	return b, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
