package model

import "time"

// PriceBreakdown traces how the payable amount was derived. Application
// order is fixed: coupon on the base price, referral on the remainder,
// wallet balance last, each step clamped at zero.
type PriceBreakdown struct {
	BasePrice        int64 `json:"precio_base"`
	CouponDiscount   int64 `json:"descuento_cupon"`
	AfterCoupon      int64 `json:"tras_cupon"`
	ReferralDiscount int64 `json:"descuento_referido"`
	AfterReferral    int64 `json:"tras_referido"`
	BalanceApplied   int64 `json:"saldo_usado"`
	Payable          int64 `json:"total_a_pagar"`
}

// FullBalance reports the gateway short-circuit condition.
func (b PriceBreakdown) FullBalance() bool { return b.Payable == 0 }

// CheckoutSession is the single source of truth for one checkout page.
// It is recomputed as a whole on every discount input change, never
// partially mutated, and versioned by InputSeq so responses of stale
// in-flight validations can be recognized and dropped.
type CheckoutSession struct {
	ID                string
	PlanID            string
	BasePriceCentavos int64 // listed price, promotion already applied
	CustomerEmail     string
	CustomerName      string

	Coupon           *AppliedCoupon // nil when no valid coupon is applied
	ReferralCode     string
	ReferralPct      int64
	WalletBalance    int64 // spendable balance fetched for CustomerEmail
	BalanceRequested int64 // amount the customer chose to apply (clamped)

	Quote      PriceBreakdown
	Preference *PaymentPreference // last created provider preference, if any

	InputSeq  uint64 // bumped on every discount input change
	CreatedAt time.Time
	UpdatedAt time.Time
}
