package model

import "time"

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Coupon is an admin-managed discount code. Value is a percentage in
// [0,100] for percentage coupons, or centavos for fixed coupons.
type Coupon struct {
	ID               string
	Code             string
	Kind             DiscountKind
	Value            int64
	MinPriceCentavos int64    // 0 = no minimum
	PlanIDs          []string // empty = applies to every plan
	ValidFrom        *time.Time
	ValidUntil       *time.Time
	MaxUses          int // 0 = unlimited
	Uses             int
	Active           bool
	CreatedAt        time.Time
}

func (c *Coupon) AppliesTo(planID string) bool {
	if len(c.PlanIDs) == 0 {
		return true
	}
	for _, id := range c.PlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}

func (c *Coupon) WindowOpen(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

func (c *Coupon) Exhausted() bool {
	return c.MaxUses > 0 && c.Uses >= c.MaxUses
}

// AppliedCoupon is the discount a validated coupon contributes to a
// checkout session. It carries no business rules; those stay server-side.
type AppliedCoupon struct {
	Code  string       `json:"code"`
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value"`
}
