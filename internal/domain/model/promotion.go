package model

import "time"

// Promotion is a sitewide percentage campaign. It lowers the listed
// plan price before checkout begins; it does not participate in the
// per-session discount stacking order.
type Promotion struct {
	ID          string
	Name        string
	DiscountPct int64 // percentage in [0,100]
	StartsAt    time.Time
	EndsAt      time.Time
	Active      bool
	CreatedAt   time.Time
}

func (p *Promotion) ActiveAt(now time.Time) bool {
	return p.Active && !now.Before(p.StartsAt) && now.Before(p.EndsAt)
}

// EffectivePrice returns the promoted price in centavos, floored so the
// customer never pays a fraction more.
func (p *Promotion) EffectivePrice(priceCentavos int64) int64 {
	if p.DiscountPct <= 0 {
		return priceCentavos
	}
	return priceCentavos - priceCentavos*p.DiscountPct/100
}
