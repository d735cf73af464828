package model

import (
	"time"

	"vpn-storefront/internal/domain"
)

type PlanKind string

const (
	PlanKindVPNAccess      PlanKind = "vpn_access"      // time-boxed VPN credentials
	PlanKindResellerCredit PlanKind = "reseller_credit" // credit package for resellers
)

// Plan is a purchasable storefront item: either time-boxed VPN access
// or a reseller credit package. Prices are stored in centavos.
type Plan struct {
	ID            string
	Name          string
	Kind          PlanKind
	DurationDays  int   // VPN plans: credential lifetime
	DeviceLimit   int   // VPN plans: simultaneous connections
	Credits       int64 // reseller packages: credits granted
	PriceCentavos int64
	Active        bool
	CreatedAt     time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, kind PlanKind, durationDays, deviceLimit int, credits, priceCentavos int64) (*Plan, error) {
	if id == "" || name == "" || priceCentavos <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch kind {
	case PlanKindVPNAccess:
		if durationDays <= 0 || deviceLimit <= 0 {
			return nil, domain.ErrInvalidArgument
		}
	case PlanKindResellerCredit:
		if credits <= 0 {
			return nil, domain.ErrInvalidArgument
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:            id,
		Name:          name,
		Kind:          kind,
		DurationDays:  durationDays,
		DeviceLimit:   deviceLimit,
		Credits:       credits,
		PriceCentavos: priceCentavos,
		Active:        true,
		CreatedAt:     time.Now(),
	}, nil
}
