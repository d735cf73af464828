package adapter

import (
	"context"

	"vpn-storefront/internal/domain/model"
)

// Provisioner is the hex port for the VPN credential backend.
type Provisioner interface {
	// ProvisionVPN creates a time-boxed account for a VPN access plan.
	ProvisionVPN(ctx context.Context, plan *model.Plan, customerEmail string) (*model.VPNAccount, error)

	// GrantCredits adds reseller credits for a credit-package plan.
	GrantCredits(ctx context.Context, customerEmail string, credits int64) error
}
