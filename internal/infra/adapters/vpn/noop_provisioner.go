package vpn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
)

var _ adapter.Provisioner = (*NoopProvisioner)(nil)

// NoopProvisioner fabricates accounts in memory for tests and dev mode.
type NoopProvisioner struct {
	mu  sync.Mutex
	seq int64

	ProvisionVPNFunc func(ctx context.Context, plan *model.Plan, customerEmail string) (*model.VPNAccount, error)

	Provisioned []string // customer emails
	Credits     map[string]int64
}

func NewNoopProvisioner() *NoopProvisioner {
	return &NoopProvisioner{Credits: make(map[string]int64)}
}

func (p *NoopProvisioner) ProvisionVPN(ctx context.Context, plan *model.Plan, customerEmail string) (*model.VPNAccount, error) {
	if p.ProvisionVPNFunc != nil {
		return p.ProvisionVPNFunc(ctx, plan, customerEmail)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.Provisioned = append(p.Provisioned, customerEmail)
	return &model.VPNAccount{
		ID:        fmt.Sprintf("acc-%d", p.seq),
		Username:  fmt.Sprintf("vpn%d", p.seq),
		Password:  "secret",
		Server:    "vpn.example.test",
		Port:      1194,
		Protocol:  "wireguard",
		ExpiresAt: time.Now().AddDate(0, 0, plan.DurationDays),
	}, nil
}

func (p *NoopProvisioner) GrantCredits(ctx context.Context, customerEmail string, credits int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Credits[customerEmail] += credits
	return nil
}
