package payment

import (
	"context"
	"fmt"
	"sync"

	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for tests and dev mode.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]int64 // external id -> amount (centavos)
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		intents: make(map[string]int64),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopPaymentGateway) CreatePreference(ctx context.Context, req adapter.PreferenceRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[req.ExternalID] = req.AmountCentavos
	return "https://example.test/checkout/redirect?pref_id=" + g.next(), nil
}

func (g *NoopPaymentGateway) QueryPayment(ctx context.Context, externalID string) (model.PaymentStatus, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.intents[externalID]; !ok {
		return "", "", fmt.Errorf("noop: external id not found")
	}
	return model.PaymentStatusApproved, "ref-" + externalID, nil
}
