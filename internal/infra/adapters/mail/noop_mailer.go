package mail

import (
	"context"
	"sync"

	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer records sends for tests and dev mode.
type NoopMailer struct {
	mu          sync.Mutex
	Credentials []string // recipient emails
	Processing  []string
}

func NewNoopMailer() *NoopMailer { return &NoopMailer{} }

func (m *NoopMailer) SendCredentials(ctx context.Context, toEmail, toName string, acc *model.VPNAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credentials = append(m.Credentials, toEmail)
	return nil
}

func (m *NoopMailer) SendProcessing(ctx context.Context, toEmail, toName, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Processing = append(m.Processing, toEmail)
	return nil
}
