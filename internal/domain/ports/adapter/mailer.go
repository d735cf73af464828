package adapter

import (
	"context"

	"vpn-storefront/internal/domain/model"
)

// Mailer delivers transactional mail. Failures are logged and retried
// by the background reconciler; they never fail a purchase.
type Mailer interface {
	SendCredentials(ctx context.Context, toEmail, toName string, account *model.VPNAccount) error
	SendProcessing(ctx context.Context, toEmail, toName string, paymentID string) error
}
