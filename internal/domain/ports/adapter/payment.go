package adapter

import (
	"context"

	"vpn-storefront/internal/domain/model"
)

// PreferenceRequest describes the payment intent sent to the provider.
// Amounts are centavos; the adapter converts to the provider's unit.
type PreferenceRequest struct {
	ExternalID      string // our payment id, echoed back in webhooks
	Title           string
	AmountCentavos  int64
	Currency        string
	PayerEmail      string
	PayerName       string
	SuccessURL      string
	FailureURL      string
	NotificationURL string
}

// PaymentGateway is the hex port for the hosted-checkout provider.
type PaymentGateway interface {
	Name() string

	// CreatePreference registers a payment intent and returns the hosted
	// payment link. The preference id travels inside the link as a query
	// parameter; callers extract it.
	CreatePreference(ctx context.Context, req PreferenceRequest) (payURL string, err error)

	// QueryPayment returns the provider's view of a payment identified by
	// our external id, plus the provider's own reference when known.
	QueryPayment(ctx context.Context, externalID string) (model.PaymentStatus, string, error)
}
