package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // preference created / awaiting provider confirmation
	PaymentStatusApproved  PaymentStatus = "approved"  // provider confirmed the charge
	PaymentStatusRejected  PaymentStatus = "rejected"  // provider rejected the charge
	PaymentStatusCancelled PaymentStatus = "cancelled" // customer or admin cancelled
)

// Terminal reports whether the status can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected || s == PaymentStatusCancelled
}

// Payment records one purchase attempt. Amounts are centavos.
type Payment struct {
	ID             string // UUID
	SessionID      string // checkout session ULID
	PlanID         string
	CustomerEmail  string
	CustomerName   string
	Provider       string // e.g. "mercadopago"
	AmountCentavos int64  // payable amount sent to the provider (0 for full-balance)
	Currency       string // "ARS"
	PreferenceID   string // provider preference id (empty for full-balance purchases)
	ProviderRef    string // provider payment id after confirmation
	Status         PaymentStatus
	CouponCode     string
	ReferralCode   string
	BalanceUsed    int64 // wallet centavos applied to this purchase
	FullBalance    bool  // purchase fully covered by wallet, gateway bypassed
	Provisioned    bool  // VPN credentials delivered
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time
}

// PaymentPreference is the provider-side payment intent a widget binds
// to. A preference created for an amount that later changed is stale
// and must be regenerated, never reused.
type PaymentPreference struct {
	ID             string    `json:"id"`
	AmountCentavos int64     `json:"amount_centavos"`
	PayURL         string    `json:"pay_url"`
	CreatedAt      time.Time `json:"created_at"`
}

func (p *PaymentPreference) StaleFor(amountCentavos int64) bool {
	return p == nil || p.AmountCentavos != amountCentavos
}
