package model

import "time"

// Wallet is a customer's running credit balance, keyed by email (the
// identity provider owns accounts; email is the identity key here).
type Wallet struct {
	CustomerEmail   string
	BalanceCentavos int64
	UpdatedAt       time.Time
}
