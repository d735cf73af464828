package model

import "time"

// ReferralCode grants a percentage discount to the buyer and a wallet
// reward to the code owner once the purchase is approved.
type ReferralCode struct {
	ID                 string
	Code               string
	OwnerEmail         string
	DiscountPct        int64 // percentage in [0,100]
	RewardCentavos     int64 // credited to the owner's wallet per approved purchase
	ValidFrom          *time.Time
	ValidUntil         *time.Time
	MaxUsesPerCustomer int // 0 = unlimited
	Active             bool
	CreatedAt          time.Time
}

func (r *ReferralCode) WindowOpen(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

// ReferralRedemption is the historical trail of a referral code being
// used on an approved purchase. Payouts settle against these rows.
type ReferralRedemption struct {
	ID             string
	Code           string
	OwnerEmail     string
	CustomerEmail  string
	PaymentID      string
	RewardCentavos int64
	PaidOut        bool
	CreatedAt      time.Time
}
