package usecase

import (
	"context"

	"vpn-storefront/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase aggregates admin-panel figures.
type StatsUseCase interface {
	// Revenue returns approved revenue for the trailing week, month and year.
	Revenue(ctx context.Context) (week, month, year int64, err error)
	// PendingPayouts returns the count and total of unsettled referral rewards.
	PendingPayouts(ctx context.Context) (count int, totalCentavos int64, err error)
}

type statsUC struct {
	payments  repository.PaymentRepository
	referrals repository.ReferralRepository
}

func NewStatsUseCase(payments repository.PaymentRepository, referrals repository.ReferralRepository) *statsUC {
	return &statsUC{payments: payments, referrals: referrals}
}

func (u *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	week, err := u.payments.SumApprovedByPeriod(ctx, nil, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	month, err := u.payments.SumApprovedByPeriod(ctx, nil, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := u.payments.SumApprovedByPeriod(ctx, nil, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	return week, month, year, nil
}

func (u *statsUC) PendingPayouts(ctx context.Context) (int, int64, error) {
	unpaid, err := u.referrals.ListUnpaidRedemptions(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for _, r := range unpaid {
		total += r.RewardCentavos
	}
	return len(unpaid), total, nil
}
