//go:build !integration

package web

import (
	"context"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/usecase"
)

// --- Mock use cases (admin surface only) ---

type mockStatsUC struct {
	week, month, year int64
	payoutCount       int
	payoutTotal       int64
	revenueErr        error
}

var _ usecase.StatsUseCase = (*mockStatsUC)(nil)

func (m *mockStatsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	if m.revenueErr != nil {
		return 0, 0, 0, m.revenueErr
	}
	return m.week, m.month, m.year, nil
}

func (m *mockStatsUC) PendingPayouts(ctx context.Context) (int, int64, error) {
	return m.payoutCount, m.payoutTotal, nil
}

type mockCouponUC struct {
	usecase.CouponUseCase

	coupons   []*model.Coupon
	createErr error
	deleteErr error
}

func (m *mockCouponUC) Create(ctx context.Context, c *model.Coupon) error {
	if m.createErr != nil {
		return m.createErr
	}
	c.ID = "cupon-1"
	m.coupons = append(m.coupons, c)
	return nil
}

func (m *mockCouponUC) List(ctx context.Context) ([]*model.Coupon, error) {
	return m.coupons, nil
}

func (m *mockCouponUC) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	return nil
}

type mockPlanUC struct {
	usecase.PlanUseCase

	plans     []*model.Plan
	createErr error
}

func (m *mockPlanUC) Create(ctx context.Context, name string, kind model.PlanKind, durationDays, deviceLimit int, credits, priceCentavos int64) (*model.Plan, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	p, err := model.NewPlan("plan-1", name, kind, durationDays, deviceLimit, credits, priceCentavos)
	if err != nil {
		return nil, err
	}
	m.plans = append(m.plans, p)
	return p, nil
}

func (m *mockPlanUC) List(ctx context.Context) ([]*model.Plan, error) {
	return m.plans, nil
}

type mockReferralUC struct {
	usecase.ReferralUseCase

	unpaid    []*model.ReferralRedemption
	settled   []string
	settleErr error
	settleSum int64
	createErr error
}

func (m *mockReferralUC) Create(ctx context.Context, rc *model.ReferralCode) error {
	if m.createErr != nil {
		return m.createErr
	}
	rc.ID = "ref-1"
	return nil
}

func (m *mockReferralUC) ListUnpaidPayouts(ctx context.Context) ([]*model.ReferralRedemption, error) {
	return m.unpaid, nil
}

func (m *mockReferralUC) SettlePayouts(ctx context.Context, redemptionIDs []string) (int64, error) {
	if m.settleErr != nil {
		return 0, m.settleErr
	}
	m.settled = redemptionIDs
	return m.settleSum, nil
}

type mockPromotionUC struct {
	usecase.PromotionUseCase

	promos    []*model.Promotion
	createErr error
}

func (m *mockPromotionUC) Create(ctx context.Context, p *model.Promotion) error {
	if m.createErr != nil {
		return m.createErr
	}
	if p.Name == "" || p.DiscountPct <= 0 || p.DiscountPct > 100 {
		return domain.ErrInvalidArgument
	}
	p.ID = "promo-1"
	m.promos = append(m.promos, p)
	return nil
}

func (m *mockPromotionUC) List(ctx context.Context) ([]*model.Promotion, error) {
	return m.promos, nil
}
