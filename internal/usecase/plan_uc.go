package usecase

import (
	"context"

	"github.com/google/uuid"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
)

var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	Create(ctx context.Context, name string, kind model.PlanKind, durationDays, deviceLimit int, credits, priceCentavos int64) (*model.Plan, error)
	Update(ctx context.Context, p *model.Plan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) Create(ctx context.Context, name string, kind model.PlanKind, durationDays, deviceLimit int, credits, priceCentavos int64) (*model.Plan, error) {
	p, err := model.NewPlan(uuid.NewString(), name, kind, durationDays, deviceLimit, credits, priceCentavos)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *planUC) Update(ctx context.Context, p *model.Plan) error {
	if p.IsZero() {
		return domain.ErrInvalidArgument
	}
	return u.plans.Save(ctx, nil, p)
}

func (u *planUC) Delete(ctx context.Context, id string) error {
	return u.plans.Delete(ctx, nil, id)
}

func (u *planUC) List(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListAll(ctx, nil)
}

func (u *planUC) ListActive(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListActive(ctx, nil)
}
