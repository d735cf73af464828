//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/usecase"
)

func TestPromotionEffectivePrice(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	plan := &model.Plan{ID: "plan-mensual", Name: "VPN Mensual", PriceCentavos: 10_000, Active: true}

	t.Run("no running campaign", func(t *testing.T) {
		uc := usecase.NewPromotionUseCase(NewMockPromotionRepo())
		price, promo, err := uc.EffectivePrice(ctx, plan)
		if err != nil {
			t.Fatalf("EffectivePrice: %v", err)
		}
		if price != 10_000 || promo != nil {
			t.Fatalf("got price=%d promo=%+v", price, promo)
		}
	})

	t.Run("running campaign lowers the price", func(t *testing.T) {
		repo := NewMockPromotionRepo()
		_ = repo.Save(ctx, nil, &model.Promotion{
			ID: "pr1", Name: "Semana VPN", DiscountPct: 25, Active: true,
			StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		})
		uc := usecase.NewPromotionUseCase(repo)

		price, promo, err := uc.EffectivePrice(ctx, plan)
		if err != nil {
			t.Fatalf("EffectivePrice: %v", err)
		}
		if price != 7_500 || promo == nil || promo.ID != "pr1" {
			t.Fatalf("got price=%d promo=%+v", price, promo)
		}
	})

	t.Run("overlapping campaigns: biggest discount wins", func(t *testing.T) {
		repo := NewMockPromotionRepo()
		_ = repo.Save(ctx, nil, &model.Promotion{
			ID: "pr1", Name: "Chica", DiscountPct: 10, Active: true,
			StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		})
		_ = repo.Save(ctx, nil, &model.Promotion{
			ID: "pr2", Name: "Grande", DiscountPct: 40, Active: true,
			StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		})
		uc := usecase.NewPromotionUseCase(repo)

		price, promo, err := uc.EffectivePrice(ctx, plan)
		if err != nil {
			t.Fatalf("EffectivePrice: %v", err)
		}
		if price != 6_000 || promo.ID != "pr2" {
			t.Fatalf("got price=%d promo=%+v", price, promo)
		}
	})

	t.Run("storage error sells at list price", func(t *testing.T) {
		repo := NewMockPromotionRepo()
		repo.FindActiveAtFunc = func(ctx context.Context, tx repository.Tx, at time.Time) (*model.Promotion, error) {
			return nil, errors.New("connection refused")
		}
		uc := usecase.NewPromotionUseCase(repo)

		price, promo, err := uc.EffectivePrice(ctx, plan)
		if err != nil {
			t.Fatalf("EffectivePrice: %v", err)
		}
		if price != 10_000 || promo != nil {
			t.Fatalf("got price=%d promo=%+v", price, promo)
		}
	})
}

func TestPromotionCreate_Validation(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	uc := usecase.NewPromotionUseCase(NewMockPromotionRepo())

	bad := []*model.Promotion{
		{Name: "", DiscountPct: 10, StartsAt: now, EndsAt: now.Add(time.Hour)},
		{Name: "Cero", DiscountPct: 0, StartsAt: now, EndsAt: now.Add(time.Hour)},
		{Name: "Exceso", DiscountPct: 120, StartsAt: now, EndsAt: now.Add(time.Hour)},
		{Name: "Invertida", DiscountPct: 10, StartsAt: now.Add(time.Hour), EndsAt: now},
	}
	for i, p := range bad {
		if err := uc.Create(ctx, p); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}

	good := &model.Promotion{Name: "Semana VPN", DiscountPct: 25, StartsAt: now, EndsAt: now.Add(time.Hour)}
	if err := uc.Create(ctx, good); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if good.ID == "" || !good.Active {
		t.Fatalf("got %+v", good)
	}
}
