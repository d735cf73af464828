//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/usecase"
)

func newReferralUC(repo *MockReferralRepo, wallets *MockWalletRepo, cache *MockReferralCache) usecase.ReferralUseCase {
	return usecase.NewReferralUseCase(repo, wallets, cache, NewMockTxManager(), nil, newTestLogger())
}

func TestReferralValidate(t *testing.T) {
	ctx := context.Background()

	repo := NewMockReferralRepo()
	_ = repo.Save(ctx, nil, &model.ReferralCode{
		ID: "r1", Code: "AMIGO10", OwnerEmail: "dueno@example.com",
		DiscountPct: 10, RewardCentavos: 500, Active: true,
	})
	_ = repo.Save(ctx, nil, &model.ReferralCode{
		ID: "r2", Code: "UNAVEZ", OwnerEmail: "dueno@example.com",
		DiscountPct: 5, RewardCentavos: 200, MaxUsesPerCustomer: 1, Active: true,
	})
	_ = repo.SaveRedemption(ctx, nil, &model.ReferralRedemption{
		ID: "rd1", Code: "UNAVEZ", OwnerEmail: "dueno@example.com",
		CustomerEmail: "ana@example.com", PaymentID: "p1", RewardCentavos: 200,
	})

	cache := NewMockReferralCache()
	uc := newReferralUC(repo, NewMockWalletRepo(), cache)

	t.Run("valid code applies and is remembered", func(t *testing.T) {
		v := uc.Validate(ctx, "amigo10", "ana@example.com")
		if !v.Valid || v.DiscountPct != 10 || v.Message != "referido.aplicado" {
			t.Fatalf("got %+v", v)
		}
		if cache.RememberCalls != 1 {
			t.Fatalf("Remember calls: got %d", cache.RememberCalls)
		}
		if code, err := cache.Recall(ctx, "ana@example.com"); err != nil || code != "AMIGO10" {
			t.Fatalf("Recall: %q, %v", code, err)
		}
	})

	t.Run("owner cannot use own code", func(t *testing.T) {
		v := uc.Validate(ctx, "AMIGO10", "Dueno@Example.com")
		if v.Valid || v.Message != "referido.propio" {
			t.Fatalf("got %+v", v)
		}
	})

	t.Run("per-customer limit reached", func(t *testing.T) {
		v := uc.Validate(ctx, "UNAVEZ", "ana@example.com")
		if v.Valid || v.Message != "referido.limite" {
			t.Fatalf("got %+v", v)
		}
	})

	t.Run("limit counts per customer, not globally", func(t *testing.T) {
		v := uc.Validate(ctx, "UNAVEZ", "otra@example.com")
		if !v.Valid {
			t.Fatalf("got %+v", v)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		v := uc.Validate(ctx, "NOEXISTE", "ana@example.com")
		if v.Valid || v.Message != "referido.invalido" {
			t.Fatalf("got %+v", v)
		}
	})
}

func TestReferralValidate_FailsClosedOnStorageError(t *testing.T) {
	ctx := context.Background()
	repo := NewMockReferralRepo()
	repo.FindByCodeFunc = func(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
		return nil, errors.New("connection refused")
	}

	uc := newReferralUC(repo, NewMockWalletRepo(), nil)

	v := uc.Validate(ctx, "AMIGO10", "ana@example.com")
	if v.Valid || v.DiscountPct != 0 {
		t.Fatalf("expected fail-closed result, got %+v", v)
	}
	if v.Message != "error.transitorio" {
		t.Fatalf("message: got %q", v.Message)
	}
}

func TestReferralRemembered(t *testing.T) {
	ctx := context.Background()
	cache := NewMockReferralCache()
	uc := newReferralUC(NewMockReferralRepo(), NewMockWalletRepo(), cache)

	if _, ok := uc.Remembered(ctx, "ana@example.com"); ok {
		t.Fatalf("expected no remembered code")
	}

	_ = cache.Remember(ctx, "ana@example.com", "AMIGO10")
	code, ok := uc.Remembered(ctx, "ana@example.com")
	if !ok || code != "AMIGO10" {
		t.Fatalf("got %q, %v", code, ok)
	}
}

func TestReferralSettlePayouts(t *testing.T) {
	ctx := context.Background()

	repo := NewMockReferralRepo()
	_ = repo.SaveRedemption(ctx, nil, &model.ReferralRedemption{
		ID: "rd1", Code: "AMIGO10", OwnerEmail: "dueno@example.com",
		CustomerEmail: "ana@example.com", PaymentID: "p1", RewardCentavos: 500,
	})
	_ = repo.SaveRedemption(ctx, nil, &model.ReferralRedemption{
		ID: "rd2", Code: "AMIGO10", OwnerEmail: "dueno@example.com",
		CustomerEmail: "otra@example.com", PaymentID: "p2", RewardCentavos: 500,
	})

	wallets := NewMockWalletRepo()
	uc := newReferralUC(repo, wallets, nil)

	total, err := uc.SettlePayouts(ctx, []string{"rd1", "rd2"})
	if err != nil {
		t.Fatalf("SettlePayouts: %v", err)
	}
	if total != 1_000 {
		t.Fatalf("total: got %d", total)
	}
	if got := wallets.Balance("dueno@example.com"); got != 1_000 {
		t.Fatalf("owner balance: got %d", got)
	}

	unpaid, err := repo.ListUnpaidRedemptions(ctx, nil)
	if err != nil {
		t.Fatalf("ListUnpaidRedemptions: %v", err)
	}
	if len(unpaid) != 0 {
		t.Fatalf("expected all redemptions paid, got %d unpaid", len(unpaid))
	}

	// Settling again finds nothing to pay.
	if _, err := uc.SettlePayouts(ctx, []string{"rd1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("resettle: expected ErrNotFound, got %v", err)
	}

	// Empty request is a no-op.
	if total, err := uc.SettlePayouts(ctx, nil); err != nil || total != 0 {
		t.Fatalf("empty: got %d, %v", total, err)
	}
}
