package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/infra/metrics"
)

// Compile-time check
var _ ReferralUseCase = (*referralUC)(nil)

type ReferralValidation struct {
	Valid       bool
	DiscountPct int64
	Message     string
}

type ReferralUseCase interface {
	// Validate checks a referral code for this customer. Backend rules
	// are authoritative; the remembered-code cache is only a UX hint.
	Validate(ctx context.Context, code, customerEmail string) ReferralValidation

	// Remembered returns the customer's last validated code, if the
	// client-side record has not expired. Callers must re-validate.
	Remembered(ctx context.Context, customerEmail string) (string, bool)

	// Admin / payout surface.
	Create(ctx context.Context, rc *model.ReferralCode) error
	ListUnpaidPayouts(ctx context.Context) ([]*model.ReferralRedemption, error)
	SettlePayouts(ctx context.Context, redemptionIDs []string) (int64, error)
}

type referralUC struct {
	referrals repository.ReferralRepository
	wallets   repository.WalletRepository
	cache     repository.ReferralCodeCache
	tm        repository.TransactionManager
	limiter   RateLimiter
	log       *zerolog.Logger
}

func NewReferralUseCase(
	referrals repository.ReferralRepository,
	wallets repository.WalletRepository,
	cache repository.ReferralCodeCache,
	tm repository.TransactionManager,
	limiter RateLimiter,
	logger *zerolog.Logger,
) *referralUC {
	return &referralUC{referrals: referrals, wallets: wallets, cache: cache, tm: tm, limiter: limiter, log: logger}
}

func (u *referralUC) Validate(ctx context.Context, code, customerEmail string) ReferralValidation {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ReferralValidation{Message: "referido.invalido"}
	}

	if u.limiter != nil && customerEmail != "" {
		ok, err := u.limiter.Allow(ctx, "validate:referido:"+customerEmail, validateAttemptLimit, validateAttemptWindow)
		if err == nil && !ok {
			return ReferralValidation{Message: "error.intentos"}
		}
	}

	rc, err := u.referrals.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncDiscountRejected("referido", "desconocido")
			return ReferralValidation{Message: "referido.invalido"}
		}
		// Fail closed on transient failures.
		u.log.Warn().Err(err).Str("code", code).Msg("referral lookup failed; failing closed")
		metrics.IncDiscountRejected("referido", "transitorio")
		return ReferralValidation{Message: "error.transitorio"}
	}

	now := time.Now()
	switch {
	case !rc.Active || !rc.WindowOpen(now):
		metrics.IncDiscountRejected("referido", "expirado")
		return ReferralValidation{Message: "referido.invalido"}
	case customerEmail != "" && strings.EqualFold(rc.OwnerEmail, customerEmail):
		metrics.IncDiscountRejected("referido", "propio")
		return ReferralValidation{Message: "referido.propio"}
	}

	if rc.MaxUsesPerCustomer > 0 && customerEmail != "" {
		n, err := u.referrals.CountRedemptions(ctx, nil, code, customerEmail)
		if err != nil {
			u.log.Warn().Err(err).Str("code", code).Msg("redemption count failed; failing closed")
			metrics.IncDiscountRejected("referido", "transitorio")
			return ReferralValidation{Message: "error.transitorio"}
		}
		if n >= rc.MaxUsesPerCustomer {
			metrics.IncDiscountRejected("referido", "limite")
			return ReferralValidation{Message: "referido.limite"}
		}
	}

	if u.cache != nil && customerEmail != "" {
		if err := u.cache.Remember(ctx, customerEmail, code); err != nil {
			u.log.Debug().Err(err).Msg("remember referral code failed")
		}
	}

	metrics.IncDiscountApplied("referido")
	return ReferralValidation{Valid: true, DiscountPct: rc.DiscountPct, Message: "referido.aplicado"}
}

func (u *referralUC) Remembered(ctx context.Context, customerEmail string) (string, bool) {
	if u.cache == nil || customerEmail == "" {
		return "", false
	}
	code, err := u.cache.Recall(ctx, customerEmail)
	if err != nil || code == "" {
		return "", false
	}
	return code, true
}

func (u *referralUC) Create(ctx context.Context, rc *model.ReferralCode) error {
	if rc.Code == "" || rc.OwnerEmail == "" || rc.DiscountPct < 0 || rc.DiscountPct > 100 {
		return domain.ErrInvalidArgument
	}
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
	rc.Code = strings.ToUpper(strings.TrimSpace(rc.Code))
	rc.CreatedAt = time.Now()
	rc.Active = true
	return u.referrals.Save(ctx, nil, rc)
}

func (u *referralUC) ListUnpaidPayouts(ctx context.Context) ([]*model.ReferralRedemption, error) {
	return u.referrals.ListUnpaidRedemptions(ctx, nil)
}

// SettlePayouts credits each redemption's reward to the code owner's
// wallet and marks the redemptions paid, all in one transaction.
// Returns the total centavos credited.
func (u *referralUC) SettlePayouts(ctx context.Context, redemptionIDs []string) (int64, error) {
	if len(redemptionIDs) == 0 {
		return 0, nil
	}
	want := make(map[string]bool, len(redemptionIDs))
	for _, id := range redemptionIDs {
		want[id] = true
	}

	var total int64
	err := u.tm.WithTx(ctx, defaultTxOptions(), func(ctx context.Context, tx repository.Tx) error {
		unpaid, err := u.referrals.ListUnpaidRedemptions(ctx, tx)
		if err != nil {
			return err
		}
		var ids []string
		for _, r := range unpaid {
			if !want[r.ID] {
				continue
			}
			if err := u.wallets.Credit(ctx, tx, r.OwnerEmail, r.RewardCentavos); err != nil {
				return err
			}
			total += r.RewardCentavos
			ids = append(ids, r.ID)
		}
		if len(ids) == 0 {
			return domain.ErrNotFound
		}
		return u.referrals.MarkRedemptionsPaid(ctx, tx, ids)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// NewRedemption builds the trail row recorded when an approved purchase
// used a referral code.
func NewRedemption(rc *model.ReferralCode, customerEmail, paymentID string) *model.ReferralRedemption {
	return &model.ReferralRedemption{
		ID:             uuid.NewString(),
		Code:           rc.Code,
		OwnerEmail:     rc.OwnerEmail,
		CustomerEmail:  customerEmail,
		PaymentID:      paymentID,
		RewardCentavos: rc.RewardCentavos,
		CreatedAt:      time.Now(),
	}
}
