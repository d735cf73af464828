package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutURLs are the provider redirect/notification endpoints bound
// into every created preference.
type CheckoutURLs struct {
	Success      string
	Failure      string
	Notification string
}

// PurchaseResult is returned for finalized purchases. Account is nil
// when provisioning is deferred (customer is told to check email).
type PurchaseResult struct {
	Payment     *model.Payment
	Account     *model.VPNAccount
	FullBalance bool
	Message     string // i18n key
}

// CheckoutUseCase owns checkout sessions and the payment-preference
// orchestration. Sessions are recomputed as a whole on every discount
// input change; asynchronous validation results are applied only when
// no newer input arrived in the meantime (last input wins, not last
// response).
type CheckoutUseCase interface {
	Start(ctx context.Context, planID, customerEmail string) (*model.CheckoutSession, error)
	Session(sessionID string) (*model.CheckoutSession, error)
	SetCustomer(ctx context.Context, sessionID, name, email string) (*model.CheckoutSession, error)

	ApplyCoupon(ctx context.Context, sessionID, code string) (*model.CheckoutSession, CouponValidation, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	ApplyReferral(ctx context.Context, sessionID, code string) (*model.CheckoutSession, ReferralValidation, error)
	RemoveReferral(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	ApplyBalance(ctx context.Context, sessionID string, requestedCentavos int64) (*model.CheckoutSession, error)

	// CreatePreference is the widget submit path: it re-validates the
	// customer fields and reads the session state at call time, never a
	// value captured when the widget was mounted. A previously created
	// preference is reused only while its amount still matches.
	CreatePreference(ctx context.Context, sessionID string) (*model.PaymentPreference, error)

	// PaymentLink is the degraded no-widget path: a plain hosted payment
	// link for a direct redirect.
	PaymentLink(ctx context.Context, sessionID string) (string, error)

	// PurchaseWithBalance finalizes a purchase fully covered by wallet
	// balance; the payment gateway is never contacted.
	PurchaseWithBalance(ctx context.Context, sessionID string) (*PurchaseResult, error)

	// ConfirmFromProvider re-checks one payment with the provider and,
	// on approval, finalizes it (debit, redemption trail, provisioning).
	// Used by the webhook handler and the background sweep.
	ConfirmFromProvider(ctx context.Context, paymentID string) (*model.Payment, error)

	// PruneSessions drops sessions idle longer than maxAge.
	PruneSessions(maxAge time.Duration) int
}

type checkoutUC struct {
	mu       sync.RWMutex
	sessions map[string]*model.CheckoutSession
	inFlight map[string]*sync.Mutex // serializes preference creation per session

	pricing   PricingUseCase
	coupons   CouponUseCase
	referrals ReferralUseCase
	wallet    WalletUseCase
	promos    PromotionUseCase

	plans        repository.PlanRepository
	payments     repository.PaymentRepository
	couponRepo   repository.CouponRepository
	referralRepo repository.ReferralRepository
	walletRepo   repository.WalletRepository
	tm           repository.TransactionManager

	gateway     adapter.PaymentGateway
	provisioner adapter.Provisioner
	mailer      adapter.Mailer

	urls CheckoutURLs
	log  *zerolog.Logger
}

func NewCheckoutUseCase(
	pricing PricingUseCase,
	coupons CouponUseCase,
	referrals ReferralUseCase,
	wallet WalletUseCase,
	promos PromotionUseCase,
	plans repository.PlanRepository,
	payments repository.PaymentRepository,
	couponRepo repository.CouponRepository,
	referralRepo repository.ReferralRepository,
	walletRepo repository.WalletRepository,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	provisioner adapter.Provisioner,
	mailer adapter.Mailer,
	urls CheckoutURLs,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		sessions:     make(map[string]*model.CheckoutSession),
		inFlight:     make(map[string]*sync.Mutex),
		pricing:      pricing,
		coupons:      coupons,
		referrals:    referrals,
		wallet:       wallet,
		promos:       promos,
		plans:        plans,
		payments:     payments,
		couponRepo:   couponRepo,
		referralRepo: referralRepo,
		walletRepo:   walletRepo,
		tm:           tm,
		gateway:      gateway,
		provisioner:  provisioner,
		mailer:       mailer,
		urls:         urls,
		log:          logger,
	}
}

// ---- session lifecycle ----

func (u *checkoutUC) Start(ctx context.Context, planID, customerEmail string) (*model.CheckoutSession, error) {
	plan, err := u.plans.FindByID(ctx, nil, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, domain.ErrNotFound
	}

	price, _, err := u.promos.EffectivePrice(ctx, plan)
	if err != nil {
		return nil, err
	}
	balance, err := u.wallet.Balance(ctx, customerEmail)
	if err != nil {
		// Balance is a convenience read; checkout continues without it.
		u.log.Warn().Err(err).Msg("wallet balance lookup failed at session start")
		balance = 0
	}

	now := time.Now()
	s := &model.CheckoutSession{
		ID:                ulid.Make().String(),
		PlanID:            plan.ID,
		BasePriceCentavos: price,
		CustomerEmail:     strings.TrimSpace(customerEmail),
		WalletBalance:     balance,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := u.recompute(s); err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.sessions[s.ID] = s
	u.mu.Unlock()
	metrics.IncCheckoutStarted()

	// Remembered referral codes are a UX hint only: always re-validated
	// before they influence the price.
	if code, ok := u.referrals.Remembered(ctx, s.CustomerEmail); ok {
		if _, v, err := u.ApplyReferral(ctx, s.ID, code); err == nil && v.Valid {
			u.log.Debug().Str("session", s.ID).Str("code", code).Msg("remembered referral re-applied")
		}
	}

	return u.Session(s.ID)
}

func (u *checkoutUC) Session(sessionID string) (*model.CheckoutSession, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s, ok := u.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return snapshotOf(s), nil
}

func (u *checkoutUC) SetCustomer(ctx context.Context, sessionID, name, email string) (*model.CheckoutSession, error) {
	email = strings.TrimSpace(email)
	balance, err := u.wallet.Balance(ctx, email)
	if err != nil {
		balance = 0
	}
	snap, _, err := u.beginInput(sessionID, func(s *model.CheckoutSession) {
		s.CustomerName = strings.TrimSpace(name)
		s.CustomerEmail = email
		s.WalletBalance = balance
		if s.BalanceRequested > balance {
			s.BalanceRequested = balance
		}
	})
	return snap, err
}

// ---- discount inputs ----

func (u *checkoutUC) ApplyCoupon(ctx context.Context, sessionID, code string) (*model.CheckoutSession, CouponValidation, error) {
	// Typing a new code is itself an input change: it bumps the sequence
	// and clears the previous coupon so no stale discount survives while
	// validation is in flight.
	snap, seq, err := u.beginInput(sessionID, func(s *model.CheckoutSession) { s.Coupon = nil })
	if err != nil {
		return nil, CouponValidation{}, err
	}

	v := u.coupons.Validate(ctx, code, snap.PlanID, snap.BasePriceCentavos, snap.CustomerEmail)

	cur, applied, err := u.commitIfCurrent(sessionID, seq, func(s *model.CheckoutSession) {
		if v.Valid {
			s.Coupon = v.Discount
		}
	})
	if err != nil {
		return nil, CouponValidation{}, err
	}
	if !applied {
		// A newer input won; the in-flight result is dropped silently.
		return cur, CouponValidation{Message: "entrada.reemplazada"}, nil
	}
	return cur, v, nil
}

func (u *checkoutUC) RemoveCoupon(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	snap, _, err := u.beginInput(sessionID, func(s *model.CheckoutSession) { s.Coupon = nil })
	return snap, err
}

func (u *checkoutUC) ApplyReferral(ctx context.Context, sessionID, code string) (*model.CheckoutSession, ReferralValidation, error) {
	snap, seq, err := u.beginInput(sessionID, func(s *model.CheckoutSession) {
		s.ReferralCode = ""
		s.ReferralPct = 0
	})
	if err != nil {
		return nil, ReferralValidation{}, err
	}

	v := u.referrals.Validate(ctx, code, snap.CustomerEmail)

	cur, applied, err := u.commitIfCurrent(sessionID, seq, func(s *model.CheckoutSession) {
		if v.Valid {
			s.ReferralCode = strings.ToUpper(strings.TrimSpace(code))
			s.ReferralPct = v.DiscountPct
		}
	})
	if err != nil {
		return nil, ReferralValidation{}, err
	}
	if !applied {
		return cur, ReferralValidation{Message: "entrada.reemplazada"}, nil
	}
	return cur, v, nil
}

func (u *checkoutUC) RemoveReferral(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	snap, _, err := u.beginInput(sessionID, func(s *model.CheckoutSession) {
		s.ReferralCode = ""
		s.ReferralPct = 0
	})
	return snap, err
}

func (u *checkoutUC) ApplyBalance(ctx context.Context, sessionID string, requestedCentavos int64) (*model.CheckoutSession, error) {
	if requestedCentavos < 0 {
		return nil, domain.ErrInvalidArgument
	}
	snap, _, err := u.beginInput(sessionID, func(s *model.CheckoutSession) {
		if requestedCentavos > s.WalletBalance {
			requestedCentavos = s.WalletBalance
		}
		s.BalanceRequested = requestedCentavos
	})
	return snap, err
}

// ---- preference orchestration ----

func (u *checkoutUC) CreatePreference(ctx context.Context, sessionID string) (*model.PaymentPreference, error) {
	// The staleness check and the creation must act as one decision per
	// session: a widget submit racing a direct purchase-intent call would
	// otherwise each reach the gateway and leave an orphaned pending row.
	lock := u.preferenceLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	// State is read at call time through the session store; the widget
	// callback that brought us here captured nothing but the session id.
	snap, err := u.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateCustomer(snap); err != nil {
		return nil, err
	}
	if snap.Quote.FullBalance() {
		return nil, domain.ErrNothingToPay
	}
	if snap.Preference != nil && !snap.Preference.StaleFor(snap.Quote.Payable) {
		pref := *snap.Preference
		return &pref, nil
	}

	plan, err := u.plans.FindByID(ctx, nil, snap.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPreferenceCreation, err)
	}

	now := time.Now()
	p := &model.Payment{
		ID:             uuid.NewString(),
		SessionID:      snap.ID,
		PlanID:         snap.PlanID,
		CustomerEmail:  snap.CustomerEmail,
		CustomerName:   snap.CustomerName,
		Provider:       u.gateway.Name(),
		AmountCentavos: snap.Quote.Payable,
		Currency:       "ARS",
		Status:         model.PaymentStatusPending,
		CouponCode:     couponCode(snap),
		ReferralCode:   snap.ReferralCode,
		BalanceUsed:    snap.Quote.BalanceApplied,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	payURL, err := u.gateway.CreatePreference(ctx, adapter.PreferenceRequest{
		ExternalID:      p.ID,
		Title:           plan.Name,
		AmountCentavos:  p.AmountCentavos,
		Currency:        p.Currency,
		PayerEmail:      p.CustomerEmail,
		PayerName:       p.CustomerName,
		SuccessURL:      u.urls.Success,
		FailureURL:      u.urls.Failure,
		NotificationURL: u.urls.Notification,
	})
	if err != nil {
		metrics.IncPayment("preferencia_fallida")
		return nil, fmt.Errorf("%w: %v", domain.ErrPreferenceCreation, err)
	}

	prefID, err := parsePreferenceID(payURL)
	if err != nil {
		// Fatal for this attempt: surfaced, never retried automatically.
		metrics.IncPayment("link_malformado")
		return nil, err
	}
	p.PreferenceID = prefID
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPreferenceCreation, err)
	}

	pref := &model.PaymentPreference{
		ID:             prefID,
		AmountCentavos: p.AmountCentavos,
		PayURL:         payURL,
		CreatedAt:      now,
	}
	u.mu.Lock()
	if s, ok := u.sessions[sessionID]; ok {
		cp := *pref
		s.Preference = &cp
	}
	u.mu.Unlock()

	metrics.IncPayment("preferencia_creada")
	u.log.Info().Str("session", sessionID).Str("preference", prefID).
		Int64("amount", p.AmountCentavos).Msg("payment preference created")
	return pref, nil
}

func (u *checkoutUC) PaymentLink(ctx context.Context, sessionID string) (string, error) {
	pref, err := u.CreatePreference(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return pref.PayURL, nil
}

// parsePreferenceID extracts the provider preference id carried in the
// hosted payment link as the pref_id query parameter.
func parsePreferenceID(payURL string) (string, error) {
	parsed, err := url.Parse(payURL)
	if err != nil {
		return "", domain.ErrMalformedPaymentLink
	}
	id := parsed.Query().Get("pref_id")
	if id == "" {
		return "", domain.ErrMalformedPaymentLink
	}
	return id, nil
}

// ---- purchase finalization ----

func (u *checkoutUC) PurchaseWithBalance(ctx context.Context, sessionID string) (*PurchaseResult, error) {
	snap, err := u.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateCustomer(snap); err != nil {
		return nil, err
	}
	if !snap.Quote.FullBalance() {
		return nil, domain.ErrInvalidArgument
	}

	now := time.Now()
	p := &model.Payment{
		ID:             uuid.NewString(),
		SessionID:      snap.ID,
		PlanID:         snap.PlanID,
		CustomerEmail:  snap.CustomerEmail,
		CustomerName:   snap.CustomerName,
		Provider:       "saldo",
		AmountCentavos: 0,
		Currency:       "ARS",
		Status:         model.PaymentStatusApproved,
		CouponCode:     couponCode(snap),
		ReferralCode:   snap.ReferralCode,
		BalanceUsed:    snap.Quote.BalanceApplied,
		FullBalance:    true,
		CreatedAt:      now,
		UpdatedAt:      now,
		PaidAt:         &now,
	}

	err = u.tm.WithTx(ctx, defaultTxOptions(), func(ctx context.Context, tx repository.Tx) error {
		if p.BalanceUsed > 0 {
			if err := u.walletRepo.Debit(ctx, tx, p.CustomerEmail, p.BalanceUsed); err != nil {
				return err
			}
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		return u.recordRedemptions(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment("aprobado_saldo")
	metrics.AddRevenue("ARS", p.BalanceUsed)

	account := u.provision(ctx, p)
	msg := "compra.saldo_completo"
	if account == nil {
		msg = "compra.procesando"
	}
	return &PurchaseResult{Payment: p, Account: account, FullBalance: true, Message: msg}, nil
}

func (u *checkoutUC) ConfirmFromProvider(ctx context.Context, paymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return p, nil
	}

	status, providerRef, err := u.gateway.QueryPayment(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if !status.Terminal() {
		return p, nil
	}

	now := time.Now()
	var paidAt *time.Time
	if status == model.PaymentStatusApproved {
		paidAt = &now
	}

	var transitioned bool
	err = u.tm.WithTx(ctx, defaultTxOptions(), func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, status, &providerRef, paidAt)
		if err != nil {
			return err
		}
		transitioned = ok
		if !ok || status != model.PaymentStatusApproved {
			return nil
		}
		if p.BalanceUsed > 0 {
			if err := u.walletRepo.Debit(ctx, tx, p.CustomerEmail, p.BalanceUsed); err != nil {
				return err
			}
		}
		return u.recordRedemptions(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	p.Status = status
	p.ProviderRef = providerRef
	p.PaidAt = paidAt
	p.UpdatedAt = now

	if transitioned {
		metrics.IncPayment(string(status))
		if status == model.PaymentStatusApproved {
			metrics.AddRevenue(p.Currency, p.AmountCentavos+p.BalanceUsed)
			u.provision(ctx, p)
		}
	}
	return p, nil
}

// recordRedemptions writes the coupon usage and referral trail for an
// approved payment, inside the caller's transaction.
func (u *checkoutUC) recordRedemptions(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if p.CouponCode != "" {
		if err := u.couponRepo.IncrementUses(ctx, tx, p.CouponCode); err != nil {
			return err
		}
	}
	if p.ReferralCode == "" {
		return nil
	}
	rc, err := u.referralRepo.FindByCode(ctx, tx, p.ReferralCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // code retired between validation and approval
		}
		return err
	}
	return u.referralRepo.SaveRedemption(ctx, tx, NewRedemption(rc, p.CustomerEmail, p.ID))
}

// provision delivers credentials for an approved payment. Failures are
// logged, not fatal: the payment stays approved and unprovisioned.
func (u *checkoutUC) provision(ctx context.Context, p *model.Payment) *model.VPNAccount {
	plan, err := u.plans.FindByID(ctx, nil, p.PlanID)
	if err != nil {
		u.log.Error().Err(err).Str("payment", p.ID).Msg("plan lookup failed during provisioning")
		return nil
	}

	var account *model.VPNAccount
	switch plan.Kind {
	case model.PlanKindResellerCredit:
		if err := u.provisioner.GrantCredits(ctx, p.CustomerEmail, plan.Credits); err != nil {
			u.log.Error().Err(err).Str("payment", p.ID).Msg("credit grant failed")
			return nil
		}
	default:
		account, err = u.provisioner.ProvisionVPN(ctx, plan, p.CustomerEmail)
		if err != nil {
			u.log.Error().Err(err).Str("payment", p.ID).Msg("vpn provisioning failed")
			return nil
		}
	}

	if err := u.payments.MarkProvisioned(ctx, nil, p.ID); err != nil {
		u.log.Warn().Err(err).Str("payment", p.ID).Msg("mark provisioned failed")
	}
	p.Provisioned = true

	if err := u.mailer.SendCredentials(ctx, p.CustomerEmail, p.CustomerName, account); err != nil {
		u.log.Warn().Err(err).Str("payment", p.ID).Msg("credential mail failed")
	}
	return account
}

func (u *checkoutUC) PruneSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for id, s := range u.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(u.sessions, id)
			delete(u.inFlight, id)
			n++
		}
	}
	return n
}

func (u *checkoutUC) preferenceLock(sessionID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.inFlight[sessionID]
	if !ok {
		l = &sync.Mutex{}
		u.inFlight[sessionID] = l
	}
	return l
}

// ---- internals ----

// beginInput bumps the session's input sequence, applies the change and
// recomputes the whole quote. It returns a snapshot and the sequence
// number an in-flight validation must present to commit its result.
func (u *checkoutUC) beginInput(sessionID string, fn func(s *model.CheckoutSession)) (*model.CheckoutSession, uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.sessions[sessionID]
	if !ok {
		return nil, 0, domain.ErrSessionNotFound
	}
	s.InputSeq++
	fn(s)
	if err := u.recompute(s); err != nil {
		return nil, 0, err
	}
	s.UpdatedAt = time.Now()
	return snapshotOf(s), s.InputSeq, nil
}

// commitIfCurrent applies an async validation result only if the input
// sequence is still the one the validation was started for.
func (u *checkoutUC) commitIfCurrent(sessionID string, seq uint64, fn func(s *model.CheckoutSession)) (*model.CheckoutSession, bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.sessions[sessionID]
	if !ok {
		return nil, false, domain.ErrSessionNotFound
	}
	if s.InputSeq != seq {
		return snapshotOf(s), false, nil
	}
	fn(s)
	if err := u.recompute(s); err != nil {
		return nil, false, err
	}
	s.UpdatedAt = time.Now()
	return snapshotOf(s), true, nil
}

func (u *checkoutUC) recompute(s *model.CheckoutSession) error {
	q, err := u.pricing.Resolve(s.BasePriceCentavos, DiscountInputs{
		Coupon:           s.Coupon,
		ReferralPct:      s.ReferralPct,
		BalanceRequested: s.BalanceRequested,
	})
	if err != nil {
		return err
	}
	s.Quote = q
	return nil
}

func validateCustomer(s *model.CheckoutSession) error {
	if strings.TrimSpace(s.CustomerName) == "" {
		return domain.ErrEmptyName
	}
	if _, err := mail.ParseAddress(s.CustomerEmail); err != nil {
		return domain.ErrInvalidEmail
	}
	return nil
}

func couponCode(s *model.CheckoutSession) string {
	if s.Coupon == nil {
		return ""
	}
	return s.Coupon.Code
}

func snapshotOf(s *model.CheckoutSession) *model.CheckoutSession {
	cp := *s
	if s.Coupon != nil {
		c := *s.Coupon
		cp.Coupon = &c
	}
	if s.Preference != nil {
		p := *s.Preference
		cp.Preference = &p
	}
	return &cp
}
