//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
	"vpn-storefront/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func ptrTime(t time.Time) *time.Time { return &t }

// =============================
// Transaction manager
// =============================

// MockTxManager runs the function with a nil tx; the mock repositories
// accept nil for both paths.
type MockTxManager struct {
	mu    sync.Mutex
	Calls int

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// =============================
// Repositories
// =============================

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.plans[plan.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.plans {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

// ---- Mock CouponRepository ----

type MockCouponRepo struct {
	mu       sync.Mutex
	coupons  map[string]*model.Coupon // keyed by upper-case code
	IncCalls []string                 // codes passed to IncrementUses

	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error)
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func NewMockCouponRepo() *MockCouponRepo {
	return &MockCouponRepo{coupons: make(map[string]*model.Coupon)}
}

func (m *MockCouponRepo) Save(ctx context.Context, tx repository.Tx, coupon *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *coupon
	m.coupons[strings.ToUpper(coupon.Code)] = &cp
	return nil
}

func (m *MockCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCouponRepo) IncrementUses(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncCalls = append(m.IncCalls, code)
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return domain.ErrNotFound
	}
	c.Uses++
	return nil
}

func (m *MockCouponRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Coupon
	for _, c := range m.coupons {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockCouponRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, c := range m.coupons {
		if c.ID == id {
			delete(m.coupons, code)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ---- Mock ReferralRepository ----

type MockReferralRepo struct {
	mu          sync.Mutex
	codes       map[string]*model.ReferralCode
	redemptions []*model.ReferralRedemption

	FindByCodeFunc       func(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error)
	CountRedemptionsFunc func(ctx context.Context, tx repository.Tx, code, customerEmail string) (int, error)
}

var _ repository.ReferralRepository = (*MockReferralRepo)(nil)

func NewMockReferralRepo() *MockReferralRepo {
	return &MockReferralRepo{codes: make(map[string]*model.ReferralCode)}
}

func (m *MockReferralRepo) Save(ctx context.Context, tx repository.Tx, code *model.ReferralCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.codes[strings.ToUpper(code.Code)] = &cp
	return nil
}

func (m *MockReferralRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.codes[strings.ToUpper(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rc
	return &cp, nil
}

func (m *MockReferralRepo) CountRedemptions(ctx context.Context, tx repository.Tx, code, customerEmail string) (int, error) {
	if m.CountRedemptionsFunc != nil {
		return m.CountRedemptionsFunc(ctx, tx, code, customerEmail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.redemptions {
		if strings.EqualFold(r.Code, code) && strings.EqualFold(r.CustomerEmail, customerEmail) {
			n++
		}
	}
	return n, nil
}

func (m *MockReferralRepo) SaveRedemption(ctx context.Context, tx repository.Tx, r *model.ReferralRedemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.redemptions = append(m.redemptions, &cp)
	return nil
}

func (m *MockReferralRepo) ListUnpaidRedemptions(ctx context.Context, tx repository.Tx) ([]*model.ReferralRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ReferralRedemption
	for _, r := range m.redemptions {
		if !r.PaidOut {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockReferralRepo) MarkRedemptionsPaid(ctx context.Context, tx repository.Tx, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, r := range m.redemptions {
		if want[r.ID] {
			r.PaidOut = true
		}
	}
	return nil
}

// Redemptions returns a snapshot of everything recorded so far.
func (m *MockReferralRepo) Redemptions() []model.ReferralRedemption {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ReferralRedemption, len(m.redemptions))
	for i, r := range m.redemptions {
		out[i] = *r
	}
	return out
}

// ---- Mock PromotionRepository ----

type MockPromotionRepo struct {
	mu     sync.Mutex
	promos map[string]*model.Promotion

	FindActiveAtFunc func(ctx context.Context, tx repository.Tx, at time.Time) (*model.Promotion, error)
}

var _ repository.PromotionRepository = (*MockPromotionRepo)(nil)

func NewMockPromotionRepo() *MockPromotionRepo {
	return &MockPromotionRepo{promos: make(map[string]*model.Promotion)}
}

func (m *MockPromotionRepo) Save(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.promos[p.ID] = &cp
	return nil
}

func (m *MockPromotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPromotionRepo) FindActiveAt(ctx context.Context, tx repository.Tx, at time.Time) (*model.Promotion, error) {
	if m.FindActiveAtFunc != nil {
		return m.FindActiveAtFunc(ctx, tx, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Promotion
	for _, p := range m.promos {
		if p.ActiveAt(at) && (best == nil || p.DiscountPct > best.DiscountPct) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MockPromotionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Promotion
	for _, p := range m.promos {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPromotionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.promos[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.promos, id)
	return nil
}

// ---- Mock WalletRepository ----

type MockWalletRepo struct {
	mu       sync.Mutex
	balances map[string]int64
	Debits   []int64 // amounts passed to Debit, in order

	FindByEmailFunc func(ctx context.Context, tx repository.Tx, email string) (*model.Wallet, error)
	DebitFunc       func(ctx context.Context, tx repository.Tx, email string, centavos int64) error
}

var _ repository.WalletRepository = (*MockWalletRepo)(nil)

func NewMockWalletRepo() *MockWalletRepo {
	return &MockWalletRepo{balances: make(map[string]int64)}
}

func (m *MockWalletRepo) SetBalance(email string, centavos int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[strings.ToLower(email)] = centavos
}

func (m *MockWalletRepo) Balance(email string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[strings.ToLower(email)]
}

func (m *MockWalletRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Wallet, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, tx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.Wallet{CustomerEmail: email, BalanceCentavos: b, UpdatedAt: time.Now()}, nil
}

func (m *MockWalletRepo) Credit(ctx context.Context, tx repository.Tx, email string, centavos int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[strings.ToLower(email)] += centavos
	return nil
}

func (m *MockWalletRepo) Debit(ctx context.Context, tx repository.Tx, email string, centavos int64) error {
	if m.DebitFunc != nil {
		return m.DebitFunc(ctx, tx, email, centavos)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if m.balances[key] < centavos {
		return domain.ErrInsufficientBalance
	}
	m.balances[key] -= centavos
	m.Debits = append(m.Debits, centavos)
	return nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment
	Saves    int

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByPreference(ctx context.Context, tx repository.Tx, preferenceID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.PreferenceID == preferenceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if providerRef != nil {
		p.ProviderRef = *providerRef
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) MarkProvisioned(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Provisioned = true
	return nil
}

func (m *MockPaymentRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if p.Status == model.PaymentStatusPending && !p.FullBalance && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) SumApprovedByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.payments {
		if p.Status == model.PaymentStatusApproved {
			sum += p.AmountCentavos + p.BalanceUsed
		}
	}
	return sum, nil
}

// Stored returns the persisted state of one payment.
func (m *MockPaymentRepo) Stored(id string) *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ---- Mock ReferralCodeCache ----

type MockReferralCache struct {
	mu            sync.Mutex
	codes         map[string]string
	RememberCalls int
}

var _ repository.ReferralCodeCache = (*MockReferralCache)(nil)

func NewMockReferralCache() *MockReferralCache {
	return &MockReferralCache{codes: make(map[string]string)}
}

func (m *MockReferralCache) Remember(ctx context.Context, customerEmail, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RememberCalls++
	m.codes[strings.ToLower(customerEmail)] = code
	return nil
}

func (m *MockReferralCache) Recall(ctx context.Context, customerEmail string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[strings.ToLower(customerEmail)]
	if !ok {
		return "", domain.ErrNotFound
	}
	return code, nil
}

func (m *MockReferralCache) Forget(ctx context.Context, customerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, strings.ToLower(customerEmail))
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu       sync.Mutex
	Requests []adapter.PreferenceRequest
	seq      int

	CreatePreferenceFunc func(ctx context.Context, req adapter.PreferenceRequest) (string, error)
	QueryPaymentFunc     func(ctx context.Context, externalID string) (model.PaymentStatus, string, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func NewMockPaymentGateway() *MockPaymentGateway { return &MockPaymentGateway{} }

func (m *MockPaymentGateway) Name() string { return "mercadopago" }

func (m *MockPaymentGateway) CreatePreference(ctx context.Context, req adapter.PreferenceRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.seq++
	n := m.seq
	m.mu.Unlock()
	if m.CreatePreferenceFunc != nil {
		return m.CreatePreferenceFunc(ctx, req)
	}
	return fmt.Sprintf("https://pay.example.test/checkout?pref_id=pref-%d", n), nil
}

func (m *MockPaymentGateway) QueryPayment(ctx context.Context, externalID string) (model.PaymentStatus, string, error) {
	if m.QueryPaymentFunc != nil {
		return m.QueryPaymentFunc(ctx, externalID)
	}
	return model.PaymentStatusPending, "", nil
}

// ---- Mock WidgetSDK ----

type MockWidgetSDK struct {
	mu         sync.Mutex
	InitCalls  int
	MountCalls []string // container ids passed to CreateWallet
	ClearCalls []string

	InitializeFunc   func(ctx context.Context, publicKey string) error
	CreateWalletFunc func(ctx context.Context, containerID string, init adapter.WalletInit) error
}

var _ adapter.WidgetSDK = (*MockWidgetSDK)(nil)

func NewMockWidgetSDK() *MockWidgetSDK { return &MockWidgetSDK{} }

func (m *MockWidgetSDK) Initialize(ctx context.Context, publicKey string) error {
	m.mu.Lock()
	m.InitCalls++
	m.mu.Unlock()
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, publicKey)
	}
	return nil
}

func (m *MockWidgetSDK) CreateWallet(ctx context.Context, containerID string, init adapter.WalletInit) error {
	m.mu.Lock()
	m.MountCalls = append(m.MountCalls, containerID)
	m.mu.Unlock()
	if m.CreateWalletFunc != nil {
		return m.CreateWalletFunc(ctx, containerID, init)
	}
	return nil
}

func (m *MockWidgetSDK) ClearContainer(ctx context.Context, containerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls = append(m.ClearCalls, containerID)
	return nil
}

// Mounts returns how many times CreateWallet was invoked.
func (m *MockWidgetSDK) Mounts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.MountCalls)
}

// Inits returns how many SDK handshakes ran.
func (m *MockWidgetSDK) Inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InitCalls
}

// ---- Mock Provisioner ----

type MockProvisioner struct {
	mu          sync.Mutex
	Provisioned []string         // customer emails provisioned, in order
	Credits     map[string]int64 // email -> credits granted

	ProvisionVPNFunc func(ctx context.Context, plan *model.Plan, customerEmail string) (*model.VPNAccount, error)
}

var _ adapter.Provisioner = (*MockProvisioner)(nil)

func NewMockProvisioner() *MockProvisioner {
	return &MockProvisioner{Credits: make(map[string]int64)}
}

func (m *MockProvisioner) ProvisionVPN(ctx context.Context, plan *model.Plan, customerEmail string) (*model.VPNAccount, error) {
	if m.ProvisionVPNFunc != nil {
		return m.ProvisionVPNFunc(ctx, plan, customerEmail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Provisioned = append(m.Provisioned, customerEmail)
	return &model.VPNAccount{
		ID:        "acc-" + customerEmail,
		Username:  customerEmail,
		Password:  "secreta",
		Server:    "vpn.example.test",
		Port:      1194,
		Protocol:  "wireguard",
		ExpiresAt: time.Now().Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
	}, nil
}

func (m *MockProvisioner) GrantCredits(ctx context.Context, customerEmail string, credits int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credits[customerEmail] += credits
	return nil
}

// ---- Mock Mailer ----

type MockMailer struct {
	mu          sync.Mutex
	Credentials []string // recipients of credential mails
	Processing  []string
}

var _ adapter.Mailer = (*MockMailer)(nil)

func NewMockMailer() *MockMailer { return &MockMailer{} }

func (m *MockMailer) SendCredentials(ctx context.Context, toEmail, toName string, account *model.VPNAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credentials = append(m.Credentials, toEmail)
	return nil
}

func (m *MockMailer) SendProcessing(ctx context.Context, toEmail, toName string, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Processing = append(m.Processing, toEmail)
	return nil
}

// ---- Mock RateLimiter ----

type MockRateLimiter struct {
	mu    sync.Mutex
	Calls int

	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func NewMockRateLimiter() *MockRateLimiter { return &MockRateLimiter{} }

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}
