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
var _ CouponUseCase = (*couponUC)(nil)

// RateLimiter bounds validation attempts per customer. Implemented in
// infra/redis; a nil limiter disables limiting (tests, dev mode).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CouponValidation is the checkout-facing outcome. Message is an i18n
// key; the HTTP layer renders it in Spanish. A validation never carries
// an error: transient backend failures fail closed as Valid=false.
type CouponValidation struct {
	Valid    bool
	Discount *model.AppliedCoupon
	Message  string
}

type CouponUseCase interface {
	// Validate checks a code against plan/price constraints. The client
	// never fabricates a discount: only a Valid=true result carries one.
	Validate(ctx context.Context, code, planID string, planPriceCentavos int64, customerEmail string) CouponValidation

	// Admin surface.
	Create(ctx context.Context, c *model.Coupon) error
	Update(ctx context.Context, c *model.Coupon) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Coupon, error)
}

type couponUC struct {
	coupons repository.CouponRepository
	limiter RateLimiter
	log     *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, limiter RateLimiter, logger *zerolog.Logger) *couponUC {
	return &couponUC{coupons: coupons, limiter: limiter, log: logger}
}

const (
	validateAttemptLimit  = 10
	validateAttemptWindow = time.Minute
)

func (u *couponUC) Validate(ctx context.Context, code, planID string, planPriceCentavos int64, customerEmail string) CouponValidation {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CouponValidation{Message: "cupon.invalido"}
	}

	if u.limiter != nil && customerEmail != "" {
		ok, err := u.limiter.Allow(ctx, "validate:cupon:"+customerEmail, validateAttemptLimit, validateAttemptWindow)
		if err == nil && !ok {
			return CouponValidation{Message: "error.intentos"}
		}
	}

	c, err := u.coupons.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncDiscountRejected("cupon", "desconocido")
			return CouponValidation{Message: "cupon.invalido"}
		}
		// Fail closed: a transient storage failure must look exactly like
		// a business-rule rejection, never an applied discount.
		u.log.Warn().Err(err).Str("code", code).Msg("coupon lookup failed; failing closed")
		metrics.IncDiscountRejected("cupon", "transitorio")
		return CouponValidation{Message: "error.transitorio"}
	}

	now := time.Now()
	switch {
	case !c.Active:
		metrics.IncDiscountRejected("cupon", "inactivo")
		return CouponValidation{Message: "cupon.invalido"}
	case !c.WindowOpen(now):
		metrics.IncDiscountRejected("cupon", "expirado")
		return CouponValidation{Message: "cupon.expirado"}
	case c.Exhausted():
		metrics.IncDiscountRejected("cupon", "agotado")
		return CouponValidation{Message: "cupon.agotado"}
	case !c.AppliesTo(planID):
		metrics.IncDiscountRejected("cupon", "plan")
		return CouponValidation{Message: "cupon.plan"}
	case c.MinPriceCentavos > 0 && planPriceCentavos < c.MinPriceCentavos:
		metrics.IncDiscountRejected("cupon", "minimo")
		return CouponValidation{Message: "cupon.minimo"}
	}

	metrics.IncDiscountApplied("cupon")
	return CouponValidation{
		Valid:    true,
		Discount: &model.AppliedCoupon{Code: c.Code, Kind: c.Kind, Value: c.Value},
		Message:  "cupon.aplicado",
	}
}

func (u *couponUC) Create(ctx context.Context, c *model.Coupon) error {
	if c.Code == "" || c.Value <= 0 {
		return domain.ErrInvalidArgument
	}
	if c.Kind == model.DiscountPercentage && c.Value > 100 {
		return domain.ErrInvalidArgument
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.CreatedAt = time.Now()
	c.Active = true
	return u.coupons.Save(ctx, nil, c)
}

func (u *couponUC) Update(ctx context.Context, c *model.Coupon) error {
	if c.ID == "" {
		return domain.ErrInvalidArgument
	}
	return u.coupons.Save(ctx, nil, c)
}

func (u *couponUC) Delete(ctx context.Context, id string) error {
	return u.coupons.Delete(ctx, nil, id)
}

func (u *couponUC) List(ctx context.Context) ([]*model.Coupon, error) {
	return u.coupons.ListAll(ctx, nil)
}
