package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
	red "vpn-storefront/internal/infra/redis"
	"vpn-storefront/internal/usecase"
)

// Reconciler is the safety net behind webhooks: it sweeps payments that
// sat pending past the cutoff and re-checks them with the provider.
// Each payment is confirmed under the same redis lock the webhook uses,
// so at most one finalizer runs per payment at any time.
type Reconciler struct {
	checkoutUC usecase.CheckoutUseCase
	payments   repository.PaymentRepository
	locker     red.Locker

	sweepInterval time.Duration
	staleAfter    time.Duration
	sessionMaxAge time.Duration
	log           *zerolog.Logger
}

func NewReconciler(
	checkoutUC usecase.CheckoutUseCase,
	payments repository.PaymentRepository,
	locker red.Locker,
	sweepInterval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		checkoutUC:    checkoutUC,
		payments:      payments,
		locker:        locker,
		sweepInterval: sweepInterval,
		staleAfter:    staleAfter,
		sessionMaxAge: 24 * time.Hour,
		log:           logger,
	}
}

// Start runs the sweep loop. Run in a goroutine.
func (r *Reconciler) Start(ctx context.Context, pool *Pool) {
	r.log.Info().Dur("interval", r.sweepInterval).Msg("payment reconciler started")
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("payment reconciler stopping")
			return
		case <-ticker.C:
			r.sweep(ctx, pool)
			if n := r.checkoutUC.PruneSessions(r.sessionMaxAge); n > 0 {
				r.log.Debug().Int("pruned", n).Msg("idle checkout sessions dropped")
			}
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context, pool *Pool) {
	cutoff := time.Now().Add(-r.staleAfter)
	stale, err := r.payments.ListStalePending(ctx, nil, cutoff, 100)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.log.Error().Err(err).Msg("stale payment listing failed")
		}
		return
	}

	for _, p := range stale {
		payment := p
		_ = pool.Submit(func(ctx context.Context) error {
			return r.confirmOne(ctx, payment)
		})
	}
}

func (r *Reconciler) confirmOne(ctx context.Context, p *model.Payment) error {
	token, err := r.locker.TryLock(ctx, "confirm:"+p.ID, 30*time.Second)
	if err != nil {
		return nil // someone else holds it; next sweep retries
	}
	defer func() { _ = r.locker.Unlock(ctx, "confirm:"+p.ID, token) }()

	updated, err := r.checkoutUC.ConfirmFromProvider(ctx, p.ID)
	if err != nil {
		r.log.Warn().Err(err).Str("payment", p.ID).Msg("sweep confirmation failed")
		return nil // transient; next sweep retries
	}
	if updated.Status != p.Status {
		r.log.Info().Str("payment", p.ID).Str("status", string(updated.Status)).
			Msg("stale payment reconciled")
	}
	return nil
}
