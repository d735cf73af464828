package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

type ReconcileOutcome string

const (
	ReconcileApproved  ReconcileOutcome = "approved"
	ReconcileRejected  ReconcileOutcome = "rejected"  // rejected or cancelled: authoritative, no retries
	ReconcileExhausted ReconcileOutcome = "exhausted" // retry budget spent while still pending
)

// ReconcileResult carries the terminal observation and an i18n message
// key for the status page.
type ReconcileResult struct {
	Outcome ReconcileOutcome
	Payment *model.Payment
	Message string
}

// ReconcileUseCase observes an asynchronous payment confirmation with
// bounded polling. It never writes payment state; webhooks and the
// background sweep own transitions.
type ReconcileUseCase interface {
	Await(ctx context.Context, paymentID string) (ReconcileResult, error)
}

const maxPollAttempts = 30

type reconcileUC struct {
	payments repository.PaymentRepository
	maxTries int
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zerolog.Logger
}

func NewReconcileUseCase(payments repository.PaymentRepository, logger *zerolog.Logger) *reconcileUC {
	return &reconcileUC{
		payments: payments,
		maxTries: maxPollAttempts,
		sleep:    sleepCtx,
		log:      logger,
	}
}

// Await polls until the payment reaches a terminal state or the retry
// budget is exhausted. Confirmation routinely lags the redirect by tens
// of seconds, so a pending read or a transient storage error just
// schedules the next attempt.
func (u *reconcileUC) Await(ctx context.Context, paymentID string) (ReconcileResult, error) {
	for attempt := 1; attempt <= u.maxTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return ReconcileResult{}, err
		}

		p, err := u.payments.FindByID(ctx, nil, paymentID)
		metrics.IncReconcileAttempt()
		if err != nil {
			u.log.Debug().Err(err).Str("payment", paymentID).Int("attempt", attempt).Msg("status read failed; will retry")
		} else {
			switch p.Status {
			case model.PaymentStatusApproved:
				metrics.IncReconcileOutcome(string(ReconcileApproved))
				return ReconcileResult{Outcome: ReconcileApproved, Payment: p, Message: "pago.aprobado"}, nil
			case model.PaymentStatusRejected, model.PaymentStatusCancelled:
				metrics.IncReconcileOutcome(string(ReconcileRejected))
				return ReconcileResult{Outcome: ReconcileRejected, Payment: p, Message: "pago.rechazado"}, nil
			}
		}

		if err := u.sleep(ctx, backoffFor(attempt)); err != nil {
			return ReconcileResult{}, err
		}
	}

	// The purchase may still complete server-side; this is informational,
	// not an error.
	metrics.IncReconcileOutcome(string(ReconcileExhausted))
	u.log.Info().Str("payment", paymentID).Int("attempts", u.maxTries).Msg("reconciliation budget exhausted while pending")
	return ReconcileResult{Outcome: ReconcileExhausted, Message: "pago.procesando"}, nil
}

// backoffFor is the fixed schedule: attempts 1-5 wait 1s, 6-10 wait 2s,
// later attempts 3s.
func backoffFor(attempt int) time.Duration {
	switch {
	case attempt <= 5:
		return time.Second
	case attempt <= 10:
		return 2 * time.Second
	default:
		return 3 * time.Second
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
