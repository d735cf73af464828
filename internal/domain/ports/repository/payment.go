package repository

import (
	"context"
	"time"

	"vpn-storefront/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByPreference(ctx context.Context, tx Tx, preferenceID string) (*model.Payment, error)
	// UpdateStatusIfPending transitions a payment out of pending exactly
	// once; returns false when the payment was already terminal.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error)
	MarkProvisioned(ctx context.Context, tx Tx, id string) error
	// ListStalePending returns pending payments older than the cutoff,
	// for the background reconciliation sweep.
	ListStalePending(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
	SumApprovedByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
