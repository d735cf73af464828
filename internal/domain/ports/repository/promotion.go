package repository

import (
	"context"
	"time"

	"vpn-storefront/internal/domain/model"
)

type PromotionRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Promotion) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Promotion, error)
	// FindActiveAt returns the campaign in effect at the given time, or
	// domain.ErrNotFound when no campaign is running.
	FindActiveAt(ctx context.Context, tx Tx, at time.Time) (*model.Promotion, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Promotion, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
