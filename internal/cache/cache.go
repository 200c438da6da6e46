package cache

import (
	"context"
	"errors"

	"github.com/fjod/donation_cart/internal/domain"
)

// AppealCache caches single appeals and the full catalog listing.
type AppealCache interface {
	GetAppeal(ctx context.Context, id string) (*domain.Appeal, error)
	SetAppeal(ctx context.Context, appeal *domain.Appeal) error
	GetAppeals(ctx context.Context) ([]*domain.Appeal, error)
	SetAppeals(ctx context.Context, appeals []*domain.Appeal) error
	Delete(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")
