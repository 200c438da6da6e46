package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/donation_cart/internal/cache"
	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/internal/repository"
	"github.com/fjod/donation_cart/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AppealFilter narrows ListAppeals. Zero values match everything.
type AppealFilter struct {
	Query    string
	Category string
	Urgency  domain.Urgency
	Featured *bool
}

func (f AppealFilter) matches(a *domain.Appeal) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(a.Title), q) &&
			!strings.Contains(strings.ToLower(a.Description), q) &&
			!strings.Contains(strings.ToLower(a.Location), q) {
			return false
		}
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Urgency != "" && a.Urgency != f.Urgency {
		return false
	}
	if f.Featured != nil && a.Featured != *f.Featured {
		return false
	}
	return true
}

type CatalogService struct {
	repo  repository.AppealRepository
	cache cache.AppealCache
	sfg   singleflight.Group // Prevents cache stampede

	// fillMu orders async cache fills against evictions. A fill whose read
	// started before the latest eviction is dropped.
	fillMu    sync.Mutex
	evictions uint64
}

func NewCatalogService(repo repository.AppealRepository, cache cache.AppealCache) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
	}
}

func (s *CatalogService) GetAppeal(ctx context.Context, id string) (*domain.Appeal, error) {
	v, err, _ := s.sfg.Do("appeal:"+id, func() (interface{}, error) {
		gen := s.evictionGen()
		appeal, err := s.cache.GetAppeal(ctx, id)
		if err == nil {
			return appeal, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx).Warn("cache get error", zap.String("appeal_id", id), zap.Error(err))
		}

		appeal, err = s.repo.GetAppeal(ctx, id)
		if err != nil {
			return nil, err
		}

		go s.fillCache(gen, func(ctx context.Context) error {
			return s.cache.SetAppeal(ctx, appeal)
		})

		return appeal, nil
	})
	if err != nil {
		return nil, err
	}

	appeal := *v.(*domain.Appeal)
	return &appeal, nil
}

func (s *CatalogService) ListAppeals(ctx context.Context, filter AppealFilter) ([]*domain.Appeal, error) {
	all, err := s.allAppeals(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Appeal, 0, len(all))
	for _, a := range all {
		if filter.matches(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Categories lists distinct categories in catalog order.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	all, err := s.allAppeals(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(all))
	var out []string
	for _, a := range all {
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		out = append(out, a.Category)
	}
	return out, nil
}

// ApplyDonation adds the donated subtotals to each appeal's raised amount and
// evicts the stale cache entries. Replays return ErrDonationAlreadyApplied.
func (s *CatalogService) ApplyDonation(ctx context.Context, donationID string, items []domain.DonationItem) error {
	sums := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		subtotal, err := decimal.NewFromString(item.Subtotal)
		if err != nil {
			return fmt.Errorf("donation %s: bad subtotal %q: %w", donationID, item.Subtotal, err)
		}
		sums[item.AppealID] = sums[item.AppealID].Add(subtotal)
	}

	raised := make(map[string]float64, len(sums))
	for id, sum := range sums {
		raised[id] = sum.InexactFloat64()
	}
	if err := s.repo.ApplyDonation(ctx, donationID, raised); err != nil {
		return err
	}

	s.fillMu.Lock()
	s.evictions++
	s.fillMu.Unlock()

	for id := range raised {
		if err := s.cache.Delete(ctx, id); err != nil {
			logger.FromContext(ctx).Warn("cache delete error", zap.String("appeal_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *CatalogService) allAppeals(ctx context.Context) ([]*domain.Appeal, error) {
	v, err, _ := s.sfg.Do("appeals:all", func() (interface{}, error) {
		gen := s.evictionGen()
		appeals, err := s.cache.GetAppeals(ctx)
		if err == nil {
			return appeals, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx).Warn("cache get error", zap.Error(err))
		}

		appeals, err = s.repo.ListAppeals(ctx)
		if err != nil {
			return nil, err
		}

		go s.fillCache(gen, func(ctx context.Context) error {
			return s.cache.SetAppeals(ctx, appeals)
		})

		return appeals, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Appeal), nil
}

func (s *CatalogService) evictionGen() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.evictions
}

// fillCache writes a value read at generation gen back to the cache unless
// an eviction happened since.
func (s *CatalogService) fillCache(gen uint64, set func(ctx context.Context) error) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.evictions != gen {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := set(ctx); err != nil {
		zap.L().Warn("cache set error", zap.Error(err))
	}
}
