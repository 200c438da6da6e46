package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/pkg/circuitbreaker"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const listKey = "appeals:all"

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.Settings{
			Name:        "appeal-cache",
			OpenTimeout: 10 * time.Second,
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrCacheMiss)
			},
		}),
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func (r *RedisCache) GetAppeal(ctx context.Context, id string) (*domain.Appeal, error) {
	data, err := r.get(ctx, cacheKey(id))
	if err != nil {
		return nil, err
	}

	var appeal domain.Appeal
	if err := json.Unmarshal(data, &appeal); err != nil {
		return nil, fmt.Errorf("unmarshal appeal failed: %w", err)
	}
	return &appeal, nil
}

func (r *RedisCache) SetAppeal(ctx context.Context, appeal *domain.Appeal) error {
	return r.set(ctx, cacheKey(appeal.ID), appeal)
}

func (r *RedisCache) GetAppeals(ctx context.Context) ([]*domain.Appeal, error) {
	data, err := r.get(ctx, listKey)
	if err != nil {
		return nil, err
	}

	var appeals []*domain.Appeal
	if err := json.Unmarshal(data, &appeals); err != nil {
		return nil, fmt.Errorf("unmarshal appeals failed: %w", err)
	}
	return appeals, nil
}

func (r *RedisCache) SetAppeals(ctx context.Context, appeals []*domain.Appeal) error {
	return r.set(ctx, listKey, appeals)
}

// Delete drops one appeal and the listing that contains it.
func (r *RedisCache) Delete(ctx context.Context, id string) error {
	_, err := r.breaker.Execute(func() ([]byte, error) {
		return nil, r.client.Del(ctx, cacheKey(id), listKey).Err()
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.breaker.Execute(func() ([]byte, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return data, err
	})
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	_, err = r.breaker.Execute(func() ([]byte, error) {
		return nil, r.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("appeal:%s", id)
}
