package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

// RedisLedgerStore keeps the whole ledger as one JSON string value.
type RedisLedgerStore struct {
	client *redis.Client
	key    string
}

func NewRedisLedgerStore(client *redis.Client, key string) *RedisLedgerStore {
	return &RedisLedgerStore{client: client, key: key}
}

func (r *RedisLedgerStore) Save(ctx context.Context, orders []domain.Order) error {
	data, err := encodeLedger(orders)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisLedgerStore) Load(ctx context.Context) ([]domain.Order, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decodeLedger(data)
}

func (r *RedisLedgerStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
