package storage

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisLedgerStore_Laws(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	exerciseLedgerStore(t, NewRedisLedgerStore(client, "test:kds_orders"))
}

func TestRedisLedgerStore_SingleKey(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisLedgerStore(client, "test:kds_orders")
	defer store.Clear(ctx)

	if err := store.Save(ctx, sampleLedger()); err != nil {
		t.Fatalf("save: %v", err)
	}

	n, err := client.Exists(ctx, "test:kds_orders").Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if n != 1 {
		t.Errorf("expected ledger key to exist")
	}
}
