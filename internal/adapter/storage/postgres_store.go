package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS ledger_cache (
		name       TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PostgresLedgerStore keeps the ledger as one JSONB row of ledger_cache.
type PostgresLedgerStore struct {
	pool *pgxpool.Pool
	name string
}

func NewPostgresLedgerStore(pool *pgxpool.Pool, name string) *PostgresLedgerStore {
	return &PostgresLedgerStore{pool: pool, name: name}
}

func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create ledger_cache: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) Save(ctx context.Context, orders []domain.Order) error {
	data, err := encodeLedger(orders)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO ledger_cache (name, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		p.name, string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) Load(ctx context.Context) ([]domain.Order, error) {
	var data string
	err := p.pool.QueryRow(ctx,
		`SELECT payload::text FROM ledger_cache WHERE name = $1`, p.name,
	).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return decodeLedger([]byte(data))
}

func (p *PostgresLedgerStore) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM ledger_cache WHERE name = $1`, p.name); err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	return nil
}
