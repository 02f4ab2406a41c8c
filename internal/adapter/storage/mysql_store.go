package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

const mysqlSchema = `
	CREATE TABLE IF NOT EXISTS ledger_cache (
		name       VARCHAR(64) NOT NULL PRIMARY KEY,
		payload    LONGBLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

// MySQLLedgerStore keeps the ledger as one row of ledger_cache.
type MySQLLedgerStore struct {
	db   *sql.DB
	name string
}

func NewMySQLLedgerStore(db *sql.DB, name string) *MySQLLedgerStore {
	return &MySQLLedgerStore{db: db, name: name}
}

// Migrate creates the ledger_cache table if it does not exist.
func (m *MySQLLedgerStore) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, mysqlSchema); err != nil {
		return fmt.Errorf("create ledger_cache: %w", err)
	}
	return nil
}

func (m *MySQLLedgerStore) Save(ctx context.Context, orders []domain.Order) error {
	data, err := encodeLedger(orders)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO ledger_cache (name, payload) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload)`,
		m.name, data,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

func (m *MySQLLedgerStore) Load(ctx context.Context) ([]domain.Order, error) {
	var data []byte
	err := m.db.QueryRowContext(ctx,
		`SELECT payload FROM ledger_cache WHERE name = ?`, m.name,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return decodeLedger(data)
}

func (m *MySQLLedgerStore) Clear(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM ledger_cache WHERE name = ?`, m.name); err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	return nil
}
