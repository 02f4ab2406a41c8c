package port

import (
	"context"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

// CacheName is the well-known key the ledger is stored under.
const CacheName = "kds_orders"

type LedgerStore interface {
	// Save overwrites the cached ledger with orders, in display order
	Save(ctx context.Context, orders []domain.Order) error

	// Load returns the cached ledger, or an empty slice if nothing is cached
	Load(ctx context.Context) ([]domain.Order, error)

	// Clear removes the cached ledger
	Clear(ctx context.Context) error
}
