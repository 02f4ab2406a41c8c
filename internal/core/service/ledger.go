package service

import (
	"context"
	"fmt"

	"github.com/rl1809/kitchen-relay/internal/clock"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

// Ledger is a station's authoritative list of orders. Every successful
// mutation writes the full ledger to the store before returning.
//
// A Ledger is not safe for concurrent use; the station's event loop owns it.
type Ledger struct {
	store port.LedgerStore
	clock clock.Clock

	orders []domain.Order
	index  map[string]int
}

func NewLedger(store port.LedgerStore, clk clock.Clock) *Ledger {
	return &Ledger{
		store: store,
		clock: clk,
		index: make(map[string]int),
	}
}

// Load replaces the in-memory ledger with the cached one. Duplicate ids in
// the cache keep their first occurrence.
func (l *Ledger) Load(ctx context.Context) error {
	orders, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	l.orders = l.orders[:0]
	l.index = make(map[string]int, len(orders))
	for _, o := range orders {
		if _, dup := l.index[o.ID]; dup {
			continue
		}
		l.index[o.ID] = len(l.orders)
		l.orders = append(l.orders, o)
	}
	return nil
}

// ApplyNewOrder appends a pending order received now. It reports false
// without touching the store when orderID is already present.
func (l *Ledger) ApplyNewOrder(ctx context.Context, orderID, table, item string) (bool, error) {
	if _, ok := l.index[orderID]; ok {
		return false, nil
	}

	l.index[orderID] = len(l.orders)
	l.orders = append(l.orders, domain.Order{
		ID:          orderID,
		Table:       table,
		Item:        item,
		Status:      domain.StatusPending,
		SubmittedAt: l.clock.Now().UTC(),
	})

	return true, l.persist(ctx, "new order")
}

// ApplyStatusUpdate overwrites the status of a known order with any value,
// regressions included. Unknown ids are dropped and report false.
func (l *Ledger) ApplyStatusUpdate(ctx context.Context, orderID string, status domain.Status) (bool, error) {
	i, ok := l.index[orderID]
	if !ok {
		return false, nil
	}

	l.orders[i].Status = status
	return true, l.persist(ctx, "status update")
}

// ClearAll empties the ledger and its cache.
func (l *Ledger) ClearAll(ctx context.Context) error {
	l.orders = nil
	l.index = make(map[string]int)

	if err := l.store.Clear(ctx); err != nil {
		return &domain.PersistenceError{Op: "clear", Err: err}
	}
	return nil
}

func (l *Ledger) Get(orderID string) (domain.Order, bool) {
	i, ok := l.index[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return l.orders[i], true
}

func (l *Ledger) Len() int { return len(l.orders) }

// Snapshot returns a copy of the orders in insertion order.
func (l *Ledger) Snapshot() []domain.Order {
	out := make([]domain.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

func (l *Ledger) persist(ctx context.Context, op string) error {
	if err := l.store.Save(ctx, l.orders); err != nil {
		return &domain.PersistenceError{Op: op, Err: err}
	}
	return nil
}
