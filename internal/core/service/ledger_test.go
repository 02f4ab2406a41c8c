package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/kitchen-relay/internal/clock"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

func newTestLedger() (*Ledger, *memoryStore, *clock.FakeClock) {
	store := &memoryStore{}
	clk := clock.Fake(epoch)
	return NewLedger(store, clk), store, clk
}

func TestApplyNewOrder_AppendsPending(t *testing.T) {
	ledger, store, _ := newTestLedger()
	ctx := context.Background()

	added, err := ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added {
		t.Fatal("expected order to be added")
	}

	got, ok := ledger.Get("a1")
	if !ok {
		t.Fatal("order missing")
	}
	if got.Table != "5" || got.Item != "Pizza" || got.Status != domain.StatusPending {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got.SubmittedAt.Equal(epoch) {
		t.Errorf("expected submitted at %v, got %v", epoch, got.SubmittedAt)
	}
	if store.saves != 1 {
		t.Errorf("expected 1 save, got %d", store.saves)
	}
}

func TestApplyNewOrder_Idempotent(t *testing.T) {
	ledger, store, clk := newTestLedger()
	ctx := context.Background()

	ids := []string{"a1", "a2", "a1", "a3", "a2", "a1"}
	for _, id := range ids {
		clk.Advance(time.Second)
		if _, err := ledger.ApplyNewOrder(ctx, id, "1", "Soup-"+id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if ledger.Len() != 3 {
		t.Fatalf("expected 3 orders, got %d", ledger.Len())
	}
	if store.saves != 3 {
		t.Errorf("expected duplicates not to write, got %d saves", store.saves)
	}

	// First delivery wins, including its receipt time.
	first, _ := ledger.Get("a1")
	if !first.SubmittedAt.Equal(epoch.Add(time.Second)) {
		t.Errorf("duplicate changed receipt time: %v", first.SubmittedAt)
	}

	want := []string{"a1", "a2", "a3"}
	for i, o := range ledger.Snapshot() {
		if o.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], o.ID)
		}
	}
}

func TestApplyStatusUpdate_UnknownOrderIsNoop(t *testing.T) {
	ledger, store, _ := newTestLedger()
	ctx := context.Background()

	ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	before := ledger.Snapshot()

	applied, err := ledger.ApplyStatusUpdate(ctx, "zzz", domain.StatusReady)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("expected unknown order to be dropped")
	}

	after := ledger.Snapshot()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("ledger changed: before %+v, after %+v", before, after)
	}
	if store.saves != 1 {
		t.Errorf("expected no extra write, got %d saves", store.saves)
	}
}

func TestApplyStatusUpdate_OverwritesVerbatimIncludingRegression(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")

	for _, status := range []domain.Status{"cooking", "ready", "pending", "Cooking", "lost in the walk-in"} {
		if _, err := ledger.ApplyStatusUpdate(ctx, "a1", status); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := ledger.Get("a1")
		if got.Status != status {
			t.Errorf("expected status %q, got %q", status, got.Status)
		}
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	ledger, store, clk := newTestLedger()
	ctx := context.Background()

	ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	clk.Advance(90 * time.Second)
	ledger.ApplyNewOrder(ctx, "a2", "7", "Ramen")
	ledger.ApplyStatusUpdate(ctx, "a1", "cooking")

	reloaded := NewLedger(store, clk)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := ledger.Snapshot()
	got := reloaded.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	// The reloaded ledger keeps deduplicating.
	added, _ := reloaded.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	if added {
		t.Error("expected reloaded ledger to reject known id")
	}
}

func TestClearAll_EmptiesMemoryAndCache(t *testing.T) {
	ledger, store, clk := newTestLedger()
	ctx := context.Background()

	ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	ledger.ApplyNewOrder(ctx, "a2", "6", "Pasta")

	if err := ledger.ClearAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.Len() != 0 {
		t.Errorf("expected empty ledger, got %d", ledger.Len())
	}

	reloaded := NewLedger(store, clk)
	reloaded.Load(ctx)
	if reloaded.Len() != 0 || len(store.snapshot()) != 0 {
		t.Errorf("expected empty cache after reload, got %d orders", reloaded.Len())
	}

	// Previously seen ids are accepted again.
	added, _ := ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	if !added {
		t.Error("expected a1 to be accepted after clear")
	}
}

func TestPersistenceFailure_KeepsMemory(t *testing.T) {
	ledger, store, _ := newTestLedger()
	ctx := context.Background()

	store.saveErr = errors.New("disk full")

	added, err := ledger.ApplyNewOrder(ctx, "a1", "5", "Pizza")
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !added || ledger.Len() != 1 {
		t.Error("expected in-memory ledger to keep the order")
	}

	store.saveErr = nil
	ledger.ApplyStatusUpdate(ctx, "a1", "cooking")
	if got := store.snapshot(); len(got) != 1 || got[0].Status != "cooking" {
		t.Errorf("expected next write to carry full ledger, got %+v", got)
	}
}

func TestLoad_SkipsDuplicateIDs(t *testing.T) {
	store := &memoryStore{orders: []domain.Order{
		{ID: "a1", Table: "1", Item: "Tea", Status: domain.StatusPending, SubmittedAt: epoch},
		{ID: "a1", Table: "2", Item: "Cake", Status: domain.StatusReady, SubmittedAt: epoch},
		{ID: "a2", Table: "3", Item: "Pie", Status: domain.StatusCooking, SubmittedAt: epoch},
	}}
	ledger := NewLedger(store, clock.Fake(epoch))

	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.Len() != 2 {
		t.Fatalf("expected 2 orders, got %d", ledger.Len())
	}
	if o, _ := ledger.Get("a1"); o.Item != "Tea" {
		t.Errorf("expected first occurrence to win, got %+v", o)
	}
}
