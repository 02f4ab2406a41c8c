package storage

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

func sampleLedger() []domain.Order {
	base := time.Date(2026, 3, 14, 18, 0, 0, 123456789, time.UTC)
	return []domain.Order{
		{ID: "o-1", Table: "T1", Item: "Pho", Status: domain.StatusReady, SubmittedAt: base},
		{ID: "o-2", Table: "T2", Item: "Banh mi", Status: domain.StatusCooking, SubmittedAt: base.Add(90 * time.Second)},
		{ID: "o-3", Table: "T2", Item: "Tea", Status: domain.Status("Cooking"), SubmittedAt: base.Add(3 * time.Minute)},
		{ID: "o-4", Table: "", Item: "", Status: domain.StatusPending, SubmittedAt: base.Add(4 * time.Minute)},
	}
}

// exerciseLedgerStore runs the persistence laws every backend must hold.
func exerciseLedgerStore(t *testing.T, store port.LedgerStore) {
	t.Helper()
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("initial clear: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty ledger, got %d orders", len(got))
	}

	want := sampleLedger()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}

	// Save overwrites rather than appends.
	if err := store.Save(ctx, want[:1]); err != nil {
		t.Fatalf("save subset: %v", err)
	}
	got, _ = store.Load(ctx)
	if len(got) != 1 || got[0].ID != "o-1" {
		t.Errorf("expected only o-1 after overwrite, got %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty ledger after clear, got %+v", got)
	}
}
