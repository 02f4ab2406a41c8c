package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rl1809/kitchen-relay/internal/port"
)

func TestFileLedgerStore_Laws(t *testing.T) {
	store, err := NewFileLedgerStore(t.TempDir(), port.CacheName)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	exerciseLedgerStore(t, store)
}

func TestFileLedgerStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, _ := NewFileLedgerStore(dir, port.CacheName)
	want := sampleLedger()
	if err := first.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, _ := NewFileLedgerStore(dir, port.CacheName)
	got, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reopened ledger differs\n got: %+v\nwant: %+v", got, want)
	}

	if filepath.Base(second.Path()) != "kds_orders.json" {
		t.Errorf("unexpected cache file %s", second.Path())
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestFileLedgerStore_ClearMissingFile(t *testing.T) {
	store, _ := NewFileLedgerStore(t.TempDir(), port.CacheName)
	if err := store.Clear(context.Background()); err != nil {
		t.Errorf("clear without cache should succeed, got %v", err)
	}
}

func TestFileLedgerStore_CorruptCache(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileLedgerStore(dir, port.CacheName)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("expected decode error for corrupt cache")
	}
}

func TestFileLedgerStore_CancelledContext(t *testing.T) {
	store, _ := NewFileLedgerStore(t.TempDir(), port.CacheName)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, sampleLedger()); err == nil {
		t.Error("expected error on cancelled context")
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("cancelled save must not write the cache")
	}
}
