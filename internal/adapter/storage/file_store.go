package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

// FileLedgerStore keeps the ledger in <dir>/<name>.json. Writes go to a
// temp file first and are renamed into place.
type FileLedgerStore struct {
	path string
}

func NewFileLedgerStore(dir, name string) (*FileLedgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileLedgerStore{path: filepath.Join(dir, name+".json")}, nil
}

func (f *FileLedgerStore) Path() string { return f.path }

func (f *FileLedgerStore) Save(ctx context.Context, orders []domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeLedger(orders)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (f *FileLedgerStore) Load(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return decodeLedger(data)
}

func (f *FileLedgerStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove ledger: %w", err)
	}
	return nil
}
