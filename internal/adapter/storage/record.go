package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

// orderRecord is the cached form of an Order. Time is the display label
// only; SubmittedAt is what gets read back.
type orderRecord struct {
	ID          string `json:"id"`
	Table       string `json:"table"`
	Item        string `json:"item"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
	Time        string `json:"time"`
}

func encodeLedger(orders []domain.Order) ([]byte, error) {
	records := make([]orderRecord, len(orders))
	for i, o := range orders {
		records[i] = orderRecord{
			ID:          o.ID,
			Table:       o.Table,
			Item:        o.Item,
			Status:      string(o.Status),
			SubmittedAt: o.SubmittedAt.UTC().Format(time.RFC3339Nano),
			Time:        o.DisplayTime(),
		}
	}
	return json.Marshal(records)
}

func decodeLedger(data []byte) ([]domain.Order, error) {
	if len(data) == 0 {
		return []domain.Order{}, nil
	}

	var records []orderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	orders := make([]domain.Order, 0, len(records))
	for _, r := range records {
		submittedAt, err := time.Parse(time.RFC3339Nano, r.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("decode order %q: %w", r.ID, err)
		}
		orders = append(orders, domain.Order{
			ID:          r.ID,
			Table:       r.Table,
			Item:        r.Item,
			Status:      domain.Status(r.Status),
			SubmittedAt: submittedAt.UTC(),
		})
	}
	return orders, nil
}
