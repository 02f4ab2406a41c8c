package service

import (
	"sort"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

const DefaultTopItems = 5

type ItemCount struct {
	Item  string `json:"name"`
	Count int    `json:"count"`
}

// TopItems counts orders per item, highest count first, ties by name.
func TopItems(orders []domain.Order, n int) []ItemCount {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.Item]++
	}

	out := make([]ItemCount, 0, len(counts))
	for item, c := range counts {
		out = append(out, ItemCount{Item: item, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Item < out[j].Item
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Counts splits the ledger into outstanding and completed orders.
func Counts(orders []domain.Order) (active, completed int) {
	for _, o := range orders {
		if o.Status.Terminal() {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}
