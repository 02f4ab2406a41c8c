package service

import (
	"sort"
	"time"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

// TierFor classifies an elapsed wait.
func TierFor(elapsed time.Duration) domain.Tier {
	switch {
	case elapsed >= domain.CriticalAfter:
		return domain.TierCritical
	case elapsed >= domain.WarningAfter:
		return domain.TierWarning
	default:
		return domain.TierNormal
	}
}

// Rank returns every order that is not ready, most urgent first. Equal
// tiers are ordered oldest first, then by ledger position.
func Rank(orders []domain.Order, now time.Time) []domain.Ranked {
	ranked := make([]domain.Ranked, 0, len(orders))
	for _, o := range orders {
		if o.Status.Terminal() {
			continue
		}
		elapsed := now.Sub(o.SubmittedAt)
		ranked = append(ranked, domain.Ranked{Order: o, Tier: TierFor(elapsed), Elapsed: elapsed})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Tier != ranked[j].Tier {
			return ranked[i].Tier > ranked[j].Tier
		}
		return ranked[i].Order.SubmittedAt.Before(ranked[j].Order.SubmittedAt)
	})
	return ranked
}
