package service

import (
	"testing"
	"time"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

func TestTierFor_Boundaries(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    domain.Tier
	}{
		{0, domain.TierNormal},
		{-time.Minute, domain.TierNormal},
		{4*time.Minute + 59*time.Second, domain.TierNormal},
		{5 * time.Minute, domain.TierWarning},
		{9*time.Minute + 59*time.Second, domain.TierWarning},
		{10*time.Minute - time.Nanosecond, domain.TierWarning},
		{10 * time.Minute, domain.TierCritical},
		{3 * time.Hour, domain.TierCritical},
	}
	for _, c := range cases {
		if got := TierFor(c.elapsed); got != c.want {
			t.Errorf("TierFor(%v): expected %v, got %v", c.elapsed, c.want, got)
		}
	}
}

func TestTierFor_Monotonic(t *testing.T) {
	prev := TierFor(0)
	for elapsed := time.Duration(0); elapsed <= 15*time.Minute; elapsed += 7 * time.Second {
		tier := TierFor(elapsed)
		if tier < prev {
			t.Fatalf("tier dropped from %v to %v at %v", prev, tier, elapsed)
		}
		prev = tier
	}
}

func TestRank_OrdersByTierThenAge(t *testing.T) {
	now := epoch.Add(time.Hour)
	orders := []domain.Order{
		{ID: "fresh", Status: domain.StatusPending, SubmittedAt: now.Add(-time.Minute)},
		{ID: "done", Status: domain.StatusReady, SubmittedAt: now.Add(-30 * time.Minute)},
		{ID: "warn-young", Status: domain.StatusCooking, SubmittedAt: now.Add(-6 * time.Minute)},
		{ID: "crit", Status: domain.StatusPending, SubmittedAt: now.Add(-11 * time.Minute)},
		{ID: "warn-old", Status: "burnt", SubmittedAt: now.Add(-8 * time.Minute)},
		{ID: "fresher", Status: domain.StatusPending, SubmittedAt: now.Add(-30 * time.Second)},
	}

	ranked := Rank(orders, now)

	want := []string{"crit", "warn-old", "warn-young", "fresh", "fresher"}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d active orders, got %d", len(want), len(ranked))
	}
	for i, r := range ranked {
		if r.Order.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], r.Order.ID)
		}
	}
	if ranked[0].Tier != domain.TierCritical || ranked[0].Elapsed != 11*time.Minute {
		t.Errorf("unexpected head: %+v", ranked[0])
	}
}

func TestRank_EqualAgeKeepsLedgerOrder(t *testing.T) {
	orders := []domain.Order{
		{ID: "b", Status: domain.StatusPending, SubmittedAt: epoch},
		{ID: "a", Status: domain.StatusPending, SubmittedAt: epoch},
	}
	ranked := Rank(orders, epoch)
	if ranked[0].Order.ID != "b" || ranked[1].Order.ID != "a" {
		t.Errorf("expected ledger order preserved, got %s, %s", ranked[0].Order.ID, ranked[1].Order.ID)
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, epoch); len(got) != 0 {
		t.Errorf("expected empty ranking, got %d", len(got))
	}
}
