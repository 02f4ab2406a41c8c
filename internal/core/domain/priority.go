package domain

import "time"

// Tier is the urgency of an outstanding order. Ordered: Normal < Warning < Critical.
type Tier int

const (
	TierNormal Tier = iota
	TierWarning
	TierCritical
)

const (
	WarningAfter  = 5 * time.Minute
	CriticalAfter = 10 * time.Minute
)

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Ranked is an active order with its derived tier. Never persisted.
type Ranked struct {
	Order   Order
	Tier    Tier
	Elapsed time.Duration
}
