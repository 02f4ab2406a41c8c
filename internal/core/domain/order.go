package domain

import "time"

// Status is the preparation state of an order as carried on the wire.
// Any string is accepted; Kind classifies it into the known progression
// or StatusOther.
type Status string

const (
	StatusPending Status = "pending"
	StatusCooking Status = "cooking"
	StatusReady   Status = "ready"
)

// StatusKind tags a Status value.
type StatusKind int

const (
	StatusKindOther StatusKind = iota
	StatusKindPending
	StatusKindCooking
	StatusKindReady
)

// Kind matches exactly; "Cooking" or "READY" are StatusKindOther.
func (s Status) Kind() StatusKind {
	switch s {
	case StatusPending:
		return StatusKindPending
	case StatusCooking:
		return StatusKindCooking
	case StatusReady:
		return StatusKindReady
	default:
		return StatusKindOther
	}
}

// Known reports whether s is one of the three progression values.
func (s Status) Known() bool { return s.Kind() != StatusKindOther }

// Terminal reports whether the order is finished.
func (s Status) Terminal() bool { return s.Kind() == StatusKindReady }

func (k StatusKind) String() string {
	switch k {
	case StatusKindPending:
		return "pending"
	case StatusKindCooking:
		return "cooking"
	case StatusKindReady:
		return "ready"
	default:
		return "other"
	}
}

// Order is one ticket in a station's ledger.
type Order struct {
	ID          string
	Table       string
	Item        string
	Status      Status
	SubmittedAt time.Time // local receipt instant, UTC
}

// DisplayTime is the short wall-clock label shown next to a ticket.
func (o Order) DisplayTime() string {
	return o.SubmittedAt.Local().Format("15:04")
}
