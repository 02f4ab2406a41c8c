package service

import "time"

// DefaultReconnectDelays is the wait before each reconnect attempt.
var DefaultReconnectDelays = []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second}

// Backoff walks a fixed delay schedule. After the last entry it keeps
// returning the last delay until Reset.
type Backoff struct {
	delays   []time.Duration
	attempts int
}

func NewBackoff(delays []time.Duration) *Backoff {
	if len(delays) == 0 {
		delays = DefaultReconnectDelays
	}
	d := make([]time.Duration, len(delays))
	copy(d, delays)
	return &Backoff{delays: d}
}

// Next returns the delay for the next attempt and advances the schedule.
func (b *Backoff) Next() time.Duration {
	i := b.attempts
	if i >= len(b.delays) {
		i = len(b.delays) - 1
	}
	b.attempts++
	return b.delays[i]
}

// Reset starts the schedule over after a successful connect.
func (b *Backoff) Reset() { b.attempts = 0 }

// Attempts is the number of delays handed out since the last Reset.
func (b *Backoff) Attempts() int { return b.attempts }

// Exhausted reports whether a full pass of the schedule has been used.
func (b *Backoff) Exhausted() bool { return b.attempts >= len(b.delays) }
