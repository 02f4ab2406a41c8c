package domain

import (
	"errors"
	"fmt"
)

// ErrOffline rejects an outbound call made while the station is not
// connected. No network attempt is made.
var ErrOffline = errors.New("offline")

// TransportError is an outbound relay call that was attempted and failed.
// The call is not retried; the caller must resubmit.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("relay %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError is a failed durable cache write. The in-memory ledger
// keeps the mutation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist ledger after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
