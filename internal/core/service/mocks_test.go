package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

var (
	epoch          = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	errUnreachable = errors.New("relay unreachable")
)

// Mock LedgerStore
type memoryStore struct {
	mu      sync.Mutex
	orders  []domain.Order
	saves   int
	clears  int
	saveErr error
}

func (m *memoryStore) Save(ctx context.Context, orders []domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.orders = append([]domain.Order(nil), orders...)
	m.saves++
	return nil
}

func (m *memoryStore) Load(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Order(nil), m.orders...), nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = nil
	m.clears++
	return nil
}

func (m *memoryStore) snapshot() []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Order(nil), m.orders...)
}

// localRelay connects a station straight to an in-process RelayService.
// cut simulates the station losing its transport.
type localRelay struct {
	hub *RelayService

	mu    sync.Mutex
	down  bool
	sub   *Subscription
	calls int
}

func (r *localRelay) Subscribe(ctx context.Context) (port.EventStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.down {
		return nil, errUnreachable
	}
	sub, err := r.hub.Subscribe()
	if err != nil {
		return nil, err
	}
	r.sub = sub
	return &localStream{ctx: ctx, sub: sub, hub: r.hub}, nil
}

func (r *localRelay) SubmitOrder(ctx context.Context, orderID, table, item string) error {
	if r.isDown() {
		return errUnreachable
	}
	return r.hub.SubmitOrder(ctx, orderID, table, item)
}

func (r *localRelay) UpdateStatus(ctx context.Context, orderID, status string) error {
	if r.isDown() {
		return errUnreachable
	}
	return r.hub.UpdateStatus(ctx, orderID, status)
}

func (r *localRelay) isDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

func (r *localRelay) cut() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = true
	if r.sub != nil {
		r.hub.Unsubscribe(r.sub)
		r.sub = nil
	}
}

func (r *localRelay) restore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = false
}

type localStream struct {
	ctx context.Context
	sub *Subscription
	hub *RelayService
}

func (s *localStream) Recv() (domain.Event, error) {
	select {
	case ev, ok := <-s.sub.C:
		if !ok {
			return domain.Event{}, io.EOF
		}
		return ev, nil
	case <-s.ctx.Done():
		s.hub.Unsubscribe(s.sub)
		return domain.Event{}, s.ctx.Err()
	}
}

// scriptedRelay answers Subscribe from a script of errors; a nil entry
// connects and returns a stream fed by the events channel. Once the
// script runs out every Subscribe fails.
type scriptedRelay struct {
	mu      sync.Mutex
	script  []error
	calls   int
	events  chan domain.Event
	breaker chan error
	invoked int
}

func newScriptedRelay(script ...error) *scriptedRelay {
	return &scriptedRelay{
		script:  script,
		events:  make(chan domain.Event, 16),
		breaker: make(chan error, 1),
	}
}

func (r *scriptedRelay) Subscribe(ctx context.Context) (port.EventStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if len(r.script) == 0 {
		return nil, errUnreachable
	}
	err := r.script[0]
	r.script = r.script[1:]
	if err != nil {
		return nil, err
	}
	return &scriptedStream{ctx: ctx, relay: r}, nil
}

func (r *scriptedRelay) SubmitOrder(ctx context.Context, orderID, table, item string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoked++
	return nil
}

func (r *scriptedRelay) UpdateStatus(ctx context.Context, orderID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoked++
	return nil
}

func (r *scriptedRelay) subscribeCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type scriptedStream struct {
	ctx   context.Context
	relay *scriptedRelay
}

func (s *scriptedStream) Recv() (domain.Event, error) {
	select {
	case ev := <-s.relay.events:
		return ev, nil
	case err := <-s.relay.breaker:
		return domain.Event{}, err
	case <-s.ctx.Done():
		return domain.Event{}, s.ctx.Err()
	}
}

type chanNetwork struct{ ch chan domain.NetworkSignal }

func (n *chanNetwork) Signals() <-chan domain.NetworkSignal { return n.ch }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func recvNotice(t *testing.T, notices <-chan Notice) Notice {
	t.Helper()
	select {
	case n := <-notices:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notice")
		return Notice{}
	}
}
