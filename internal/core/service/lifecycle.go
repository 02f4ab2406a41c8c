package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/kitchen-relay/internal/clock"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

// Notice is what the connector hands to the event loop: either a
// transport lifecycle signal or a relay broadcast, never both.
type Notice struct {
	Signal  domain.TransportSignal
	Event   domain.Event
	Attempt int
	Delay   time.Duration // wait before the next attempt, for TransportFailed/Exhausted
	Err     error

	// Session is the connection generation the signal belongs to. Losing
	// the network starts a new generation; older signals are ignored.
	Session uint64
}

// Controller owns one logical connection to the relay. Run drives the
// connection in its own goroutine; HandleTransport and HandleNetwork
// apply state transitions and must only be called from the event loop.
// State and Invoke are safe from any goroutine.
type Controller struct {
	relay  port.RelayClient
	clock  clock.Clock
	delays []time.Duration
	logger *slog.Logger

	state       atomic.Int32
	networkDown atomic.Bool
	generation  atomic.Uint64
	kick        chan struct{}

	mu            sync.Mutex
	cancelSession context.CancelFunc
}

func NewController(relay port.RelayClient, clk clock.Clock, delays []time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if len(delays) == 0 {
		delays = DefaultReconnectDelays
	}
	c := &Controller{
		relay:  relay,
		clock:  clk,
		delays: delays,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}
	c.state.Store(int32(domain.Disconnected))
	return c
}

func (c *Controller) State() domain.ConnectionState {
	return domain.ConnectionState(c.state.Load())
}

// Invoke runs call only while Connected. Otherwise it fails with
// domain.ErrOffline without touching the network. A failed call comes
// back as *domain.TransportError and is not retried.
func (c *Controller) Invoke(ctx context.Context, op string, call func(context.Context, port.RelayClient) error) error {
	if c.State() != domain.Connected {
		return fmt.Errorf("%s: %w", op, domain.ErrOffline)
	}
	if err := call(ctx, c.relay); err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	return nil
}

// Run connects, pumps broadcasts into notices and reconnects on the
// backoff schedule until ctx is done. It never gives up on its own.
func (c *Controller) Run(ctx context.Context, notices chan<- Notice) {
	backoff := NewBackoff(c.delays)

	for {
		select {
		case <-c.clock.After(backoff.Next()):
		case <-c.kick:
		case <-ctx.Done():
			return
		}

		for c.networkDown.Load() {
			select {
			case <-c.kick:
			case <-ctx.Done():
				return
			}
		}

		gen := c.generation.Load()
		attempt := backoff.Attempts()
		if !c.emit(ctx, notices, Notice{Signal: domain.TransportConnecting, Attempt: attempt, Session: gen}) {
			return
		}

		session, cancel := context.WithCancel(ctx)
		c.setSession(gen, cancel)

		stream, err := c.relay.Subscribe(session)
		if err != nil {
			cancel()
			if ctx.Err() != nil {
				return
			}
			signal := domain.TransportFailed
			if backoff.Exhausted() {
				signal = domain.TransportExhausted
			}
			next := c.peekDelay(backoff)
			if !c.emit(ctx, notices, Notice{Signal: signal, Attempt: attempt, Delay: next, Err: err, Session: gen}) {
				return
			}
			continue
		}

		backoff.Reset()
		if !c.emit(ctx, notices, Notice{Signal: domain.TransportConnected, Attempt: attempt, Session: gen}) {
			cancel()
			return
		}

		err = c.pump(ctx, stream, notices)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if !c.emit(ctx, notices, Notice{Signal: domain.TransportLost, Err: err, Session: gen}) {
			return
		}
	}
}

func (c *Controller) pump(ctx context.Context, stream port.EventStream, notices chan<- Notice) error {
	for {
		event, err := stream.Recv()
		if err != nil {
			return err
		}
		if !c.emit(ctx, notices, Notice{Event: event}) {
			return ctx.Err()
		}
	}
}

func (c *Controller) emit(ctx context.Context, notices chan<- Notice, n Notice) bool {
	select {
	case notices <- n:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) peekDelay(b *Backoff) time.Duration {
	i := b.Attempts()
	if i >= len(c.delays) {
		i = len(c.delays) - 1
	}
	return c.delays[i]
}

// setSession records the cancel func of the current attempt. An attempt
// that started before the latest network loss is cancelled at once.
func (c *Controller) setSession(gen uint64, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelSession = cancel
	if gen != c.generation.Load() {
		cancel()
	}
}

func (c *Controller) dropSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation.Add(1)
	if c.cancelSession != nil {
		c.cancelSession()
	}
}

// HandleTransport applies a connector signal. Signals from a session
// abandoned by a network loss are ignored; only NetworkRestored lifts the
// forced disconnect.
func (c *Controller) HandleTransport(n Notice) domain.ConnectionState {
	from := c.State()
	if n.Signal != domain.TransportClosed && n.Session != c.generation.Load() {
		c.logger.Debug("stale transport signal ignored", "signal", n.Signal.String(),
			"session", n.Session, "state", from.String())
		return from
	}
	to := nextTransportState(from, n.Signal, c.networkDown.Load())
	c.state.Store(int32(to))

	attrs := []any{"signal", n.Signal.String(), "from", from.String(), "to", to.String()}
	if n.Attempt > 0 {
		attrs = append(attrs, "attempt", n.Attempt)
	}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err, "next_delay", n.Delay)
	}
	if from != to {
		c.logger.Info("connection state changed", attrs...)
	} else {
		c.logger.Debug("transport signal", attrs...)
	}
	return to
}

// HandleNetwork applies a host reachability change. Losing the network
// forces Disconnected at once and abandons the current session; getting
// it back moves to Reconnecting and wakes the connector.
func (c *Controller) HandleNetwork(signal domain.NetworkSignal) domain.ConnectionState {
	from := c.State()
	var to domain.ConnectionState

	switch signal {
	case domain.NetworkLost:
		c.networkDown.Store(true)
		to = domain.Disconnected
		c.state.Store(int32(to))
		c.dropSession()
	case domain.NetworkRestored:
		c.networkDown.Store(false)
		to = from
		if from != domain.Connected {
			to = domain.Reconnecting
		}
		c.state.Store(int32(to))
		select {
		case c.kick <- struct{}{}:
		default:
		}
	default:
		return from
	}

	c.logger.Info("network signal", "signal", signal.String(), "from", from.String(), "to", to.String())
	return to
}

func nextTransportState(cur domain.ConnectionState, signal domain.TransportSignal, networkDown bool) domain.ConnectionState {
	switch signal {
	case domain.TransportConnecting:
		if networkDown {
			return domain.Disconnected
		}
		switch cur {
		case domain.Disconnected:
			return domain.Connecting
		case domain.Connected:
			return domain.Reconnecting
		default:
			return cur
		}
	case domain.TransportConnected:
		if networkDown {
			return domain.Disconnected
		}
		return domain.Connected
	case domain.TransportLost:
		if cur != domain.Connected {
			return cur
		}
		if networkDown {
			return domain.Disconnected
		}
		return domain.Reconnecting
	case domain.TransportFailed:
		// A first connect that fails reports Disconnected right away;
		// automatic retries keep Reconnecting until the schedule runs out.
		if cur == domain.Connecting {
			return domain.Disconnected
		}
		return cur
	case domain.TransportExhausted, domain.TransportClosed:
		return domain.Disconnected
	default:
		return cur
	}
}
