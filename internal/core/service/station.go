package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rl1809/kitchen-relay/internal/clock"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
	"github.com/rl1809/kitchen-relay/internal/validation"
)

const DefaultTickInterval = time.Second

var ErrStationStopped = errors.New("station stopped")

// Board is an immutable view of the station published after every
// handled event and tick.
type Board struct {
	Orders []domain.Order
	Active []domain.Ranked
	State  domain.ConnectionState
	At     time.Time
}

type StationConfig struct {
	Ledger     *Ledger
	Controller *Controller
	Network    port.NetworkMonitor // optional
	Clock      clock.Clock
	Tick       time.Duration
	Logger     *slog.Logger

	// OnNewOrder runs on the event loop for every order added to the ledger.
	OnNewOrder func(domain.Order)
}

// Station is one connected party. All ledger mutations, connection state
// transitions and escalation passes run on the single goroutine started by
// Run; outbound calls run on the caller's goroutine.
type Station struct {
	ledger     *Ledger
	controller *Controller
	network    port.NetworkMonitor
	clock      clock.Clock
	tick       time.Duration
	logger     *slog.Logger
	validate   *validatorv10.Validate
	onNewOrder func(domain.Order)

	notices  chan Notice
	commands chan command
	done     chan struct{}
	running  atomic.Bool

	board   atomic.Pointer[Board]
	updates chan Board
	tiers   map[string]domain.Tier
}

type command struct {
	run   func(ctx context.Context) error
	reply chan error
}

func NewStation(cfg StationConfig) *Station {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTickInterval
	}
	s := &Station{
		ledger:     cfg.Ledger,
		controller: cfg.Controller,
		network:    cfg.Network,
		clock:      cfg.Clock,
		tick:       cfg.Tick,
		logger:     cfg.Logger,
		validate:   validation.New(),
		onNewOrder: cfg.OnNewOrder,
		notices:    make(chan Notice, 64),
		commands:   make(chan command),
		done:       make(chan struct{}),
		updates:    make(chan Board, 1),
		tiers:      make(map[string]domain.Tier),
	}
	s.board.Store(&Board{State: domain.Disconnected})
	return s
}

// Run loads the cached ledger, starts the connection and processes events
// until ctx is done. The tick and the connection are both stopped before
// Run returns.
func (s *Station) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("station already running")
	}
	defer close(s.done)

	if err := s.ledger.Load(ctx); err != nil {
		return err
	}
	s.logger.Info("ledger loaded", "orders", s.ledger.Len())

	connCtx, stopConn := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.controller.Run(connCtx, s.notices)
	}()

	ticker := s.clock.NewTicker(s.tick)

	var network <-chan domain.NetworkSignal
	if s.network != nil {
		network = s.network.Signals()
	}

	s.publish()
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			stopConn()
			wg.Wait()
			s.controller.HandleTransport(Notice{Signal: domain.TransportClosed})
			s.publish()
			return nil

		case n := <-s.notices:
			s.handleNotice(ctx, n)

		case sig, ok := <-network:
			if !ok {
				network = nil
				continue
			}
			s.controller.HandleNetwork(sig)

		case <-ticker.C:

		case cmd := <-s.commands:
			cmd.reply <- cmd.run(ctx)
		}
		s.publish()
	}
}

func (s *Station) handleNotice(ctx context.Context, n Notice) {
	if n.Signal != 0 {
		s.controller.HandleTransport(n)
		return
	}

	ev := n.Event
	if ev.Name == domain.EventSubscribed {
		return
	}
	if err := validation.Event(s.validate, ev); err != nil {
		s.logger.Warn("inbound event rejected", "event", ev.Name, "order_id", ev.OrderID,
			"fields", validation.Fields(err))
		return
	}

	switch ev.Name {
	case domain.EventReceiveOrder:
		added, err := s.ledger.ApplyNewOrder(ctx, ev.OrderID, ev.Table, ev.Item)
		if err != nil {
			s.logger.Error("ledger write failed", "order_id", ev.OrderID, "error", err)
		}
		if !added {
			s.logger.Debug("duplicate order ignored", "order_id", ev.OrderID)
			return
		}
		if s.onNewOrder != nil {
			if o, ok := s.ledger.Get(ev.OrderID); ok {
				s.onNewOrder(o)
			}
		}

	case domain.EventReceiveStatusUpdate:
		status := domain.Status(ev.Status)
		applied, err := s.ledger.ApplyStatusUpdate(ctx, ev.OrderID, status)
		if err != nil {
			s.logger.Error("ledger write failed", "order_id", ev.OrderID, "error", err)
		}
		if !applied {
			s.logger.Debug("status update for unknown order dropped", "order_id", ev.OrderID, "status", ev.Status)
			return
		}
		if !status.Known() {
			s.logger.Warn("unrecognized status applied", "order_id", ev.OrderID, "status", ev.Status)
		}
	}
}

func (s *Station) publish() {
	now := s.clock.Now()
	orders := s.ledger.Snapshot()
	active := Rank(orders, now)

	seen := make(map[string]struct{}, len(active))
	for _, r := range active {
		seen[r.Order.ID] = struct{}{}
		if prev, ok := s.tiers[r.Order.ID]; ok && r.Tier > prev {
			s.logger.Info("order escalated", "order_id", r.Order.ID, "table", r.Order.Table,
				"tier", r.Tier.String(), "elapsed", r.Elapsed.Truncate(time.Second))
		}
		s.tiers[r.Order.ID] = r.Tier
	}
	for id := range s.tiers {
		if _, ok := seen[id]; !ok {
			delete(s.tiers, id)
		}
	}

	b := Board{Orders: orders, Active: active, State: s.controller.State(), At: now}
	s.board.Store(&b)

	select {
	case <-s.updates:
	default:
	}
	s.updates <- b
}

// Board returns the latest published view.
func (s *Station) Board() Board { return *s.board.Load() }

// Updates delivers the most recent Board; intermediate boards are skipped
// when the reader is slow.
func (s *Station) Updates() <-chan Board { return s.updates }

// State is the current connection state.
func (s *Station) State() domain.ConnectionState { return s.controller.State() }

// SubmitOrder assigns a new order id and asks the relay to broadcast it.
// The ledger only changes when the broadcast comes back. A failed
// submission is not queued; the caller has to resubmit.
func (s *Station) SubmitOrder(ctx context.Context, table, item string) (string, error) {
	orderID := uuid.NewString()
	err := s.controller.Invoke(ctx, "submitOrder", func(ctx context.Context, relay port.RelayClient) error {
		return relay.SubmitOrder(ctx, orderID, table, item)
	})
	if err != nil {
		return "", err
	}
	return orderID, nil
}

// UpdateStatus asks the relay to broadcast a status change.
func (s *Station) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	return s.controller.Invoke(ctx, "updateStatus", func(ctx context.Context, relay port.RelayClient) error {
		return relay.UpdateStatus(ctx, orderID, string(status))
	})
}

// ClearAll empties the ledger and its cache. Callers confirm with the
// user first; there is no undo.
func (s *Station) ClearAll(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		err := s.ledger.ClearAll(ctx)
		s.logger.Info("ledger cleared")
		return err
	})
}

func (s *Station) do(ctx context.Context, fn func(context.Context) error) error {
	cmd := command{run: fn, reply: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrStationStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
