package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

var ErrRelayClosed = errors.New("relay closed")

// Subscription is one connected party. Broadcasts arrive on C; C is closed
// on Unsubscribe or when the relay shuts down.
type Subscription struct {
	ID uint64
	C  <-chan domain.Event

	ch chan domain.Event
}

// RelayService fans every inbound call out to all current subscribers. It
// keeps no application state: a party that is not subscribed when a
// broadcast happens never sees it.
type RelayService struct {
	mu          sync.RWMutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	closed      bool

	bufferSize  int
	mirrorQueue chan domain.Event
	logger      *slog.Logger
}

// NewRelayService creates a hub. bufferSize bounds each subscriber's
// backlog; broadcasts to a full subscriber are dropped. A positive
// mirrorQueueSize enables the mirror queue drained via MirrorQueue.
func NewRelayService(bufferSize, mirrorQueueSize int, logger *slog.Logger) *RelayService {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &RelayService{
		subscribers: make(map[uint64]*Subscription),
		bufferSize:  bufferSize,
		logger:      logger,
	}
	if mirrorQueueSize > 0 {
		s.mirrorQueue = make(chan domain.Event, mirrorQueueSize)
	}
	return s
}

func (s *RelayService) Subscribe() (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrRelayClosed
	}

	s.nextID++
	ch := make(chan domain.Event, s.bufferSize)
	sub := &Subscription{ID: s.nextID, C: ch, ch: ch}
	s.subscribers[sub.ID] = sub

	s.logger.Debug("subscriber joined", "subscriber_id", sub.ID, "subscribers", len(s.subscribers))
	return sub, nil
}

func (s *RelayService) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[sub.ID]; !ok {
		return
	}
	delete(s.subscribers, sub.ID)
	close(sub.ch)

	s.logger.Debug("subscriber left", "subscriber_id", sub.ID, "subscribers", len(s.subscribers))
}

func (s *RelayService) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// SubmitOrder broadcasts ReceiveOrder to every subscriber, the sender
// included. Nothing is validated.
func (s *RelayService) SubmitOrder(ctx context.Context, orderID, table, item string) error {
	return s.broadcast(ctx, domain.NewOrderEvent(orderID, table, item))
}

// UpdateStatus broadcasts ReceiveStatusUpdate without checking that the
// order exists or that status is a known value.
func (s *RelayService) UpdateStatus(ctx context.Context, orderID, status string) error {
	return s.broadcast(ctx, domain.NewStatusEvent(orderID, status))
}

func (s *RelayService) broadcast(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrRelayClosed
	}

	delivered := 0
	for id, sub := range s.subscribers {
		select {
		case sub.ch <- event:
			delivered++
		default:
			s.logger.Warn("subscriber backlog full, broadcast dropped",
				"subscriber_id", id, "event", event.Name, "order_id", event.OrderID)
		}
	}

	if s.mirrorQueue != nil {
		select {
		case s.mirrorQueue <- event:
		default:
			s.logger.Warn("mirror queue full, broadcast not mirrored", "event", event.Name, "order_id", event.OrderID)
		}
	}

	s.logger.Debug("broadcast", "event", event.Name, "order_id", event.OrderID,
		"delivered", delivered, "subscribers", len(s.subscribers))
	return nil
}

// MirrorQueue returns the queue of broadcasts to copy to the mirror, or
// nil when mirroring is disabled.
func (s *RelayService) MirrorQueue() <-chan domain.Event {
	return s.mirrorQueue
}

// Close disconnects every subscriber and closes the mirror queue.
func (s *RelayService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subscribers {
		close(sub.ch)
		delete(s.subscribers, id)
	}
	if s.mirrorQueue != nil {
		close(s.mirrorQueue)
	}
}
