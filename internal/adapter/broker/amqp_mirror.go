// Package broker mirrors relay broadcasts onto RabbitMQ so that other
// systems can observe the ticket stream without joining the relay.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

const DefaultExchange = "kitchen_relay_fanout"

var ErrNotConfirmed = errors.New("broker did not confirm publish")

// MirrorMessage is the body published for every broadcast.
type MirrorMessage struct {
	Event     string    `json:"event"`
	OrderID   string    `json:"order_id"`
	Table     string    `json:"table,omitempty"`
	Item      string    `json:"item,omitempty"`
	Status    string    `json:"status,omitempty"`
	RelayedAt time.Time `json:"relayed_at"`
}

// AMQPMirror publishes to a durable fanout exchange with publisher
// confirms enabled. Publish blocks until the broker confirms.
type AMQPMirror struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	mu  sync.Mutex
	seq uint64
}

var _ port.BroadcastMirror = (*AMQPMirror)(nil)

func Dial(url, exchange string) (*AMQPMirror, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &AMQPMirror{conn: conn, ch: ch, exchange: exchange}, nil
}

func (m *AMQPMirror) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(MirrorMessage{
		Event:     event.Name,
		OrderID:   event.OrderID,
		Table:     event.Table,
		Item:      event.Item,
		Status:    event.Status,
		RelayedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal mirror message: %w", err)
	}

	m.mu.Lock()
	m.seq++
	pub := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		MessageId:    strconv.FormatUint(m.seq, 10),
		Type:         event.Name,
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			"x-source": "kitchen-relay",
		},
	}
	confirm, err := m.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		m.exchange,
		"",    // fanout ignores routing key
		false, // mandatory
		false, // immediate
		pub,
	)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Name, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

func (m *AMQPMirror) Close() error {
	if err := m.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		m.conn.Close()
		return err
	}
	return m.conn.Close()
}
