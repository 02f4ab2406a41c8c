package relayclient

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/kitchen-relay/internal/adapter/handler/pb"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

const DefaultCallTimeout = 5 * time.Second

// Client talks to the relay over gRPC. The connection is established
// lazily; every call fails fast while the relay is unreachable.
type Client struct {
	conn        *grpc.ClientConn
	rpc         pb.RelayClient
	name        string
	callTimeout time.Duration
}

var _ port.RelayClient = (*Client)(nil)

// Dial prepares a client for target. name identifies this station in the
// relay's logs. Extra options are applied after the defaults.
func Dial(target, name string, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
	}
	conn, err := grpc.NewClient(target, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", target, err)
	}
	return &Client{
		conn:        conn,
		rpc:         pb.NewRelayClient(conn),
		name:        name,
		callTimeout: DefaultCallTimeout,
	}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Subscribe opens the broadcast stream and waits for the relay to confirm
// the registration. The stream lives until ctx is cancelled or the relay
// drops it.
func (c *Client) Subscribe(ctx context.Context) (port.EventStream, error) {
	stream, err := c.rpc.Subscribe(ctx, &pb.SubscribeRequest{ClientName: c.name})
	if err != nil {
		return nil, err
	}

	first, err := stream.Recv()
	if err != nil {
		return nil, fmt.Errorf("await subscription: %w", err)
	}
	if first.Name != domain.EventSubscribed {
		return nil, fmt.Errorf("await subscription: unexpected %q", first.Name)
	}
	return &eventStream{stream: stream}, nil
}

func (c *Client) SubmitOrder(ctx context.Context, orderID, table, item string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.rpc.SubmitOrder(ctx, &pb.SubmitOrderRequest{OrderId: orderID, Table: table, Item: item})
	return err
}

func (c *Client) UpdateStatus(ctx context.Context, orderID, status string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.rpc.UpdateStatus(ctx, &pb.UpdateStatusRequest{OrderId: orderID, Status: status})
	return err
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

type eventStream struct {
	stream grpc.ServerStreamingClient[pb.RelayEvent]
}

func (s *eventStream) Recv() (domain.Event, error) {
	ev, err := s.stream.Recv()
	if err != nil {
		return domain.Event{}, err
	}
	return ev.ToEvent(), nil
}
