package port

import (
	"context"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

type RelayClient interface {
	// Subscribe opens the broadcast stream and returns once the relay has
	// acknowledged the subscription
	Subscribe(ctx context.Context) (EventStream, error)

	// SubmitOrder asks the relay to broadcast ReceiveOrder
	SubmitOrder(ctx context.Context, orderID, table, item string) error

	// UpdateStatus asks the relay to broadcast ReceiveStatusUpdate
	UpdateStatus(ctx context.Context, orderID, status string) error
}

type EventStream interface {
	// Recv blocks until the next broadcast or a stream error
	Recv() (domain.Event, error)
}
