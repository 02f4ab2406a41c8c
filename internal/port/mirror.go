package port

import (
	"context"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

type BroadcastMirror interface {
	// Publish copies a relay broadcast to an external sink
	Publish(ctx context.Context, event domain.Event) error
}
