package port

import "github.com/rl1809/kitchen-relay/internal/core/domain"

type NetworkMonitor interface {
	// Signals delivers reachability changes; closed when the monitor stops
	Signals() <-chan domain.NetworkSignal
}
