// Package netwatch watches host reachability by dialing a known TCP
// endpoint on an interval.
package netwatch

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/rl1809/kitchen-relay/internal/clock"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/port"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = time.Second
)

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type Config struct {
	Target   string // host:port dialed on every check
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	Dial     DialFunc
	Logger   *slog.Logger
}

// Probe emits NetworkLost when the target stops answering and
// NetworkRestored when it answers again. The network is assumed up until
// the first failed check.
type Probe struct {
	cfg     Config
	signals chan domain.NetworkSignal
}

var _ port.NetworkMonitor = (*Probe)(nil)

func NewProbe(cfg Config) *Probe {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Dial == nil {
		var d net.Dialer
		cfg.Dial = d.DialContext
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Probe{cfg: cfg, signals: make(chan domain.NetworkSignal, 1)}
}

func (p *Probe) Signals() <-chan domain.NetworkSignal { return p.signals }

// Run checks once immediately and then on every interval until ctx is
// done. Signals is closed when Run returns.
func (p *Probe) Run(ctx context.Context) {
	defer close(p.signals)

	ticker := p.cfg.Clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	up := true
	for {
		reachable := p.check(ctx)
		if ctx.Err() != nil {
			return
		}

		if reachable != up {
			up = reachable
			signal := domain.NetworkRestored
			if !up {
				signal = domain.NetworkLost
			}
			p.cfg.Logger.Info("network reachability changed", "target", p.cfg.Target, "signal", signal.String())

			select {
			case p.signals <- signal:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Probe) check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	conn, err := p.cfg.Dial(ctx, "tcp", p.cfg.Target)
	if err != nil {
		p.cfg.Logger.Debug("network probe failed", "target", p.cfg.Target, "error", err)
		return false
	}
	conn.Close()
	return true
}
