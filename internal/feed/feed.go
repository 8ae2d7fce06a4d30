// Package feed maintains a self-healing stream of normalized chain state
// events. It multiplexes four subscription groups over one websocket
// session, merges them into a single event channel, and reconnects from
// scratch whenever the session dies.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"chainfeed/internal/chain"
	"chainfeed/internal/model"
)

// DefaultIdleTimeout is how long the session tolerates total silence. The
// websocket has no heartbeat, and a healthy node emits slot updates roughly
// every second, so a minute without any notification means the link is dead.
const DefaultIdleTimeout = 60 * time.Second

// Config describes one feed: the two program subscriptions, the per-account
// subscriptions, and the transport dialer.
type Config struct {
	// Program receives an unfiltered program-accounts subscription.
	Program solana.PublicKey
	// ScopedProgram receives a program-accounts subscription narrowed by
	// ScopedFilters.
	ScopedProgram solana.PublicKey
	ScopedFilters []rpc.RPCFilter
	// TrackedAccounts each get an individual account subscription.
	TrackedAccounts []solana.PublicKey

	IdleTimeout time.Duration

	// Dial opens a fresh transport session. Called once per connection
	// attempt; handles are never reused across attempts.
	Dial func(ctx context.Context) (chain.Session, error)
}

// Feed drives the reconnect loop and owns the outbound event channel for
// the lifetime of the process.
type Feed struct {
	cfg    Config
	out    chan<- model.Event
	logger *zap.Logger
}

// New builds a Feed writing events to out.
func New(cfg Config, out chan<- model.Event, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Feed{cfg: cfg, out: out, logger: logger}
}

// Start launches the feed and returns immediately. The feed runs until ctx
// ends and communicates only through out, which it closes on shutdown.
func Start(ctx context.Context, cfg Config, out chan<- model.Event, logger *zap.Logger) {
	go New(cfg, out, logger).Run(ctx)
}

// Run executes sessions back to back until ctx ends. Failures are absorbed
// here and never escalate: the dominant failure mode is a transient network
// drop, so the next attempt starts immediately, with entirely fresh
// subscription handles.
func (f *Feed) Run(ctx context.Context) {
	defer close(f.out)
	for {
		if ctx.Err() != nil {
			return
		}
		f.logger.Info("connecting to node websocket streams")
		err := f.runSession(ctx)
		switch {
		case err == nil:
			// Clean end: a stream closed or the idle timeout fired,
			// both already logged by the session.
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		default:
			f.logger.Error("session failed", zap.Error(err))
		}
	}
}
