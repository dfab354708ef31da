package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/internal/logging"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/ports"
)

// Runner drives one node from an IOHandler until the input ends.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on stdin/stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store is the persistence adapter. If nil, state is not persisted.
	Store ports.StateStore

	// Key overrides the persistence key.
	Key string

	Hooks       domain.LifecycleHooks
	NodeOptions []statenode.Option

	// Signals stops the loop gracefully on SIGINT/SIGTERM.
	Signals bool
}

// NewRunner creates a new Runner with signal handling enabled.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:  logging.NewNop(),
		Signals: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds a node from cfg and processes triggers until end of input or
// cancellation, both of which end the loop without error.
// Rejected or invalid triggers are reported through the handler and do not stop the loop.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) error {
	handler := r.resolveHandler()
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if r.Signals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	node, err := statenode.New(ctx, cfg, r.nodeOptions(ctx, handler, logger)...)
	if err != nil {
		_ = handler.Error(ctx, err)
		return err
	}
	defer node.Close()

	if err := node.Start(ctx); err != nil {
		return err
	}

	for {
		raw, err := handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				logger.Debug("runner stopped", "state", node.State())
				return nil
			}
			r.report(ctx, handler, logger, err)
			continue
		}

		trigger, err := CleanTrigger(raw)
		if err != nil {
			r.report(ctx, handler, logger, err)
			continue
		}
		if trigger == "" {
			continue
		}

		if _, err := node.Trigger(ctx, trigger); err != nil {
			if errors.Is(err, domain.ErrNodeClosed) {
				return nil
			}
			r.report(ctx, handler, logger, err)
		}
	}
}

func (r *Runner) nodeOptions(ctx context.Context, handler IOHandler, logger *slog.Logger) []statenode.Option {
	opts := []statenode.Option{
		statenode.WithLogger(logger),
		statenode.WithSink(statenode.SinkFunc(handler.Output)),
		statenode.WithLifecycleHooks(r.Hooks),
		statenode.WithStatusReporter(func(s domain.Status) {
			if err := handler.Status(ctx, s); err != nil {
				logger.Warn("failed to write status", "err", err)
			}
		}),
	}
	if r.Store != nil {
		opts = append(opts, statenode.WithStore(r.Store))
	}
	if r.Key != "" {
		opts = append(opts, statenode.WithKey(r.Key))
	}
	return append(opts, r.NodeOptions...)
}

func (r *Runner) report(ctx context.Context, handler IOHandler, logger *slog.Logger, err error) {
	logger.Debug("trigger failed", "err", err)
	if werr := handler.Error(ctx, err); werr != nil {
		logger.Warn("failed to write error", "err", werr)
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r.Handler
}
