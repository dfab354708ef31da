package runner

import (
	"log/slog"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the StateStore for persistence.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithKey overrides the persistence key of the node.
func WithKey(key string) Option {
	return func(r *Runner) {
		r.Key = key
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithLifecycleHooks registers observability hooks on the node.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.Hooks = r.Hooks.Merge(hooks)
	}
}

// WithNodeOptions adds raw node options.
func WithNodeOptions(opts ...statenode.Option) Option {
	return func(r *Runner) {
		r.NodeOptions = append(r.NodeOptions, opts...)
	}
}

// WithSignals toggles SIGINT/SIGTERM handling (enabled by NewRunner).
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.Signals = enabled
	}
}
