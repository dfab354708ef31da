package statenode

import (
	"context"
	"log/slog"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/ports"
)

// Sink receives the outputs of a node.
type Sink interface {
	Emit(ctx context.Context, out domain.Output) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, out domain.Output) error

func (f SinkFunc) Emit(ctx context.Context, out domain.Output) error {
	return f(ctx, out)
}

// StatusReporter receives the status after construction and after every event.
// It is called while the node is locked and must not call back into it.
type StatusReporter func(domain.Status)

// Option defines a functional option for configuring a Node.
type Option func(*Node)

// WithStore configures the StateStore used to restore and checkpoint the state.
func WithStore(store ports.StateStore) Option {
	return func(n *Node) {
		n.store = store
	}
}

// WithKey overrides the persistence key (default: config.Key()).
func WithKey(key string) Option {
	return func(n *Node) {
		n.key = key
	}
}

// WithSink configures where outputs are emitted.
func WithSink(sink Sink) Option {
	return func(n *Node) {
		n.sink = sink
	}
}

// WithStatusReporter registers a status callback.
func WithStatusReporter(r StatusReporter) Option {
	return func(n *Node) {
		n.reporter = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Node) {
		n.hooks = n.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the node.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		n.logger = logger
	}
}
