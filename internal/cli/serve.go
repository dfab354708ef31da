package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/statenode"
	httpadapter "github.com/aretw0/statenode/pkg/adapters/http"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/observability"
	"github.com/aretw0/statenode/pkg/session"
)

// ShutdownTimeout bounds the graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// ServeOptions contains the configuration of the serve command.
type ServeOptions struct {
	Options

	Addr string

	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool
}

// sessionStack is everything a long-running server needs around a session manager.
type sessionStack struct {
	Config   *config.Config
	Sessions *session.Manager
	Backend  *Backend
	Metrics  *observability.Metrics
	Streams  *httpadapter.StreamManager
}

func (s *sessionStack) Close() error {
	return errors.Join(s.Sessions.Close(), s.Backend.Close())
}

func newSessionStack(ctx context.Context, opts Options, logger *slog.Logger, withMetrics bool) (*sessionStack, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	backend, err := OpenBackend(opts)
	if err != nil {
		return nil, err
	}

	stack := &sessionStack{
		Config:  cfg,
		Backend: backend,
		Streams: httpadapter.NewStreamManager(httpadapter.WithStreamLogger(logger)),
	}

	hooks := auditHooks(ctx, logger)
	if withMetrics {
		stack.Metrics = observability.NewMetrics()
		hooks = hooks.Merge(stack.Metrics.Hooks())
	}

	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithNodeOptions(
			statenode.WithSink(stack.Streams),
			statenode.WithLifecycleHooks(hooks),
		),
	}
	if backend.Locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(backend.Locker))
	}
	stack.Sessions = session.NewManager(cfg, backend.Store, managerOpts...)
	return stack, nil
}

// NewServeHandler builds the HTTP handler of the serve command.
// The returned close func stops every session and releases the backend.
func NewServeHandler(ctx context.Context, opts ServeOptions, logger *slog.Logger) (http.Handler, func() error, error) {
	stack, err := newSessionStack(ctx, opts.Options, logger, opts.Metrics)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := []httpadapter.Option{
		httpadapter.WithStreams(stack.Streams),
		httpadapter.WithLogger(logger),
	}
	if stack.Metrics != nil {
		handlerOpts = append(handlerOpts, httpadapter.WithMetrics(stack.Metrics.Handler()))
	}
	return httpadapter.NewHandler(stack.Sessions, handlerOpts...), stack.Close, nil
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions, streams IO) error {
	logger, err := NewLogger(opts.Options, streams.Err)
	if err != nil {
		return err
	}

	handler, closeStack, err := NewServeHandler(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer closeStack()

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(streams.Err, "Starting statenode server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		printSystemMessage(streams.Err, "Shutting down server...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		printSystemMessage(streams.Err, "Server stopped gracefully")
		return nil
	}
}
