package cli

import (
	"context"
	"io"
	"strings"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/internal/presentation/tui"
	"github.com/aretw0/statenode/pkg/runner"
	"github.com/muesli/termenv"
)

// IO is the set of streams a command talks through.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	Options

	// JSON switches to JSON lines on stdin/stdout.
	JSON bool

	// Key overrides the persistence key.
	Key string

	// Fresh deletes the saved state before starting.
	Fresh bool

	// Interactive prints the banner and a colored status line on Err.
	Interactive bool
	Profile     termenv.Profile
}

// Run drives one node from the input stream until it ends or the context is cancelled.
func Run(ctx context.Context, opts RunOptions, streams IO) error {
	logger, err := NewLogger(opts.Options, streams.Err)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(ctx, opts.Options)
	if err != nil {
		return err
	}

	backend, err := OpenBackend(opts.Options)
	if err != nil {
		return err
	}
	defer backend.Close()

	key := opts.Key
	if key == "" {
		key = cfg.Key()
	}
	if opts.Fresh {
		if err := backend.Store.Delete(ctx, key); err != nil {
			logger.Warn("failed to reset state", "key", key, "err", err)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(streams.In, streams.Out, streams.Err, cfg)
	} else {
		textOpts := []runner.TextHandlerOption{runner.WithErrorWriter(streams.Err)}
		if opts.Interactive {
			textOpts = append(textOpts, runner.WithStatusOutput(streams.Err, opts.Profile))
		}
		handler = runner.NewTextHandler(streams.In, streams.Out, textOpts...)
	}

	if opts.Interactive && !opts.JSON {
		tui.PrintBanner(streams.Err, opts.Profile)
		printSystemMessage(streams.Err, "statenode %s: machine '%s' (key '%s')", strings.TrimSpace(statenode.Version), cfg.Name, key)
	}

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithStore(backend.Store),
		runner.WithKey(key),
		runner.WithInputHandler(handler),
		runner.WithLifecycleHooks(auditHooks(ctx, logger)),
	)
	return handleExecutionError(r.Run(ctx, cfg))
}
