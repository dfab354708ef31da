package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/statenode/internal/presentation/graph"
	"github.com/aretw0/statenode/internal/presentation/tui"
	"github.com/aretw0/statenode/internal/validator"
	"github.com/aretw0/statenode/pkg/domain"
)

// ErrInvalidMachine is returned by Validate when the report carries issues.
var ErrInvalidMachine = errors.New("machine has issues")

// Validate loads the configuration and prints the validation report.
// Strict turns warnings into ErrInvalidMachine.
func Validate(ctx context.Context, opts Options, w io.Writer, strict bool) error {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return err
	}
	report, err := validator.Validate(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "machine '%s': %d states, initial '%s'\n", report.Machine, report.States, report.Initial)
	fmt.Fprintln(w, report.Summary())
	if strict && !report.OK() {
		return ErrInvalidMachine
	}
	return nil
}

// Describe prints a markdown description of the machine through render.
// Pass tui.PlainRenderer when the output is not a terminal.
func Describe(ctx context.Context, opts Options, w io.Writer, render func(string) (string, error)) error {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return err
	}
	report, err := validator.Validate(cfg)
	if err != nil {
		return err
	}
	if render == nil {
		render = tui.PlainRenderer
	}

	out, err := render(tui.Describe(cfg.Definition(), report))
	if err != nil {
		return fmt.Errorf("failed to render description: %w", err)
	}
	fmt.Fprint(w, out)
	return nil
}

// Graph prints the Mermaid diagram of the machine. With a session ID the
// session's current state is highlighted.
func Graph(ctx context.Context, opts Options, w io.Writer, sessionID string) error {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	if sessionID != "" {
		backend, err := OpenBackend(opts)
		if err != nil {
			return err
		}
		defer backend.Close()

		snap, err := backend.Store.Load(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrStateNotFound):
			return fmt.Errorf("session '%s' not found", sessionID)
		case err != nil:
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}
		overlay = &graph.GraphOverlay{CurrentState: snap.State}
	}

	fmt.Fprint(w, graph.GenerateMermaid(cfg.Definition(), overlay))
	return nil
}
