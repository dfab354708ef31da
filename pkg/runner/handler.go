package runner

import (
	"context"

	"github.com/aretw0/statenode/pkg/domain"
)

// IOHandler defines how the runner talks to its host.
// This allows switching between Text (CLI) and JSON (structured) modes.
type IOHandler interface {
	// Input reads the next raw trigger. io.EOF ends the loop.
	Input(ctx context.Context) (string, error)

	// Output writes one emitted state.
	Output(ctx context.Context, out domain.Output) error

	// Error reports a rejected trigger or a failed event. It is never merged
	// into the regular output.
	Error(ctx context.Context, err error) error

	// Status presents the node status after construction and every event.
	Status(ctx context.Context, status domain.Status) error
}
