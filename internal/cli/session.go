package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/statenode/pkg/domain"
)

// ListSessions prints the keys holding a saved state.
func ListSessions(ctx context.Context, opts Options, w io.Writer) error {
	backend, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	keys, err := backend.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}

	fmt.Fprintln(w, "Active Sessions:")
	for _, k := range keys {
		fmt.Fprintln(w, "- "+k)
	}
	return nil
}

// InspectSession prints the saved snapshot of a session as JSON.
func InspectSession(ctx context.Context, opts Options, w io.Writer, sessionID string) error {
	backend, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	snap, err := backend.Store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return fmt.Errorf("session '%s' not found", sessionID)
	}
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes the saved state of each session, reporting every failure.
func RemoveSessions(ctx context.Context, opts Options, w io.Writer, sessionIDs ...string) error {
	backend, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	var errs []error
	for _, id := range sessionIDs {
		if err := backend.Store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
