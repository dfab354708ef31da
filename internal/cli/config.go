package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/statenode/pkg/adapters/loam"
	"github.com/aretw0/statenode/pkg/config"
)

// ErrNoConfig is returned when neither a configuration file nor a library is given.
var ErrNoConfig = errors.New("no machine configuration: use --config or --library with --machine")

// LoadConfig reads the machine configuration from a file or a machine library.
func LoadConfig(ctx context.Context, opts Options) (*config.Config, error) {
	switch {
	case opts.ConfigPath != "" && opts.LibraryPath != "":
		return nil, errors.New("--config and --library cannot be used together")
	case opts.ConfigPath != "":
		return config.Load(opts.ConfigPath)
	case opts.LibraryPath != "":
		if opts.Machine == "" {
			return nil, errors.New("--library requires --machine")
		}
		lib, err := loam.Open(opts.LibraryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open machine library: %w", err)
		}
		return lib.Get(ctx, opts.Machine)
	}
	return nil, ErrNoConfig
}

// ListMachines returns the IDs of the machines in the library.
func ListMachines(ctx context.Context, libraryPath string) ([]string, error) {
	lib, err := loam.Open(libraryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open machine library: %w", err)
	}
	return lib.List(ctx)
}
