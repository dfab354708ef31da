package cli

import (
	"context"

	"github.com/aretw0/statenode/pkg/adapters/mcp"
)

// MCPOptions contains the configuration of the mcp command.
type MCPOptions struct {
	Options

	// SSE serves over HTTP on Port instead of stdio.
	SSE  bool
	Port int
}

// ServeMCP exposes the machine sessions as MCP tools.
// Logs never go to stdout, which carries the stdio protocol.
func ServeMCP(ctx context.Context, opts MCPOptions, streams IO) error {
	logger, err := NewLogger(opts.Options, streams.Err)
	if err != nil {
		return err
	}

	stack, err := newSessionStack(ctx, opts.Options, logger, false)
	if err != nil {
		return err
	}
	defer stack.Close()

	srv := mcp.NewServer(stack.Sessions, mcp.WithLogger(logger))
	if opts.SSE {
		return srv.ServeSSE(ctx, opts.Port)
	}
	return srv.ServeStdio()
}
