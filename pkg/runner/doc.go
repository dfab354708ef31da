/*
Package runner implements the host loop that feeds a statenode.Node from a stream.

The runner reads raw triggers through an IOHandler, delivers them to the node and
writes the node's outputs, rejections and status back through the same handler.
It stops on end of input, on SIGINT/SIGTERM, or when its context is cancelled.

# Key Components

  - Runner: builds the node and drives the read-trigger-write loop.
  - IOHandler: decouples the wire format from the loop.
  - TextHandler: one trigger per line; outputs as "state" lines, status on a terminal.
  - JSONHandler: NDJSON in and out; errors on a separate writer.

# Usage

	r := runner.NewRunner(
		runner.WithStore(store),
		runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout, os.Stderr, cfg)),
	)

	if err := r.Run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
*/
package runner
