/*
Package statenode is a deterministic finite state machine engine designed to run as a
processing node inside flow-based or message-driven hosts.

A node holds exactly one current state. It receives trigger messages, resolves each
trigger against a transition table, moves to the target state and emits the new state
to a Sink. Optionally it checkpoints the state into a StateStore so that a restarted
node resumes where it left off.

# Concept

The engine separates three concerns:

  - The graph (states and named transitions), validated once at construction.
  - The execution state (the current state), owned by a Node.
  - Side-effects (emitting output, saving snapshots, reporting status), injected by the host.

This makes the node embeddable in any interface: a CLI loop over stdin, an HTTP
service holding one node per session, or a library call inside a larger pipeline.

# Triggers

Trigger labels are normalized before lookup: separators ("-" and "_") split words and
the result is lower camel case, so "turn-on", "TURN_ON" and "turn_on" all resolve the
transition named "turnOn". A transition whose from is "*" applies from every state;
an exact entry always takes precedence over a wildcard one.

# Usage

	cfg, err := config.Load("light.yaml")
	if err != nil {
		log.Fatal(err)
	}

	node, err := statenode.New(ctx, cfg,
		statenode.WithStore(file.New("")),
		statenode.WithSink(statenode.SinkFunc(func(ctx context.Context, out domain.Output) error {
			fmt.Println(out.State)
			return nil
		})),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer node.Close()

	_ = node.Start(ctx)            // initial emission, if configured
	_, _ = node.Trigger(ctx, "turn-on")

# Policies

  - initialDelay: emit the current state once after construction ("0" = immediately).
  - persistOnReload: restore the saved state at construction.
  - reportOnInvalidTrigger: return a *TriggerError for unresolvable triggers.
  - emitOnNoChange: still emit (and save) the unchanged state when a trigger is rejected.

See the pkg/ directory for the storage adapters, the session manager, the I/O runner
and the HTTP transport built on top of Node.
*/
package statenode
