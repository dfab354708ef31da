package statenode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/statenode/internal/logging"
	"github.com/aretw0/statenode/internal/runtime"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/ports"
)

// Result describes how a node processed one trigger.
type Result struct {
	State   string `json:"state"`
	Changed bool   `json:"changed"`
	Emitted bool   `json:"emitted"`
}

// TriggerError is returned by Trigger for an unresolvable trigger when
// reportOnInvalidTrigger is enabled. It carries the raw trigger as received.
type TriggerError struct {
	Trigger string
	State   string
	Err     error
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("can not transition '%s' from state '%s'", e.Trigger, e.State)
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}

// Node owns one machine instance and applies the output, persistence and
// reporting policy of its configuration around it.
//
// All methods are safe for concurrent use; triggers are processed one at a time.
type Node struct {
	cfg     config.Config
	key     string
	machine *runtime.Machine

	store    ports.StateStore
	sink     Sink
	reporter StatusReporter
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	mu      sync.Mutex
	status  domain.Status
	timer   *time.Timer
	stopCtx func() bool
	started bool
	closed  bool
}

// New builds a node from cfg. The state is restored from the store when
// cfg.PersistOnReload is set and a declared state was saved under the node key;
// otherwise the first declared state is used.
//
// On failure no node is returned and the status reporter receives an error status.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Node, error) {
	n := &Node{
		cfg:    *cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.key == "" {
		n.key = cfg.Key()
	}
	n.logger = n.logger.With("machine", cfg.Name, "key", n.key)

	if err := n.init(ctx); err != nil {
		n.setStatus(domain.StatusError(err))
		return nil, err
	}
	return n, nil
}

func (n *Node) init(ctx context.Context) error {
	if err := n.cfg.Validate(); err != nil {
		return err
	}

	table, err := runtime.Build(n.cfg.States, n.cfg.Transitions)
	if err != nil {
		return err
	}

	initial, restored := table.Initial(), false
	if n.cfg.PersistOnReload && n.store != nil {
		if state, ok := n.loadPersisted(ctx, table); ok {
			initial, restored = state, true
		}
	}

	n.machine, err = runtime.NewMachine(table, initial)
	if err != nil {
		return err
	}

	n.setStatus(domain.StatusOK(initial))
	n.logger.Info("machine initialized", "state", initial, "restored", restored)
	return nil
}

// loadPersisted returns the saved state if there is one and it is still declared.
func (n *Node) loadPersisted(ctx context.Context, table *runtime.Table) (string, bool) {
	snap, err := n.store.Load(ctx, n.key)
	switch {
	case errors.Is(err, domain.ErrStateNotFound):
		return "", false
	case err != nil:
		n.logger.Warn("failed to load persisted state", "err", err)
		return "", false
	case snap.State == "":
		return "", false
	case !table.Has(snap.State):
		n.logger.Warn("ignoring persisted state that is no longer declared", "state", snap.State)
		return "", false
	}
	return snap.State, true
}

// Start begins the session: if initialDelay is configured, the current state is
// emitted immediately ("0") or once the delay elapses. A pending emission is
// cancelled by Close or by cancellation of ctx. Calling Start again is a no-op.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return domain.ErrNodeClosed
	}
	if n.started {
		return nil
	}
	n.started = true

	delay, enabled, _ := n.cfg.Delay() // validated in New
	if !enabled {
		return nil
	}

	if delay == 0 {
		n.emitInitialLocked(ctx)
		return nil
	}

	n.logger.Debug("scheduling initial emission", "delay", delay)
	n.timer = time.AfterFunc(delay, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.closed || ctx.Err() != nil {
			return
		}
		n.emitInitialLocked(ctx)
	})
	n.stopCtx = context.AfterFunc(ctx, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.timer.Stop()
	})
	return nil
}

func (n *Node) emitInitialLocked(ctx context.Context) {
	out := n.output("", true, true)
	if err := n.emit(ctx, out); err != nil {
		n.logger.Warn("failed to emit initial state", "err", err)
	}
}

// Trigger processes one raw trigger.
//
// The trigger is normalized and fired. An unresolvable trigger leaves the state
// unchanged and, depending on the configuration, returns a *TriggerError, is
// silently dropped, or still emits the unchanged state. Whenever output is emitted
// the state is also saved; store failures are logged and never returned.
func (n *Node) Trigger(ctx context.Context, trigger string) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return Result{}, domain.ErrNodeClosed
	}

	canonical := domain.Normalize(trigger)
	from := n.machine.Current()
	to, fireErr := n.machine.Fire(canonical)

	event := &domain.Event{
		Timestamp: time.Now(),
		Machine:   n.cfg.Name,
		Key:       n.key,
		Trigger:   trigger,
		Canonical: canonical,
		From:      from,
		To:        to,
	}

	res := Result{State: to, Changed: fireErr == nil}
	defer func() { n.setStatus(domain.StatusOK(n.machine.Current())) }()

	if fireErr != nil {
		event.Type = domain.EventRejected
		event.Err = fireErr
		n.logger.Debug("trigger rejected", "trigger", trigger, "canonical", canonical, "state", from)
		if n.hooks.OnRejected != nil {
			n.hooks.OnRejected(ctx, event)
		}

		if n.cfg.ReportOnInvalidTrigger {
			return res, &TriggerError{Trigger: trigger, State: from, Err: fireErr}
		}
		if !n.cfg.EmitOnNoChange {
			return res, nil
		}
	} else {
		event.Type = domain.EventTransition
		n.logger.Debug("transition", "trigger", trigger, "from", from, "to", to)
		if n.hooks.OnTransition != nil {
			n.hooks.OnTransition(ctx, event)
		}
	}

	emitErr := n.emit(ctx, n.output(trigger, res.Changed, false))
	res.Emitted = true
	n.save(ctx)

	if emitErr != nil {
		return res, fmt.Errorf("failed to emit state: %w", emitErr)
	}
	return res, nil
}

func (n *Node) output(trigger string, changed, initial bool) domain.Output {
	return domain.Output{
		Machine:  n.cfg.Name,
		Key:      n.key,
		Property: n.cfg.StateProperty,
		State:    n.machine.Current(),
		Trigger:  trigger,
		Changed:  changed,
		Initial:  initial,
	}
}

func (n *Node) emit(ctx context.Context, out domain.Output) error {
	if n.hooks.OnEmit != nil {
		n.hooks.OnEmit(ctx, &domain.Event{
			Timestamp: time.Now(),
			Type:      domain.EventEmit,
			Machine:   n.cfg.Name,
			Key:       n.key,
			Trigger:   out.Trigger,
			To:        out.State,
		})
	}
	if n.sink == nil {
		return nil
	}
	return n.sink.Emit(ctx, out)
}

func (n *Node) save(ctx context.Context) {
	if n.store == nil {
		return
	}
	state := n.machine.Current()
	if err := n.store.Save(ctx, n.key, domain.NewSnapshot(n.cfg.Name, state)); err != nil {
		n.logger.Warn("failed to persist state", "state", state, "err", err)
		if n.hooks.OnStoreError != nil {
			n.hooks.OnStoreError(ctx, &domain.Event{
				Timestamp: time.Now(),
				Type:      domain.EventStoreError,
				Machine:   n.cfg.Name,
				Key:       n.key,
				To:        state,
				Err:       err,
			})
		}
	}
}

// Reload re-reads the persisted snapshot and moves the machine to it.
// A missing snapshot, or one holding a state that is no longer declared,
// leaves the state unchanged.
func (n *Node) Reload(ctx context.Context) error {
	if n.store == nil {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	snap, err := n.store.Load(ctx, n.key)
	if errors.Is(err, domain.ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reload state: %w", err)
	}
	if snap.State == "" || snap.State == n.machine.Current() {
		return nil
	}
	if !n.machine.Table().Has(snap.State) {
		n.logger.Warn("ignoring persisted state that is no longer declared", "state", snap.State)
		return nil
	}
	if err := n.machine.Reset(snap.State); err != nil {
		return err
	}
	n.setStatus(domain.StatusOK(snap.State))
	return nil
}

// Can reports whether the raw trigger would be accepted from the current state.
func (n *Node) Can(trigger string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.machine.Can(domain.Normalize(trigger))
}

// State returns the current state.
func (n *Node) State() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.machine.Current()
}

// Available returns the canonical trigger names that can fire from the current state.
func (n *Node) Available() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.machine.Available()
}

// Status returns the last published status.
func (n *Node) Status() domain.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// Key returns the persistence key.
func (n *Node) Key() string {
	return n.key
}

// Config returns a copy of the node configuration.
func (n *Node) Config() config.Config {
	return n.cfg
}

// Definition returns the validated graph the node runs on.
func (n *Node) Definition() domain.Definition {
	table := n.machine.Table()
	return domain.Definition{
		Name:        n.cfg.Name,
		States:      table.States(),
		Transitions: table.Transitions(),
	}
}

// Close ends the session. A pending initial emission is cancelled and no output
// is produced after Close returns. Close is idempotent.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
	}
	if n.stopCtx != nil {
		n.stopCtx()
	}
	return nil
}

func (n *Node) setStatus(s domain.Status) {
	n.status = s
	if n.reporter != nil {
		n.reporter(s)
	}
}
