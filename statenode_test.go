package statenode_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/pkg/adapters/memory"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Sink that is safe to use from the initial-emission timer.
type recorder struct {
	mu   sync.Mutex
	outs []domain.Output
}

func (r *recorder) Emit(ctx context.Context, out domain.Output) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outs = append(r.outs, out)
	return nil
}

func (r *recorder) Outputs() []domain.Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Output(nil), r.outs...)
}

func (r *recorder) Len() int {
	return len(r.Outputs())
}

// failingStore fails every operation.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Save(context.Context, string, *domain.Snapshot) error { return errStoreDown }
func (failingStore) Load(context.Context, string) (*domain.Snapshot, error) {
	return nil, errStoreDown
}
func (failingStore) Delete(context.Context, string) error      { return errStoreDown }
func (failingStore) List(context.Context) ([]string, error)   { return nil, errStoreDown }

func lightConfig() *config.Config {
	return &config.Config{
		Name:   "light",
		States: []string{"off", "on"},
		Transitions: []domain.Transition{
			{Name: "turnOn", From: "off", To: "on"},
			{Name: "turnOff", From: "on", To: "off"},
		},
		StateProperty:   config.DefaultStateProperty,
		TriggerProperty: config.DefaultTriggerProperty,
	}
}

func newNode(t *testing.T, cfg *config.Config, opts ...statenode.Option) *statenode.Node {
	t.Helper()
	n, err := statenode.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestNode_RoundTrip(t *testing.T) {
	rec := &recorder{}
	n := newNode(t, lightConfig(), statenode.WithSink(rec))
	ctx := context.Background()

	assert.Equal(t, "off", n.State())
	assert.True(t, n.Can("turn-on"))

	res, err := n.Trigger(ctx, "turn-on")
	require.NoError(t, err)
	assert.Equal(t, statenode.Result{State: "on", Changed: true, Emitted: true}, res)

	res, err = n.Trigger(ctx, "turn-on")
	require.NoError(t, err, "rejections are silent by default")
	assert.Equal(t, "on", res.State)
	assert.False(t, res.Changed)
	assert.False(t, res.Emitted)
	assert.Equal(t, "on", n.State())

	outs := rec.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, domain.Output{
		Machine:  "light",
		Key:      "light",
		Property: "state",
		State:    "on",
		Trigger:  "turn-on",
		Changed:  true,
	}, outs[0])
}

func TestNode_WildcardReset(t *testing.T) {
	cfg := lightConfig()
	cfg.States = append(cfg.States, "broken")
	cfg.Transitions = append(cfg.Transitions, domain.Transition{Name: "reset", From: domain.Wildcard, To: "off"})
	ctx := context.Background()

	for _, start := range cfg.States {
		store := memory.NewStore()
		require.NoError(t, store.Save(ctx, cfg.Key(), domain.NewSnapshot("light", start)))
		c := *cfg
		c.PersistOnReload = true

		n := newNode(t, &c, statenode.WithStore(store))
		require.Equal(t, start, n.State())

		res, err := n.Trigger(ctx, "RESET")
		require.NoError(t, err)
		assert.True(t, res.Changed || start == "off")
		assert.Equal(t, "off", n.State())
	}
}

func TestNode_ReportOnInvalidTrigger(t *testing.T) {
	cfg := lightConfig()
	cfg.ReportOnInvalidTrigger = true
	cfg.EmitOnNoChange = true // reporting wins: nothing is emitted
	rec := &recorder{}
	n := newNode(t, cfg, statenode.WithSink(rec))

	_, err := n.Trigger(context.Background(), "turn_off")
	require.Error(t, err)

	var te *statenode.TriggerError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "turn_off", te.Trigger, "raw trigger is reported")
	assert.Equal(t, "off", te.State)
	assert.ErrorIs(t, err, domain.ErrNoTransition)
	assert.Equal(t, "can not transition 'turn_off' from state 'off'", err.Error())

	assert.Zero(t, rec.Len())
	assert.Equal(t, "off", n.State())

	// Still usable
	_, err = n.Trigger(context.Background(), "turn-on")
	require.NoError(t, err)
	assert.Equal(t, "on", n.State())
}

func TestNode_OutputSuppression(t *testing.T) {
	ctx := context.Background()

	t.Run("emitOnNoChange=false", func(t *testing.T) {
		rec := &recorder{}
		store := memory.NewStore()
		n := newNode(t, lightConfig(), statenode.WithSink(rec), statenode.WithStore(store))

		_, err := n.Trigger(ctx, "turn-off")
		require.NoError(t, err)
		assert.Zero(t, rec.Len())

		_, err = store.Load(ctx, "light")
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "nothing saved without emission")
	})

	t.Run("emitOnNoChange=true", func(t *testing.T) {
		cfg := lightConfig()
		cfg.EmitOnNoChange = true
		rec := &recorder{}
		store := memory.NewStore()
		n := newNode(t, cfg, statenode.WithSink(rec), statenode.WithStore(store))

		res, err := n.Trigger(ctx, "turn-off")
		require.NoError(t, err)
		assert.True(t, res.Emitted)
		assert.False(t, res.Changed)

		outs := rec.Outputs()
		require.Len(t, outs, 1)
		assert.Equal(t, "off", outs[0].State)
		assert.False(t, outs[0].Changed)

		snap, err := store.Load(ctx, "light")
		require.NoError(t, err)
		assert.Equal(t, "off", snap.State)
	})
}

func TestNode_PersistenceRestore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "light", domain.NewSnapshot("light", "on")))

	cfg := lightConfig()
	cfg.PersistOnReload = true
	n := newNode(t, cfg, statenode.WithStore(store))
	assert.Equal(t, "on", n.State())

	// Without persistOnReload the default applies.
	n2 := newNode(t, lightConfig(), statenode.WithStore(store))
	assert.Equal(t, "off", n2.State())
}

func TestNode_PersistenceRestore_CustomKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "kitchen", domain.NewSnapshot("light", "on")))

	cfg := lightConfig()
	cfg.PersistOnReload = true
	n := newNode(t, cfg, statenode.WithStore(store), statenode.WithKey("kitchen"))
	assert.Equal(t, "on", n.State())
	assert.Equal(t, "kitchen", n.Key())
}

func TestNode_PersistenceRestore_UndeclaredStateFallsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "light", domain.NewSnapshot("light", "dimmed")))

	cfg := lightConfig()
	cfg.PersistOnReload = true
	n := newNode(t, cfg, statenode.WithStore(store))
	assert.Equal(t, "off", n.State())
}

func TestNode_SavesAfterTransition(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	n := newNode(t, lightConfig(), statenode.WithStore(store))

	_, err := n.Trigger(ctx, "turnOn")
	require.NoError(t, err)

	snap, err := store.Load(ctx, "light")
	require.NoError(t, err)
	assert.Equal(t, "on", snap.State)
	assert.Equal(t, "light", snap.Machine)
}

func TestNode_StoreFailuresAreTolerated(t *testing.T) {
	var storeErrors int
	cfg := lightConfig()
	cfg.PersistOnReload = true

	n := newNode(t, cfg,
		statenode.WithStore(failingStore{}),
		statenode.WithLifecycleHooks(domain.LifecycleHooks{
			OnStoreError: func(ctx context.Context, e *domain.Event) {
				storeErrors++
				assert.ErrorIs(t, e.Err, errStoreDown)
			},
		}),
	)
	assert.Equal(t, "off", n.State(), "load failure falls back to the default state")

	res, err := n.Trigger(context.Background(), "turn-on")
	require.NoError(t, err)
	assert.Equal(t, "on", res.State)
	assert.Equal(t, 1, storeErrors)
}

func TestNode_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		kind   error
	}{
		{"empty states", func(c *config.Config) { c.States = nil }, domain.ErrEmptyStates},
		{"undeclared target", func(c *config.Config) {
			c.Transitions = append(c.Transitions, domain.Transition{Name: "dim", From: "on", To: "dimmed"})
		}, domain.ErrInvalidTransition},
		{"ambiguous", func(c *config.Config) {
			c.Transitions = append(c.Transitions, domain.Transition{Name: "turnOn", From: "off", To: "off"})
		}, domain.ErrAmbiguousTransition},
		{"missing state property", func(c *config.Config) { c.StateProperty = "" }, domain.ErrMissingField},
		{"negative delay", func(c *config.Config) { c.InitialDelay = "-1" }, domain.ErrInvalidDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lightConfig()
			tt.mutate(cfg)

			var statuses []domain.Status
			n, err := statenode.New(context.Background(), cfg,
				statenode.WithStatusReporter(func(s domain.Status) { statuses = append(statuses, s) }))

			assert.Nil(t, n)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			require.Len(t, statuses, 1)
			assert.Equal(t, domain.FillError, statuses[0].Fill)
			assert.Equal(t, err.Error(), statuses[0].Text)
		})
	}
}

func TestNode_StatusAfterEveryEvent(t *testing.T) {
	var statuses []domain.Status
	n := newNode(t, lightConfig(),
		statenode.WithStatusReporter(func(s domain.Status) { statuses = append(statuses, s) }))
	ctx := context.Background()

	_, _ = n.Trigger(ctx, "turn-on")
	_, _ = n.Trigger(ctx, "bogus")

	assert.Equal(t, []domain.Status{
		domain.StatusOK("off"),
		domain.StatusOK("on"),
		domain.StatusOK("on"),
	}, statuses)
	assert.True(t, n.Status().OK())
}

func TestNode_InitialEmission(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		rec := &recorder{}
		n := newNode(t, lightConfig(), statenode.WithSink(rec))
		require.NoError(t, n.Start(ctx))
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, rec.Len())
	})

	t.Run("immediate", func(t *testing.T) {
		cfg := lightConfig()
		cfg.InitialDelay = "0"
		rec := &recorder{}
		n := newNode(t, cfg, statenode.WithSink(rec))

		require.NoError(t, n.Start(ctx))
		require.NoError(t, n.Start(ctx), "second Start is a no-op")

		outs := rec.Outputs()
		require.Len(t, outs, 1)
		assert.True(t, outs[0].Initial)
		assert.Equal(t, "off", outs[0].State)
	})

	t.Run("delayed", func(t *testing.T) {
		cfg := lightConfig()
		cfg.InitialDelay = "0.1"
		rec := &recorder{}
		n := newNode(t, cfg, statenode.WithSink(rec))

		start := time.Now()
		require.NoError(t, n.Start(ctx))
		assert.Zero(t, rec.Len(), "nothing before the delay")

		require.Eventually(t, func() bool { return rec.Len() == 1 }, time.Second, 5*time.Millisecond)
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, rec.Len(), "exactly one initial emission")
	})

	t.Run("cancelled by Close", func(t *testing.T) {
		cfg := lightConfig()
		cfg.InitialDelay = "0.05"
		rec := &recorder{}
		n := newNode(t, cfg, statenode.WithSink(rec))

		require.NoError(t, n.Start(ctx))
		require.NoError(t, n.Close())
		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, rec.Len())

		_, err := n.Trigger(ctx, "turn-on")
		assert.ErrorIs(t, err, domain.ErrNodeClosed)
		assert.ErrorIs(t, n.Start(ctx), domain.ErrNodeClosed)
	})

	t.Run("cancelled by context", func(t *testing.T) {
		cfg := lightConfig()
		cfg.InitialDelay = "0.05"
		rec := &recorder{}
		n := newNode(t, cfg, statenode.WithSink(rec))

		sessionCtx, cancel := context.WithCancel(ctx)
		require.NoError(t, n.Start(sessionCtx))
		cancel()
		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, rec.Len())
	})
}

func TestNode_SinkErrorDoesNotRollBack(t *testing.T) {
	sinkErr := errors.New("bus full")
	store := memory.NewStore()
	n := newNode(t, lightConfig(),
		statenode.WithStore(store),
		statenode.WithSink(statenode.SinkFunc(func(context.Context, domain.Output) error { return sinkErr })))

	res, err := n.Trigger(context.Background(), "turn-on")
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, "on", res.State)
	assert.Equal(t, "on", n.State())

	snap, err := store.Load(context.Background(), "light")
	require.NoError(t, err)
	assert.Equal(t, "on", snap.State)
}

func TestNode_Reload(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	n := newNode(t, lightConfig(), statenode.WithStore(store))

	require.NoError(t, n.Reload(ctx), "missing snapshot is not an error")
	assert.Equal(t, "off", n.State())

	require.NoError(t, store.Save(ctx, "light", domain.NewSnapshot("light", "on")))
	require.NoError(t, n.Reload(ctx))
	assert.Equal(t, "on", n.State())

	// Undeclared states are ignored the same way New ignores them.
	require.NoError(t, store.Save(ctx, "light", domain.NewSnapshot("light", "dimmed")))
	require.NoError(t, n.Reload(ctx))
	assert.Equal(t, "on", n.State())

	cfg := lightConfig()
	cfg.PersistOnReload = true
	restarted := newNode(t, cfg, statenode.WithStore(store))
	assert.Equal(t, "off", restarted.State())
}

func TestNode_Introspection(t *testing.T) {
	cfg := lightConfig()
	cfg.Transitions = append(cfg.Transitions,
		domain.Transition{Name: "reset", From: domain.Wildcard, To: "off"},
		domain.Transition{Name: "turnOn", From: "off", To: "on"}, // duplicate
	)
	n := newNode(t, cfg)

	assert.Equal(t, []string{"reset", "turnOn"}, n.Available())
	def := n.Definition()
	assert.Equal(t, "light", def.Name)
	assert.Equal(t, []string{"off", "on"}, def.States)
	assert.Len(t, def.Transitions, 3)
	assert.Equal(t, "light", n.Config().Name)
}
