package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/pkg/adapters/memory"
	"github.com/aretw0/statenode/pkg/adapters/redis"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	time.Sleep(time.Millisecond)
	return s.Store.Save(ctx, key, snap)
}

func lightConfig() *config.Config {
	return &config.Config{
		Name:   "light",
		States: []string{"off", "on"},
		Transitions: []domain.Transition{
			{Name: "turnOn", From: "off", To: "on"},
			{Name: "turnOff", From: "on", To: "off"},
			{Name: "toggle", From: "off", To: "on"},
			{Name: "toggle", From: "on", To: "off"},
		},
		StateProperty:   config.DefaultStateProperty,
		TriggerProperty: config.DefaultTriggerProperty,
	}
}

func TestManager_IndependentSessions(t *testing.T) {
	mgr := session.NewManager(lightConfig(), memory.NewStore())
	defer mgr.Close()
	ctx := context.Background()

	res, err := mgr.Trigger(ctx, "kitchen", "turn-on")
	require.NoError(t, err)
	assert.Equal(t, "on", res.State)

	res, err = mgr.Trigger(ctx, "bedroom", "turn-off")
	require.NoError(t, err)
	assert.Equal(t, "off", res.State)
	assert.False(t, res.Changed)

	snap, err := mgr.Get(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, "on", snap.State)

	snap, err = mgr.Get(ctx, "bedroom")
	require.NoError(t, err)
	assert.Equal(t, "off", snap.State)

	_, err = mgr.Get(ctx, "garage")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bedroom", "kitchen"}, ids)

	avail, err := mgr.Available(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, []string{"toggle", "turnOff"}, avail)
}

func TestManager_ResumesFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := session.NewManager(lightConfig(), store)
	_, err := first.Trigger(ctx, "s1", "turnOn")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := session.NewManager(lightConfig(), store)
	defer second.Close()

	res, err := second.Trigger(ctx, "s1", "turnOff")
	require.NoError(t, err)
	assert.True(t, res.Changed, "session resumed in 'on'")
	assert.Equal(t, "off", res.State)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mgr := session.NewManager(lightConfig(), store)
	defer mgr.Close()

	_, err := mgr.Trigger(ctx, "s1", "turnOn")
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, "s1"))

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	res, err := mgr.Trigger(ctx, "s1", "turnOff")
	require.NoError(t, err)
	assert.False(t, res.Changed, "a deleted session starts over")
}

func TestManager_SerializesTriggers(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(lightConfig(), SlowStore{memory.NewStore()})
	defer mgr.Close()

	var wg sync.WaitGroup
	workers := 20
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Trigger(ctx, "race", "toggle")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := mgr.Get(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, "off", snap.State, "an even number of toggles ends where it started")
}

func TestManager_ReportedRejection(t *testing.T) {
	cfg := lightConfig()
	cfg.ReportOnInvalidTrigger = true
	mgr := session.NewManager(cfg, memory.NewStore())
	defer mgr.Close()

	_, err := mgr.Trigger(context.Background(), "s1", "turn-off")
	var te *statenode.TriggerError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "off", te.State)
}

func TestManager_Closed(t *testing.T) {
	mgr := session.NewManager(lightConfig(), memory.NewStore())
	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close())

	_, err := mgr.Trigger(context.Background(), "s1", "turnOn")
	assert.ErrorIs(t, err, session.ErrManagerClosed)
}

func TestManager_DistributedReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, redis.DefaultPrefix)
	ctx := context.Background()

	replicaA := session.NewManager(lightConfig(), store, session.WithLocker(locker))
	replicaB := session.NewManager(lightConfig(), store, session.WithLocker(locker))
	defer replicaA.Close()
	defer replicaB.Close()

	for i := 0; i < 6; i++ {
		mgr := replicaA
		if i%2 == 1 {
			mgr = replicaB
		}
		res, err := mgr.Trigger(ctx, "shared", "toggle")
		require.NoError(t, err, "step %d", i)
		assert.True(t, res.Changed, "step %d", i)
		want := "on"
		if i%2 == 1 {
			want = "off"
		}
		assert.Equal(t, want, res.State, fmt.Sprintf("step %d", i))
	}

	snap, err := replicaA.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "off", snap.State)

	assert.False(t, mr.Exists(redis.DefaultPrefix+"lock:shared"), "locks are released")
}

func TestManager_InitialEmissionOutlivesCallerContext(t *testing.T) {
	cfg := lightConfig()
	cfg.InitialDelay = "0.05"

	var mu sync.Mutex
	var outs []domain.Output
	sink := statenode.SinkFunc(func(ctx context.Context, out domain.Output) error {
		mu.Lock()
		defer mu.Unlock()
		outs = append(outs, out)
		return nil
	})
	initials := func() int {
		mu.Lock()
		defer mu.Unlock()
		count := 0
		for _, out := range outs {
			if out.Initial {
				count++
			}
		}
		return count
	}

	mgr := session.NewManager(cfg, memory.NewStore(), session.WithNodeOptions(statenode.WithSink(sink)))
	defer mgr.Close()

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := mgr.Trigger(reqCtx, "kitchen", "turn-on")
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool { return initials() == 1 }, time.Second, 10*time.Millisecond)
}

func TestManager_DeleteCancelsInitialEmission(t *testing.T) {
	cfg := lightConfig()
	cfg.InitialDelay = "0.05"

	var mu sync.Mutex
	initial := 0
	sink := statenode.SinkFunc(func(ctx context.Context, out domain.Output) error {
		mu.Lock()
		defer mu.Unlock()
		if out.Initial {
			initial++
		}
		return nil
	})

	mgr := session.NewManager(cfg, memory.NewStore(), session.WithNodeOptions(statenode.WithSink(sink)))
	defer mgr.Close()
	ctx := context.Background()

	_, err := mgr.Available(ctx, "kitchen")
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, "kitchen"))

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, initial)
}
