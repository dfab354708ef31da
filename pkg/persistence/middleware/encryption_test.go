package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/statenode/pkg/adapters/memory"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/persistence/middleware"
	"github.com/aretw0/statenode/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func newSecureStore(t *testing.T, cfg middleware.EncryptionConfig) (ports.StateStore, *memory.Store) {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	under := memory.NewStore()
	return mw(under), under
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store, _ := newSecureStore(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStateStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	secure, under := newSecureStore(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "vault", domain.NewSnapshot("door", "unlocked")))

	raw, err := under.Load(ctx, "vault")
	require.NoError(t, err)
	assert.Empty(t, raw.State, "state must not be stored in clear text")
	assert.NotEmpty(t, raw.Sealed)
	assert.Equal(t, "door", raw.Machine)

	loaded, err := secure.Load(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, "unlocked", loaded.State)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	under := memory.NewStore()
	require.NoError(t, oldMW(under).Save(ctx, "vault", domain.NewSnapshot("door", "locked")))

	// New key only: fails
	newOnly, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = newOnly(under).Load(ctx, "vault")
	assert.Error(t, err)

	// New key with fallback: succeeds
	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	loaded, err := rotated(under).Load(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, "locked", loaded.State)
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	secure, under := newSecureStore(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, under.Save(ctx, "plain", domain.NewSnapshot("door", "open")))

	_, err := secure.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("too-short")
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.StateStore) ports.StateStore {
			return &recordingStore{StateStore: next, name: name, calls: &calls}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "k", domain.NewSnapshot("m", "s")))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type recordingStore struct {
	ports.StateStore
	name  string
	calls *[]string
}

func (r *recordingStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	*r.calls = append(*r.calls, r.name)
	return r.StateStore.Save(ctx, key, snap)
}
