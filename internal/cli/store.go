package cli

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/statenode/pkg/adapters/file"
	"github.com/aretw0/statenode/pkg/adapters/memory"
	"github.com/aretw0/statenode/pkg/adapters/redis"
	"github.com/aretw0/statenode/pkg/persistence/middleware"
	"github.com/aretw0/statenode/pkg/ports"
)

// Backend bundles the state store and, for shared backends, the distributed locker.
type Backend struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker

	close func() error
}

// Close releases the backend connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend creates the state store selected by opts, wrapped with
// encryption when a key is configured.
func OpenBackend(opts Options) (*Backend, error) {
	b := &Backend{}

	switch opts.Store {
	case StoreMemory:
		b.Store = memory.NewStore()
	case "", StoreFile:
		dir := opts.StateDir
		if dir == "" {
			dir = filepath.Join(".statenode", "state")
		}
		b.Store = file.New(dir)
	case StoreRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires an address (%s)", EnvRedisAddr)
		}
		rs := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		b.Store = rs
		b.Locker = redis.NewLocker(rs.Client(), redis.DefaultPrefix)
		b.close = rs.Close
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s or %s)", opts.Store, StoreMemory, StoreFile, StoreRedis)
	}

	if opts.EncryptionKey != "" {
		key, err := middleware.ParseKey(opts.EncryptionKey)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = middleware.Chain(b.Store, mw)
	}

	return b, nil
}
