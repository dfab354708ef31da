package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/ports"
)

// MockStore is a map-based StateStore used to check the contract suite itself.
type MockStore struct {
	data map[string]domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Snapshot),
	}
}

func (m *MockStore) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	// Stored by value to simulate serialization
	m.data[key] = *snapshot
	return nil
}

func (m *MockStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	snap, ok := m.data[key]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return &snap, nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}
