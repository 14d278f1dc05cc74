package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/muster/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, scope string, session *domain.Session) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, scope string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, scope string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)     { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		scope := fmt.Sprintf("scope-%d", i)
		_ = mgr.Update(ctx, scope, func(ctx context.Context, s *domain.Session) (bool, error) {
			return true, nil
		})
		_ = mgr.Delete(ctx, scope)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
