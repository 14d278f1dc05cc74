package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/muster/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	scope := "contract-test-scope-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(domain.Invocation{Scope: scope, ChannelID: "c1", UserID: "u1"}, time.Now())
		session.AddOptIn("u2")

		err := store.Save(ctx, scope, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, scope)
		require.NoError(t, err, "Load should not return error")
		assert.True(t, loaded.Active)
		assert.Equal(t, "u1", loaded.InitiatorID)
		assert.Equal(t, []string{"u2"}, loaded.OptedIn)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, scope)
		require.NoError(t, err)
		loaded.AddOptIn("intruder")

		again, err := store.Load(ctx, scope)
		require.NoError(t, err)
		assert.False(t, again.HasOptedIn("intruder"), "mutating a loaded session must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+scope)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, scope)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, scope)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := scope + "-1"
		id2 := scope + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(domain.Invocation{Scope: id1}, time.Now()))
		_ = store.Save(ctx, id2, domain.NewSession(domain.Invocation{Scope: id2}, time.Now()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		scopes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, scopes, id1)
		assert.Contains(t, scopes, id2)
	})
}
