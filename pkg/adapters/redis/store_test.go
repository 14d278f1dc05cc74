package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/aretw0/muster/pkg/adapters/redis"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewStore(client, "test:"))
}

func TestRedisStore_Expires(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewStore(client, "test:", redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "g1", domain.NewSession(domain.Invocation{Scope: "g1", UserID: "u1"}, time.Now())))
	assert.True(t, mr.Exists("test:session:g1"))
	assert.Equal(t, time.Minute, mr.TTL("test:session:g1"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// Two bots sharing one Redis behave as replicas of the same deployment.
func TestReplicas_ShareOneSessionPerScope(t *testing.T) {
	_, client := newClient(t)
	newReplica := func() *muster.Bot {
		return muster.New(memory.NewGateway("coord"), memory.Grantor{},
			coordinator.Config{CoordinationChannelID: "coord"},
			muster.WithStore(redis.NewStore(client, "test:")),
			muster.WithLocker(redis.NewLocker(client, "test:", redis.WithPollInterval(5*time.Millisecond)), 5*time.Second),
		)
	}
	a, b := newReplica(), newReplica()
	ctx := context.Background()

	_, err := a.Coordinator().Start(ctx, domain.Invocation{Scope: "g", ChannelID: "c", UserID: "u1"})
	require.NoError(t, err)

	_, err = b.Coordinator().Start(ctx, domain.Invocation{Scope: "g", ChannelID: "c", UserID: "u9"})
	assert.ErrorIs(t, err, domain.ErrAlreadyActive)

	_, err = b.Coordinator().OptIn(ctx, domain.Invocation{Scope: "g", UserID: "u2"})
	require.NoError(t, err)

	s, err := a.Coordinator().Snapshot(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.InitiatorID)
	assert.Equal(t, []string{"u2"}, s.OptedIn)
}
