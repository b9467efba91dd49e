package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/pkg/adapters/redis"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports/tests"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newTestClient(t)
	store := redis.NewFromClient(client)
	tests.RunArtifactStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	_, err := store.Upload(ctx, "wheel", []byte("bytes"), "build")
	require.NoError(t, err)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	mr.FastForward(2 * time.Second)

	_, err = store.Download(ctx, "wheel")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	// Index is lazily cleaned on list.
	infos, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "gantry:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "main", 5*time.Second)
	require.NoError(t, err)

	// Second acquisition times out while the first holds the lock.
	shortCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "main", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	// Released: acquisition succeeds immediately.
	unlock2, err := locker.Lock(ctx, "main", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
