package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/cache"
)

// o contrato é o mesmo para as duas implementações
var (
	_ entity.SessionRevocationStore = (*cache.RedisRevocationStore)(nil)
	_ entity.SessionRevocationStore = (*cache.MemoryRevocationStore)(nil)
)

// TestRedisRevocationStore - Chave expira junto com o token
func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := cache.NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := cache.NewRedisRevocationStore(client)

	revoked, err := store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "sess-1", time.Now().Add(time.Minute)))

	revoked, err = store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("session:revoked:sess-1"))

	mr.FastForward(2 * time.Minute)

	revoked, err = store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

// TestRedisRevocationStoreAlreadyExpired - Token vencido não ocupa chave
func TestRedisRevocationStoreAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := cache.NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := cache.NewRedisRevocationStore(client)
	require.NoError(t, store.Revoke(ctx, "old", time.Now().Add(-time.Second)))

	assert.False(t, mr.Exists("session:revoked:old"))
}

// TestRedisRevocationStoreDown - Redis fora do ar é erro, não "não revogado"
func TestRedisRevocationStoreDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := cache.NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := cache.NewRedisRevocationStore(client)
	mr.Close()

	_, err = store.IsRevoked(ctx, "sess-1")
	assert.Error(t, err)
}

// TestNewRedisClientInvalidURL
func TestNewRedisClientInvalidURL(t *testing.T) {
	_, err := cache.NewRedisClient(context.Background(), "http://not-redis")
	assert.Error(t, err)
}

// TestMemoryRevocationStore - Revogação some depois da validade
func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryRevocationStore()

	require.NoError(t, store.Revoke(ctx, "sess-1", time.Now().Add(time.Hour)))
	require.NoError(t, store.Revoke(ctx, "sess-2", time.Now().Add(50*time.Millisecond)))
	require.NoError(t, store.Revoke(ctx, "sess-3", time.Now().Add(-time.Second)))

	revoked, _ := store.IsRevoked(ctx, "sess-1")
	assert.True(t, revoked)
	revoked, _ = store.IsRevoked(ctx, "sess-3")
	assert.False(t, revoked)

	assert.Eventually(t, func() bool {
		revoked, _ := store.IsRevoked(ctx, "sess-2")
		return !revoked
	}, time.Second, 10*time.Millisecond)
}
