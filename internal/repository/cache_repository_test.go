package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewCacheRepository(client, zap.NewNop())
	t.Cleanup(func() { repo.Close() })
	return repo, mr
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, _ := newCacheRepo(t)
	ctx := context.Background()

	type snapshot struct {
		Codes []string `json:"codes"`
	}
	require.NoError(t, repo.Set(ctx, "snapshot:expedientes:p1:s50", snapshot{Codes: []string{"A", "B"}}, time.Minute))

	var got snapshot
	require.NoError(t, repo.Get(ctx, "snapshot:expedientes:p1:s50", &got))
	assert.Equal(t, []string{"A", "B"}, got.Codes)
}

func TestCacheRepositoryMiss(t *testing.T) {
	repo, _ := newCacheRepo(t)

	var dest map[string]string
	err := repo.Get(context.Background(), "absent", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestCacheRepositoryExpiry(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var dest string
	err := repo.Get(ctx, "k", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, _ := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "snapshot:expedientes:p1:s50", "a", time.Minute))
	require.NoError(t, repo.Set(ctx, "snapshot:expedientes:p2:s50", "b", time.Minute))
	require.NoError(t, repo.Set(ctx, "other", "c", time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "snapshot:expedientes:*"))

	var dest string
	assert.True(t, errors.Is(repo.Get(ctx, "snapshot:expedientes:p1:s50", &dest), appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Get(ctx, "other", &dest))
}

func TestBusyFlagBlocksSecondAcquire(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	ok, err := repo.AcquireBusy(ctx, "EXP-001", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AcquireBusy(ctx, "EXP-001", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// a different code is unaffected
	ok, err = repo.AcquireBusy(ctx, "EXP-002", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.ReleaseBusy(ctx, "EXP-001"))
	ok, err = repo.AcquireBusy(ctx, "EXP-001", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// the TTL unblocks a crashed holder
	mr.FastForward(2 * time.Minute)
	ok, err = repo.AcquireBusy(ctx, "EXP-001", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
