package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

func TestCodeGuardSerializesPerCode(t *testing.T) {
	guard := NewCodeGuard(nil, 0, nil)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "A")
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, "A")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))

	releaseB, err := guard.Acquire(ctx, "B")
	require.NoError(t, err)
	releaseB()

	release()
	release() // releasing twice is harmless

	release2, err := guard.Acquire(ctx, "A")
	require.NoError(t, err)
	release2()
}

func TestCodeGuardDistributedFlag(t *testing.T) {
	cacheSvc := NewCacheService(newCacheRepoStub(), NewMetricsService(), time.Minute, nil, true)
	first := NewCodeGuard(cacheSvc, time.Minute, nil)
	second := NewCodeGuard(cacheSvc, time.Minute, nil)
	ctx := context.Background()

	release, err := first.Acquire(ctx, "A")
	require.NoError(t, err)

	// another replica sharing the cache observes the busy flag
	_, err = second.Acquire(ctx, "A")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))

	release()
	release2, err := second.Acquire(ctx, "A")
	require.NoError(t, err)
	release2()
}
