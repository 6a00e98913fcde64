package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// CodeGuard serializes mutations per case code. While a code is held, any
// other mutation against the same code fails fast with a conflict instead
// of racing the upstream API. A process-local map backs the guard; when a
// cache service is attached the flag is mirrored in Redis so multiple
// gateway replicas observe each other's in-flight mutations.
type CodeGuard struct {
	mu      sync.Mutex
	held    map[string]struct{}
	cache   *CacheService
	busyTTL time.Duration
	logger  *zap.Logger
}

func NewCodeGuard(cache *CacheService, busyTTL time.Duration, logger *zap.Logger) *CodeGuard {
	if busyTTL <= 0 {
		busyTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeGuard{
		held:    make(map[string]struct{}),
		cache:   cache,
		busyTTL: busyTTL,
		logger:  logger,
	}
}

// Acquire reserves the code and returns the release function. The caller
// must invoke release on every exit path. A held code yields ErrConflict.
func (g *CodeGuard) Acquire(ctx context.Context, code string) (func(), error) {
	g.mu.Lock()
	if _, busy := g.held[code]; busy {
		g.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "another operation is in progress for this case")
	}
	g.held[code] = struct{}{}
	g.mu.Unlock()

	if g.cache != nil {
		ok, err := g.cache.AcquireBusy(ctx, code, g.busyTTL)
		if err != nil {
			g.logger.Warn("busy flag acquire failed, continuing with local guard",
				zap.String("code", code), zap.Error(err))
		} else if !ok {
			g.release(code, false)
			return nil, appErrors.Clone(appErrors.ErrConflict, "another operation is in progress for this case")
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.release(code, true) })
	}, nil
}

func (g *CodeGuard) release(code string, distributed bool) {
	g.mu.Lock()
	delete(g.held, code)
	g.mu.Unlock()

	if distributed && g.cache != nil {
		if err := g.cache.ReleaseBusy(context.Background(), code); err != nil {
			g.logger.Warn("busy flag release failed", zap.String("code", code), zap.Error(err))
		}
	}
}
