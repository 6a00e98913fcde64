package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/internal/models"
)

// CaseLister fetches a page of case files from the authoritative store.
type CaseLister interface {
	List(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, error)
}

// Reconciler keeps the in-memory working set of case files. A refresh is a
// full replacement of the set with whatever the upstream answers, never a
// merge, so locally patched records are always reconciled against the
// authoritative store on the next refresh. Mutation paths apply an
// optimistic patch first and rely on Refresh for convergence.
type Reconciler struct {
	lister     CaseLister
	aggregator *EvidenceAggregator
	cache      *CacheService
	logger     *zap.Logger

	mu          sync.RWMutex
	cases       []models.CaseFile
	lastRefresh time.Time
	degraded    bool
}

func NewReconciler(lister CaseLister, aggregator *EvidenceAggregator, cache *CacheService, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		lister:     lister,
		aggregator: aggregator,
		cache:      cache,
		logger:     logger,
	}
}

func snapshotCacheKey(page models.PageRequest) string {
	return fmt.Sprintf("snapshot:expedientes:p%d:s%d", page.Page, page.PageSize)
}

// Refresh replaces the working set from the upstream, joining evidence when
// an aggregator is attached. When the upstream is unreachable it falls back
// to the last cached snapshot and reports degraded=true; without a usable
// snapshot the upstream error is returned and the previous set is kept.
func (r *Reconciler) Refresh(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, bool, error) {
	page = page.Normalize(0)

	cases, err := r.lister.List(ctx, token, page)
	if err != nil {
		var cached []models.CaseFile
		hit, cacheErr := r.cache.Get(ctx, snapshotCacheKey(page), &cached)
		if cacheErr == nil && hit {
			r.logger.Warn("upstream refresh failed, serving cached snapshot", zap.Error(err))
			r.replace(cached, true)
			return r.Snapshot(), true, nil
		}
		return nil, false, err
	}

	if r.aggregator != nil {
		cases = r.aggregator.Attach(ctx, token, cases)
	}

	r.replace(cases, false)
	if err := r.cache.Set(ctx, snapshotCacheKey(page), cases, 0); err != nil {
		r.logger.Warn("snapshot cache write failed", zap.Error(err))
	}
	return r.Snapshot(), false, nil
}

func (r *Reconciler) replace(cases []models.CaseFile, degraded bool) {
	next := make([]models.CaseFile, len(cases))
	copy(next, cases)

	r.mu.Lock()
	r.cases = next
	r.lastRefresh = time.Now()
	r.degraded = degraded
	r.mu.Unlock()
}

// Snapshot returns a copy of the working set safe for callers to iterate
// and serialize without holding any lock.
func (r *Reconciler) Snapshot() []models.CaseFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CaseFile, len(r.cases))
	copy(out, r.cases)
	return out
}

// Degraded reports whether the current set came from the cache fallback.
func (r *Reconciler) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded
}

// LastRefresh returns when the working set was last replaced.
func (r *Reconciler) LastRefresh() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRefresh
}

// Find looks up a case by code in the working set.
func (r *Reconciler) Find(code string) (models.CaseFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.cases {
		if r.cases[i].Code == code {
			return r.cases[i], true
		}
	}
	return models.CaseFile{}, false
}

// Upsert merges an authoritative record returned by a mutation into the
// working set, keeping the already joined evidence when the record carries
// none.
func (r *Reconciler) Upsert(record models.CaseFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cases {
		if r.cases[i].Code == record.Code {
			if record.Evidence == nil {
				record.Evidence = r.cases[i].Evidence
			}
			r.cases[i] = record
			return
		}
	}
	r.cases = append(r.cases, record)
}

// ApplyReviewPatch optimistically records a review transition. Approval
// clears the justification, rejection stores it, and attribution follows
// the acting reviewer.
func (r *Reconciler) ApplyReviewPatch(code string, state models.ReviewState, justification string, reviewerID int64, reviewerName string) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cases {
		if r.cases[i].Code != code {
			continue
		}
		r.cases[i].State = state
		if state == models.StateRejected {
			r.cases[i].Justification = justification
		} else {
			r.cases[i].Justification = ""
		}
		r.cases[i].ApproverID = &reviewerID
		name := reviewerName
		r.cases[i].ApproverName = &name
		r.cases[i].StateChangedAt = &now
		return
	}
}

// ApplyActivationPatch optimistically flips the activation flag. Review
// fields are untouched.
func (r *Reconciler) ApplyActivationPatch(code string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cases {
		if r.cases[i].Code == code {
			r.cases[i].Active = active
			return
		}
	}
}

// ApplyEditPatch optimistically rewrites code and description. The record
// stays addressable under its new code afterwards.
func (r *Reconciler) ApplyEditPatch(oldCode, newCode, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cases {
		if r.cases[i].Code == oldCode {
			r.cases[i].Code = newCode
			r.cases[i].Description = description
			return
		}
	}
}
