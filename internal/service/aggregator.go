package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dicri-platform/casefile-gateway/internal/models"
)

// EvidenceLister fetches the evidence list attached to a case code.
type EvidenceLister interface {
	ListEvidence(ctx context.Context, token, code string) ([]models.EvidenceItem, error)
}

// EvidenceAggregator joins evidence onto case files with a bounded fan-out.
// A failed evidence fetch degrades that single case to an empty evidence
// slice; it never fails the whole join.
type EvidenceAggregator struct {
	lister      EvidenceLister
	concurrency int
	metrics     *MetricsService
	logger      *zap.Logger
}

func NewEvidenceAggregator(lister EvidenceLister, concurrency int, metrics *MetricsService, logger *zap.Logger) *EvidenceAggregator {
	if concurrency <= 0 {
		concurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceAggregator{
		lister:      lister,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Attach returns the cases in their input order, each populated with its
// evidence list. Cases whose fetch failed carry an empty (non-nil) slice
// so the wire shape stays stable for clients.
func (a *EvidenceAggregator) Attach(ctx context.Context, token string, cases []models.CaseFile) []models.CaseFile {
	if len(cases) == 0 {
		return cases
	}

	out := make([]models.CaseFile, len(cases))
	copy(out, cases)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i := range out {
		i := i
		g.Go(func() error {
			items, err := a.lister.ListEvidence(ctx, token, out[i].Code)
			if err != nil {
				a.logger.Warn("evidence join degraded for case",
					zap.String("code", out[i].Code), zap.Error(err))
				if a.metrics != nil {
					a.metrics.RecordDegradedJoin()
				}
				out[i].Evidence = []models.EvidenceItem{}
				return nil
			}
			if items == nil {
				items = []models.EvidenceItem{}
			}
			out[i].Evidence = items
			return nil
		})
	}

	// Goroutines never return an error, so Wait only observes ctx teardown.
	_ = g.Wait()
	return out
}
