package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/upstream"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// upstreamStub simulates the legacy store: mutations are applied to its
// case slice so a follow-up List reflects them, like the real API does.
type upstreamStub struct {
	mu    sync.Mutex
	cases []models.CaseFile

	evidence    map[string][]models.EvidenceItem
	evidenceErr map[string]error

	listErr     error
	failRefresh bool
	stateErr    error
	activeErr   error
	updateErr   error

	listCalls     int
	evidenceCalls int
	stateCalls    int
	activeCalls   int
	updateCalls   int

	lastState         models.ReviewState
	lastJustification string
}

func (s *upstreamStub) List(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.failRefresh && s.listCalls > 1 {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "upstream down")
	}
	out := make([]models.CaseFile, len(s.cases))
	copy(out, s.cases)
	return out, nil
}

func (s *upstreamStub) ListEvidence(ctx context.Context, token, code string) ([]models.EvidenceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidenceCalls++
	if err, ok := s.evidenceErr[code]; ok {
		return nil, err
	}
	return s.evidence[code], nil
}

func (s *upstreamStub) SetState(ctx context.Context, token, code string, state models.ReviewState, justification string) (*models.CaseFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateCalls++
	s.lastState = state
	s.lastJustification = justification
	if s.stateErr != nil {
		return nil, s.stateErr
	}
	for i := range s.cases {
		if s.cases[i].Code == code {
			s.cases[i].State = state
			if state == models.StateRejected {
				s.cases[i].Justification = justification
			} else {
				s.cases[i].Justification = ""
			}
			record := s.cases[i]
			return &record, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (s *upstreamStub) SetActive(ctx context.Context, token, code string, active bool) (*models.CaseFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCalls++
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	for i := range s.cases {
		if s.cases[i].Code == code {
			s.cases[i].Active = active
			record := s.cases[i]
			return &record, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (s *upstreamStub) Update(ctx context.Context, token, code string, params upstream.EditCaseParams) (*models.CaseFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	for i := range s.cases {
		if s.cases[i].Code == code {
			s.cases[i].Code = params.Code
			s.cases[i].Description = params.Description
			record := s.cases[i]
			return &record, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

type auditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStub) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

// cacheRepoStub keeps values in memory with the repository's JSON contract.
type cacheRepoStub struct {
	mu     sync.Mutex
	values map[string][]byte
	busy   map[string]bool
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{values: make(map[string][]byte), busy: make(map[string]bool)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string][]byte)
	return nil
}

func (c *cacheRepoStub) AcquireBusy(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[code] {
		return false, nil
	}
	c.busy[code] = true
	return true, nil
}

func (c *cacheRepoStub) ReleaseBusy(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, code)
	return nil
}
