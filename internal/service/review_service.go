package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// StateWriter executes a review transition on the authoritative store.
type StateWriter interface {
	SetState(ctx context.Context, token, code string, state models.ReviewState, justification string) (*models.CaseFile, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ReviewService drives the approve/reject workflow. Every transition needs
// a reviewer identity before any network traffic, mutations on the same
// code are serialized, and the working set is patched optimistically then
// reconciled against the store.
type ReviewService struct {
	states     StateWriter
	reconciler *Reconciler
	guard      *CodeGuard
	audit      AuditRecorder
	logger     *zap.Logger

	draftMu sync.Mutex
	draft   string
}

func NewReviewService(states StateWriter, reconciler *Reconciler, guard *CodeGuard, audit AuditRecorder, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		states:     states,
		reconciler: reconciler,
		guard:      guard,
		audit:      audit,
		logger:     logger,
	}
}

// Approve marks the case approved. Approving an already approved case is a
// local no-op that reports the current record without touching the store.
func (s *ReviewService) Approve(ctx context.Context, token, code string, claims *models.JWTClaims, confirm Confirmation) (*models.CaseFile, error) {
	if !claims.Identity() {
		return nil, appErrors.ErrMissingIdentity
	}

	if current, ok := s.reconciler.Find(code); ok && current.State == models.StateApproved {
		return &current, nil
	}

	if confirm != nil {
		ok, err := confirm.Confirm(ctx, "¿Aprobar el expediente "+code+"?")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "confirmation failed")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approval was not confirmed")
		}
	}

	return s.transition(ctx, token, code, claims, models.StateApproved, "")
}

// Reject marks the case rejected with a mandatory justification. The
// justification is trimmed and validated before any network call.
func (s *ReviewService) Reject(ctx context.Context, token, code, justification string, claims *models.JWTClaims) (*models.CaseFile, error) {
	if !claims.Identity() {
		return nil, appErrors.ErrMissingIdentity
	}

	justification = strings.TrimSpace(justification)
	if justification == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a justification is required to reject a case")
	}

	if current, ok := s.reconciler.Find(code); ok && current.State == models.StateRejected && current.Justification == justification {
		return &current, nil
	}

	return s.transition(ctx, token, code, claims, models.StateRejected, justification)
}

func (s *ReviewService) transition(ctx context.Context, token, code string, claims *models.JWTClaims, state models.ReviewState, justification string) (*models.CaseFile, error) {
	release, err := s.guard.Acquire(ctx, code)
	if err != nil {
		return nil, err
	}
	defer release()

	before, _ := s.reconciler.Find(code)

	record, err := s.states.SetState(ctx, token, code, state, justification)
	if err != nil {
		return nil, err
	}

	if record != nil {
		s.reconciler.Upsert(*record)
	}
	s.reconciler.ApplyReviewPatch(code, state, justification, claims.UserID, claims.Name)

	action := models.AuditActionCaseApprove
	if state == models.StateRejected {
		action = models.AuditActionCaseReject
	}
	after, _ := s.reconciler.Find(code)
	recordAudit(ctx, s.audit, s.logger, claims, action, code, before, after)

	s.refresh(ctx, token)

	result, ok := s.reconciler.Find(code)
	if !ok {
		if record != nil {
			return record, nil
		}
		result = before
		result.State = state
		result.Justification = justification
	}
	return &result, nil
}

// BeginRejection opens the single rejection draft slot for a code. A draft
// already open for another code is discarded.
func (s *ReviewService) BeginRejection(code string) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	if s.draft != "" && s.draft != code {
		s.logger.Debug("discarding previous rejection draft", zap.String("code", s.draft))
	}
	s.draft = code
}

// CancelRejection closes the draft slot without submitting.
func (s *ReviewService) CancelRejection() {
	s.draftMu.Lock()
	s.draft = ""
	s.draftMu.Unlock()
}

// PendingRejection reports the code currently held in the draft slot.
func (s *ReviewService) PendingRejection() (string, bool) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	return s.draft, s.draft != ""
}

// SubmitRejection validates the draft slot and executes the rejection,
// releasing the slot only when the transition succeeds.
func (s *ReviewService) SubmitRejection(ctx context.Context, token, code, justification string, claims *models.JWTClaims) (*models.CaseFile, error) {
	s.draftMu.Lock()
	open := s.draft == code
	s.draftMu.Unlock()
	if !open {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no rejection in progress for this case")
	}

	record, err := s.Reject(ctx, token, code, justification, claims)
	if err != nil {
		return nil, err
	}

	s.CancelRejection()
	return record, nil
}

func (s *ReviewService) refresh(ctx context.Context, token string) {
	if _, _, err := s.reconciler.Refresh(ctx, token, models.PageRequest{}); err != nil {
		s.logger.Warn("post-mutation refresh failed, keeping optimistic state", zap.Error(err))
	}
}

