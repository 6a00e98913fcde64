package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// ActivationWriter toggles the activation flag on the authoritative store.
type ActivationWriter interface {
	SetActive(ctx context.Context, token, code string, active bool) (*models.CaseFile, error)
}

// ActivationService runs the independent activation lifecycle. Deactivation
// asks the confirmation collaborator first; reactivation never does. Review
// state and attribution fields pass through untouched.
type ActivationService struct {
	writer     ActivationWriter
	reconciler *Reconciler
	guard      *CodeGuard
	audit      AuditRecorder
	logger     *zap.Logger
}

func NewActivationService(writer ActivationWriter, reconciler *Reconciler, guard *CodeGuard, audit AuditRecorder, logger *zap.Logger) *ActivationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivationService{
		writer:     writer,
		reconciler: reconciler,
		guard:      guard,
		audit:      audit,
		logger:     logger,
	}
}

// SetActive flips the activation flag. Deactivating requires the confirmer
// to answer yes; a second toggle on a busy code fails with a conflict.
func (s *ActivationService) SetActive(ctx context.Context, token, code string, active bool, claims *models.JWTClaims, confirm Confirmation) (*models.CaseFile, error) {
	if !claims.Identity() {
		return nil, appErrors.ErrMissingIdentity
	}

	if !active {
		if confirm == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deactivation requires confirmation")
		}
		ok, err := confirm.Confirm(ctx, "¿Desactivar el expediente "+code+"?")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "confirmation failed")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deactivation was not confirmed")
		}
	}

	release, err := s.guard.Acquire(ctx, code)
	if err != nil {
		return nil, err
	}
	defer release()

	before, _ := s.reconciler.Find(code)

	record, err := s.writer.SetActive(ctx, token, code, active)
	if err != nil {
		return nil, err
	}

	if record != nil {
		s.reconciler.Upsert(*record)
	}
	s.reconciler.ApplyActivationPatch(code, active)

	action := models.AuditActionCaseActivate
	if !active {
		action = models.AuditActionCaseDeactivate
	}
	after, _ := s.reconciler.Find(code)
	recordAudit(ctx, s.audit, s.logger, claims, action, code, before, after)

	if _, _, err := s.reconciler.Refresh(ctx, token, models.PageRequest{}); err != nil {
		s.logger.Warn("post-toggle refresh failed, keeping optimistic state", zap.Error(err))
	}

	result, ok := s.reconciler.Find(code)
	if !ok {
		if record != nil {
			return record, nil
		}
		result = before
		result.Active = active
	}
	return &result, nil
}
