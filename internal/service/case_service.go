package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/internal/dto"
	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/upstream"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// CaseEditor rewrites the mutable fields of a case on the authoritative
// store, addressed by its current code.
type CaseEditor interface {
	Update(ctx context.Context, token, code string, params upstream.EditCaseParams) (*models.CaseFile, error)
}

// CaseService serves listings from the reconciled working set and handles
// direct edits. Edits on inactive cases are refused locally, before any
// network traffic.
type CaseService struct {
	editor     CaseEditor
	reconciler *Reconciler
	guard      *CodeGuard
	audit      AuditRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

func NewCaseService(editor CaseEditor, reconciler *Reconciler, guard *CodeGuard, audit AuditRecorder, v *validator.Validate, logger *zap.Logger) *CaseService {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		editor:     editor,
		reconciler: reconciler,
		guard:      guard,
		audit:      audit,
		validator:  v,
		logger:     logger,
	}
}

// List refreshes the working set for the requested page and returns it
// without the evidence join, which the management table does not need.
// Degraded reports that the listing came from the cached snapshot because
// the upstream was unreachable.
func (s *CaseService) List(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, *models.Pagination, bool, error) {
	page = page.Normalize(0)
	cases, degraded, err := s.reconciler.Refresh(ctx, token, page)
	if err != nil {
		return nil, nil, false, err
	}
	for i := range cases {
		cases[i].Evidence = nil
	}
	pagination := &models.Pagination{Page: page.Page, PageSize: page.PageSize, TotalCount: len(cases)}
	return cases, pagination, degraded, nil
}

// ListReview returns the working set joined with evidence for the review
// board, refreshing first so coordinators always judge current records.
func (s *CaseService) ListReview(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, bool, error) {
	cases, degraded, err := s.reconciler.Refresh(ctx, token, page.Normalize(0))
	if err != nil {
		return nil, false, err
	}
	for i := range cases {
		if cases[i].Evidence == nil {
			cases[i].Evidence = []models.EvidenceItem{}
		}
	}
	return cases, degraded, nil
}

// Edit rewrites code and description of the case currently known as code.
// Inactive cases and empty fields are rejected without touching the store.
func (s *CaseService) Edit(ctx context.Context, token, code string, req dto.EditCaseRequest, claims *models.JWTClaims) (*models.CaseFile, error) {
	if !claims.Identity() {
		return nil, appErrors.ErrMissingIdentity
	}

	req.Code = strings.TrimSpace(req.Code)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "code and description are required")
	}

	if current, ok := s.reconciler.Find(code); ok && !current.Editable() {
		return nil, appErrors.ErrCaseInactive
	}

	release, err := s.guard.Acquire(ctx, code)
	if err != nil {
		return nil, err
	}
	defer release()

	before, _ := s.reconciler.Find(code)

	record, err := s.editor.Update(ctx, token, code, upstream.EditCaseParams{
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	s.reconciler.ApplyEditPatch(code, req.Code, req.Description)
	if record != nil {
		s.reconciler.Upsert(*record)
	}

	after, _ := s.reconciler.Find(req.Code)
	recordAudit(ctx, s.audit, s.logger, claims, models.AuditActionCaseEdit, req.Code, before, after)

	if _, _, err := s.reconciler.Refresh(ctx, token, models.PageRequest{}); err != nil {
		s.logger.Warn("post-edit refresh failed, keeping optimistic state", zap.Error(err))
	}

	result, ok := s.reconciler.Find(req.Code)
	if !ok {
		if record != nil {
			return record, nil
		}
		result = before
		result.Code = req.Code
		result.Description = req.Description
	}
	return &result, nil
}
