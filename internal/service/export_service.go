package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
	"github.com/dicri-platform/casefile-gateway/pkg/export"
	"github.com/dicri-platform/casefile-gateway/pkg/storage"
)

// fileStorage persists rendered export files.
type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportResult points a client at a finished export download.
type ExportResult struct {
	Filename    string    `json:"archivo"`
	Token       string    `json:"token"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expira"`
}

// ExportService renders the current review board into a downloadable file
// and hands out HMAC signed download tokens.
type ExportService struct {
	reconciler *Reconciler
	storage    fileStorage
	signer     *storage.SignedURLSigner
	renderers  map[string]export.Renderer
	audit      AuditRecorder
	logger     *zap.Logger
}

func NewExportService(reconciler *Reconciler, files fileStorage, signer *storage.SignedURLSigner, audit AuditRecorder, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reconciler: reconciler,
		storage:    files,
		signer:     signer,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		audit:  audit,
		logger: logger,
	}
}

// Generate refreshes the working set, renders it in the requested format
// and returns the signed download reference.
func (s *ExportService) Generate(ctx context.Context, token, format string, claims *models.JWTClaims) (*ExportResult, error) {
	if !claims.Identity() {
		return nil, appErrors.ErrMissingIdentity
	}

	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	cases, _, err := s.reconciler.Refresh(ctx, token, models.PageRequest{})
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(buildReviewTable(cases))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export rendering failed")
	}

	filename := fmt.Sprintf("revision-%s.%s", time.Now().Format("20060102-150405"), renderer.Extension())
	if _, err := s.storage.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export storage failed")
	}

	downloadToken, expiresAt, err := s.signer.Sign(filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export signing failed")
	}

	if s.audit != nil {
		resourceID := filename
		entry := &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     models.AuditActionExport,
			Resource:   "export",
			ResourceID: &resourceID,
			CreatedAt:  time.Now(),
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("action", models.AuditActionExport), zap.Error(err))
		}
	}

	return &ExportResult{
		Filename:    filename,
		Token:       downloadToken,
		ContentType: renderer.ContentType(),
		ExpiresAt:   expiresAt,
	}, nil
}

// Open validates a download token and returns the file it references along
// with its content type.
func (s *ExportService) Open(requested, token string) (*os.File, string, error) {
	filename, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	if filename != requested {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "token does not match the requested file")
	}

	file, err := s.storage.Open(filename)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(filename, ".csv"):
		contentType = "text/csv"
	case strings.HasSuffix(filename, ".pdf"):
		contentType = "application/pdf"
	}
	return file, contentType, nil
}

// Cleanup removes exports older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func buildReviewTable(cases []models.CaseFile) export.Table {
	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		approver := ""
		if c.ApproverName != nil {
			approver = *c.ApproverName
		}
		changed := ""
		if c.StateChangedAt != nil {
			changed = c.StateChangedAt.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			c.Code,
			c.Description,
			string(c.State),
			c.Justification,
			approver,
			changed,
			strconv.FormatBool(c.Active),
			strconv.Itoa(len(c.Evidence)),
		})
	}
	return export.Table{
		Title:   "Revisión de expedientes",
		Headers: []string{"Código", "Descripción", "Estado", "Justificación", "Aprobador", "Fecha estado", "Activo", "Indicios"},
		Rows:    rows,
	}
}
