package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/internal/models"
)

// recordAudit persists a best-effort audit entry for a case mutation.
// Failures are logged and swallowed so auditing never blocks the workflow.
func recordAudit(ctx context.Context, audit AuditRecorder, logger *zap.Logger, claims *models.JWTClaims, action, code string, before, after models.CaseFile) {
	if audit == nil {
		return
	}
	oldValues, _ := json.Marshal(before)
	newValues, _ := json.Marshal(after)
	resourceID := code
	entry := &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "expediente",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		CreatedAt:  time.Now(),
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
