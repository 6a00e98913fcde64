package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dicri-platform/casefile-gateway/internal/models"
)

// AuditRepository persists the local audit trail of review and lifecycle
// actions. The trail is the gateway's own record; the authoritative case
// data lives upstream.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog stores an audit log entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByCase returns the audit entries recorded for a case code, latest first.
func (r *AuditRepository) ListByCase(ctx context.Context, code string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at
	FROM audit_logs WHERE resource_id = $1 ORDER BY created_at DESC LIMIT $2`
	logs := []models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, query, code, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
