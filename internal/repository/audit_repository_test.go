package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicri-platform/casefile-gateway/internal/models"
)

func newAuditRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuditRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateAuditLogFillsDefaults(t *testing.T) {
	repo, mock := newAuditRepo(t)

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	userID := int64(7)
	code := "EXP-001"
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionCaseReject,
		Resource:   "expediente",
		ResourceID: &code,
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCase(t *testing.T) {
	repo, mock := newAuditRepo(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "resource", "resource_id", "old_values", "new_values", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", int64(7), models.AuditActionCaseApprove, "expediente", "EXP-001", []byte(`{}`), []byte(`{}`), "", "", time.Now())
	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE resource_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("EXP-001", 50).
		WillReturnRows(rows)

	logs, err := repo.ListByCase(context.Background(), "EXP-001", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCaseApprove, logs[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
