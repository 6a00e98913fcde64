package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicri-platform/casefile-gateway/internal/dto"
	"github.com/dicri-platform/casefile-gateway/internal/models"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

func newCaseFixture(t *testing.T, cases ...models.CaseFile) (*CaseService, *upstreamStub) {
	t.Helper()
	stub := &upstreamStub{cases: cases}
	rec := NewReconciler(stub, nil, nil, nil)
	_, _, err := rec.Refresh(context.Background(), "tok", models.PageRequest{})
	require.NoError(t, err)
	svc := NewCaseService(stub, rec, NewCodeGuard(nil, 0, nil), nil, nil, nil)
	return svc, stub
}

func TestListStripsEvidence(t *testing.T) {
	withEvidence := pendingCase("A")
	stub := &upstreamStub{
		cases:    []models.CaseFile{withEvidence},
		evidence: map[string][]models.EvidenceItem{"A": {{ID: 1}}},
	}
	agg := NewEvidenceAggregator(stub, 2, nil, nil)
	rec := NewReconciler(stub, agg, nil, nil)
	svc := NewCaseService(stub, rec, NewCodeGuard(nil, 0, nil), nil, nil, nil)

	cases, pagination, degraded, err := svc.List(context.Background(), "tok", models.PageRequest{})
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, cases, 1)
	assert.Nil(t, cases[0].Evidence)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)

	// the review board keeps the join
	review, _, err := svc.ListReview(context.Background(), "tok", models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, review, 1)
	assert.Len(t, review[0].Evidence, 1)
}

func TestEditInactiveCaseNoNetworkCall(t *testing.T) {
	inactive := pendingCase("A")
	inactive.Active = false
	svc, stub := newCaseFixture(t, inactive)

	_, err := svc.Edit(context.Background(), "tok", "A",
		dto.EditCaseRequest{Code: "A", Description: "nuevo"}, coordinatorClaims())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCaseInactive))
	assert.Zero(t, stub.updateCalls)
}

func TestEditValidatesFields(t *testing.T) {
	svc, stub := newCaseFixture(t, pendingCase("A"))

	_, err := svc.Edit(context.Background(), "tok", "A",
		dto.EditCaseRequest{Code: "A", Description: "   "}, coordinatorClaims())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Edit(context.Background(), "tok", "A",
		dto.EditCaseRequest{Code: "", Description: "desc"}, coordinatorClaims())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Zero(t, stub.updateCalls)
}

func TestEditRequiresIdentity(t *testing.T) {
	svc, stub := newCaseFixture(t, pendingCase("A"))

	_, err := svc.Edit(context.Background(), "tok", "A",
		dto.EditCaseRequest{Code: "A", Description: "desc"}, nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrMissingIdentity))
	assert.Zero(t, stub.updateCalls)
}

func TestEditRenamesCase(t *testing.T) {
	svc, stub := newCaseFixture(t, pendingCase("EXP-001"))

	record, err := svc.Edit(context.Background(), "tok", "EXP-001",
		dto.EditCaseRequest{Code: "EXP-002", Description: "actualizado"}, coordinatorClaims())
	require.NoError(t, err)
	assert.Equal(t, "EXP-002", record.Code)
	assert.Equal(t, "actualizado", record.Description)
	assert.Equal(t, 1, stub.updateCalls)
}

func TestEditUnknownCodeSurfacesNotFound(t *testing.T) {
	svc, _ := newCaseFixture(t, pendingCase("A"))

	_, err := svc.Edit(context.Background(), "tok", "NOPE",
		dto.EditCaseRequest{Code: "NOPE", Description: "desc"}, coordinatorClaims())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
