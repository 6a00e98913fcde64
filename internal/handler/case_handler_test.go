package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicri-platform/casefile-gateway/internal/dto"
	"github.com/dicri-platform/casefile-gateway/internal/middleware"
	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/service"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type fakeCaseSrv struct {
	cases      []models.CaseFile
	pagination *models.Pagination
	degraded   bool
	err        error

	lastPage models.PageRequest
	lastEdit dto.EditCaseRequest
	lastCode string
}

func (f *fakeCaseSrv) List(_ context.Context, _ string, page models.PageRequest) ([]models.CaseFile, *models.Pagination, bool, error) {
	f.lastPage = page
	return f.cases, f.pagination, f.degraded, f.err
}

func (f *fakeCaseSrv) ListReview(_ context.Context, _ string, page models.PageRequest) ([]models.CaseFile, bool, error) {
	f.lastPage = page
	return f.cases, f.degraded, f.err
}

func (f *fakeCaseSrv) Edit(_ context.Context, _ string, code string, req dto.EditCaseRequest, _ *models.JWTClaims) (*models.CaseFile, error) {
	f.lastCode = code
	f.lastEdit = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.CaseFile{Code: req.Code, Description: req.Description, Active: true}, nil
}

type fakeReviewSrv struct {
	err           error
	confirmed     bool
	justification string
	lastCode      string
}

func (f *fakeReviewSrv) Approve(ctx context.Context, _ string, code string, _ *models.JWTClaims, confirm service.Confirmation) (*models.CaseFile, error) {
	f.lastCode = code
	if confirm != nil {
		f.confirmed, _ = confirm.Confirm(ctx, "")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.CaseFile{Code: code, State: models.StateApproved, Active: true}, nil
}

func (f *fakeReviewSrv) Reject(_ context.Context, _ string, code, justification string, _ *models.JWTClaims) (*models.CaseFile, error) {
	f.lastCode = code
	f.justification = justification
	if f.err != nil {
		return nil, f.err
	}
	return &models.CaseFile{Code: code, State: models.StateRejected, Justification: justification, Active: true}, nil
}

type fakeActivationSrv struct {
	err        error
	lastActive bool
	confirmed  bool
}

func (f *fakeActivationSrv) SetActive(ctx context.Context, _ string, code string, active bool, _ *models.JWTClaims, confirm service.Confirmation) (*models.CaseFile, error) {
	f.lastActive = active
	if confirm != nil {
		f.confirmed, _ = confirm.Confirm(ctx, "")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.CaseFile{Code: code, Active: active}, nil
}

func testContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
		c.Request = httptest.NewRequest(method, target, reader)
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 7, Name: "Ana", Role: models.RoleCoordinator})
	c.Set(middleware.ContextTokenKey, "tok")
	return c, rec
}

func TestCaseHandlerList(t *testing.T) {
	srv := &fakeCaseSrv{
		cases:      []models.CaseFile{{Code: "EXP-001", State: models.StatePending, Active: true}},
		pagination: &models.Pagination{Page: 2, PageSize: 10},
	}
	handler := NewCaseHandler(srv, nil, nil)

	c, rec := testContext(t, http.MethodGet, "/expedientes?page=2&pageSize=10", "")
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.lastPage.Page)
	assert.Equal(t, 10, srv.lastPage.PageSize)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
	assert.Nil(t, envelope.Meta)
}

func TestCaseHandlerListDegradedMeta(t *testing.T) {
	srv := &fakeCaseSrv{degraded: true}
	handler := NewCaseHandler(srv, nil, nil)

	c, rec := testContext(t, http.MethodGet, "/expedientes", "")
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["degraded"])
}

func TestCaseHandlerListUpstreamError(t *testing.T) {
	srv := &fakeCaseSrv{err: appErrors.Clone(appErrors.ErrUpstream, "no disponible")}
	handler := NewCaseHandler(srv, nil, nil)

	c, rec := testContext(t, http.MethodGet, "/expedientes", "")
	handler.List(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "no disponible", envelope.Error.Message)
}

func TestCaseHandlerEdit(t *testing.T) {
	srv := &fakeCaseSrv{}
	handler := NewCaseHandler(srv, nil, nil)

	c, rec := testContext(t, http.MethodPut, "/expedientes/EXP-001",
		`{"codigo":"EXP-002","descripcion":"nuevo"}`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.Edit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EXP-001", srv.lastCode)
	assert.Equal(t, "EXP-002", srv.lastEdit.Code)
}

func TestCaseHandlerEditMalformedBody(t *testing.T) {
	handler := NewCaseHandler(&fakeCaseSrv{}, nil, nil)

	c, rec := testContext(t, http.MethodPut, "/expedientes/EXP-001", `{"codigo":`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.Edit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaseHandlerEditInactiveConflict(t *testing.T) {
	srv := &fakeCaseSrv{err: appErrors.ErrCaseInactive}
	handler := NewCaseHandler(srv, nil, nil)

	c, rec := testContext(t, http.MethodPut, "/expedientes/EXP-001",
		`{"codigo":"EXP-001","descripcion":"nuevo"}`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.Edit(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCaseHandlerApprovePassesConfirmation(t *testing.T) {
	srv := &fakeReviewSrv{}
	handler := NewCaseHandler(nil, srv, nil)

	c, rec := testContext(t, http.MethodPost, "/expedientes/EXP-001/aprobar", `{"confirmado":true}`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EXP-001", srv.lastCode)
	assert.True(t, srv.confirmed)
}

func TestCaseHandlerRejectForwardsJustification(t *testing.T) {
	srv := &fakeReviewSrv{}
	handler := NewCaseHandler(nil, srv, nil)

	c, rec := testContext(t, http.MethodPost, "/expedientes/EXP-001/rechazar",
		`{"justificacion":"faltan indicios"}`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.Reject(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "faltan indicios", srv.justification)
}

func TestCaseHandlerRejectMissingIdentity(t *testing.T) {
	srv := &fakeReviewSrv{err: appErrors.ErrMissingIdentity}
	handler := NewCaseHandler(nil, srv, nil)

	c, rec := testContext(t, http.MethodPost, "/expedientes/EXP-001/rechazar",
		`{"justificacion":"motivo"}`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.Reject(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCaseHandlerSetActive(t *testing.T) {
	srv := &fakeActivationSrv{}
	handler := NewCaseHandler(nil, nil, srv)

	c, rec := testContext(t, http.MethodPatch, "/expedientes/EXP-001/activo",
		`{"activo":false,"confirmado":true}`)
	c.Params = gin.Params{{Key: "codigo", Value: "EXP-001"}}
	handler.SetActive(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, srv.lastActive)
	assert.True(t, srv.confirmed)
}
