package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/service"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

type fakeExportSrv struct {
	result *service.ExportResult
	path   string
	err    error

	lastFormat    string
	lastRequested string
	lastToken     string
}

func (f *fakeExportSrv) Generate(_ context.Context, _ string, format string, _ *models.JWTClaims) (*service.ExportResult, error) {
	f.lastFormat = format
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeExportSrv) Open(requested, token string) (*os.File, string, error) {
	f.lastRequested = requested
	f.lastToken = token
	if f.err != nil {
		return nil, "", f.err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, "", err
	}
	return file, "text/csv", nil
}

func TestExportHandlerGenerate(t *testing.T) {
	srv := &fakeExportSrv{result: &service.ExportResult{
		Filename:    "revision-20260301-103000.csv",
		Token:       "signed",
		ContentType: "text/csv",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	handler := NewExportHandler(srv)

	c, rec := testContext(t, http.MethodPost, "/exports", `{"formato":"csv"}`)
	handler.Generate(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "csv", srv.lastFormat)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	assert.Equal(t, "revision-20260301-103000.csv", result["archivo"])
	assert.Equal(t, "signed", result["token"])
}

func TestExportHandlerGenerateUnknownFormat(t *testing.T) {
	srv := &fakeExportSrv{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	handler := NewExportHandler(srv)

	c, rec := testContext(t, http.MethodPost, "/exports", `{"formato":"xml"}`)
	handler.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revision.csv")
	require.NoError(t, os.WriteFile(path, []byte("codigo,estado\nEXP-001,aprobado\n"), 0o644))

	srv := &fakeExportSrv{path: path}
	handler := NewExportHandler(srv)

	c, rec := testContext(t, http.MethodGet, "/exports/revision.csv?token=signed", "")
	c.Params = gin.Params{{Key: "file", Value: "revision.csv"}}
	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "revision.csv", srv.lastRequested)
	assert.Equal(t, "signed", srv.lastToken)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "revision.csv")
	assert.Contains(t, rec.Body.String(), "EXP-001")
}

func TestExportHandlerDownloadMissingToken(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{})

	c, rec := testContext(t, http.MethodGet, "/exports/revision.csv", "")
	c.Params = gin.Params{{Key: "file", Value: "revision.csv"}}
	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportHandlerDownloadBadToken(t *testing.T) {
	srv := &fakeExportSrv{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")}
	handler := NewExportHandler(srv)

	c, rec := testContext(t, http.MethodGet, "/exports/revision.csv?token=garbage", "")
	c.Params = gin.Params{{Key: "file", Value: "revision.csv"}}
	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
