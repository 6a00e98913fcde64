package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dicri-platform/casefile-gateway/internal/dto"
	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/service"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
	"github.com/dicri-platform/casefile-gateway/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, token, format string, claims *models.JWTClaims) (*service.ExportResult, error)
	Open(requested, token string) (*os.File, string, error)
}

// ExportHandler renders review-board exports and serves signed downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Generate godoc
// @Summary Export the review board as CSV or PDF
// @Tags Exportes
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export format"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	result, err := h.exports.Generate(c.Request.Context(), tokenFromContext(c), req.Format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a generated export
// @Tags Exportes
// @Produce octet-stream
// @Param file path string true "Export filename"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/{file} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token required"))
		return
	}

	file, contentType, err := h.exports.Open(c.Param("file"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stat export file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
