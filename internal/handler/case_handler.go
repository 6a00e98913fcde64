package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dicri-platform/casefile-gateway/internal/dto"
	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/service"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
	"github.com/dicri-platform/casefile-gateway/pkg/response"
)

type caseService interface {
	List(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, *models.Pagination, bool, error)
	ListReview(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, bool, error)
	Edit(ctx context.Context, token, code string, req dto.EditCaseRequest, claims *models.JWTClaims) (*models.CaseFile, error)
}

type reviewService interface {
	Approve(ctx context.Context, token, code string, claims *models.JWTClaims, confirm service.Confirmation) (*models.CaseFile, error)
	Reject(ctx context.Context, token, code, justification string, claims *models.JWTClaims) (*models.CaseFile, error)
}

type activationService interface {
	SetActive(ctx context.Context, token, code string, active bool, claims *models.JWTClaims, confirm service.Confirmation) (*models.CaseFile, error)
}

// CaseHandler exposes the case-file listings and the review workflow.
type CaseHandler struct {
	cases      caseService
	review     reviewService
	activation activationService
}

// NewCaseHandler constructs the handler.
func NewCaseHandler(cases caseService, review reviewService, activation activationService) *CaseHandler {
	return &CaseHandler{cases: cases, review: review, activation: activation}
}

func degradedMeta(degraded bool) map[string]interface{} {
	if !degraded {
		return nil
	}
	return map[string]interface{}{"degraded": true}
}

// List godoc
// @Summary List case files
// @Tags Expedientes
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /expedientes [get]
func (h *CaseHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid pagination parameters"))
		return
	}
	cases, pagination, degraded, err := h.cases.List(c.Request.Context(), tokenFromContext(c),
		models.PageRequest{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, pagination, degradedMeta(degraded))
}

// ListReview godoc
// @Summary List case files with evidence for the review board
// @Tags Expedientes
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /expedientes/revision [get]
func (h *CaseHandler) ListReview(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid pagination parameters"))
		return
	}
	cases, degraded, err := h.cases.ListReview(c.Request.Context(), tokenFromContext(c),
		models.PageRequest{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, nil, degradedMeta(degraded))
}

// Edit godoc
// @Summary Edit code and description of a case file
// @Tags Expedientes
// @Accept json
// @Produce json
// @Param codigo path string true "Current case code"
// @Param payload body dto.EditCaseRequest true "New code and description"
// @Success 200 {object} response.Envelope
// @Router /expedientes/{codigo} [put]
func (h *CaseHandler) Edit(c *gin.Context) {
	var req dto.EditCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid edit payload"))
		return
	}
	record, err := h.cases.Edit(c.Request.Context(), tokenFromContext(c), c.Param("codigo"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SetActive godoc
// @Summary Toggle the activation flag of a case file
// @Tags Expedientes
// @Accept json
// @Produce json
// @Param codigo path string true "Case code"
// @Param payload body dto.SetActiveRequest true "Target flag and confirmation"
// @Success 200 {object} response.Envelope
// @Router /expedientes/{codigo}/activo [patch]
func (h *CaseHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid activation payload"))
		return
	}
	record, err := h.activation.SetActive(c.Request.Context(), tokenFromContext(c), c.Param("codigo"),
		req.Active, claimsFromContext(c), service.StaticConfirmation(req.Confirmed))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Approve godoc
// @Summary Approve a case file
// @Tags Revision
// @Accept json
// @Produce json
// @Param codigo path string true "Case code"
// @Param payload body dto.ApproveCaseRequest true "Confirmation"
// @Success 200 {object} response.Envelope
// @Router /expedientes/{codigo}/aprobar [post]
func (h *CaseHandler) Approve(c *gin.Context) {
	var req dto.ApproveCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approval payload"))
		return
	}
	record, err := h.review.Approve(c.Request.Context(), tokenFromContext(c), c.Param("codigo"),
		claimsFromContext(c), service.StaticConfirmation(req.Confirmed))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Reject godoc
// @Summary Reject a case file with a justification
// @Tags Revision
// @Accept json
// @Produce json
// @Param codigo path string true "Case code"
// @Param payload body dto.RejectCaseRequest true "Justification"
// @Success 200 {object} response.Envelope
// @Router /expedientes/{codigo}/rechazar [post]
func (h *CaseHandler) Reject(c *gin.Context) {
	var req dto.RejectCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	record, err := h.review.Reject(c.Request.Context(), tokenFromContext(c), c.Param("codigo"),
		req.Justification, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
