package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/pkg/config"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// The legacy router is case-sensitive: listing endpoints use a capitalized
// prefix while the per-code mutation endpoints are lowercase.
const (
	listPath   = "/Expedientes"
	byCodePath = "/expedientes"
)

// CaseRepository reads and mutates case files on the authoritative store.
// All lookups and mutations are addressed by the business code, never by
// the surrogate id.
type CaseRepository struct {
	client           *Client
	pageSize         int
	evidencePageSize int
}

// NewCaseRepository builds a repository on top of the shared client.
func NewCaseRepository(client *Client, cfg config.UpstreamConfig) *CaseRepository {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	evidencePageSize := cfg.EvidencePageSize
	if evidencePageSize <= 0 {
		evidencePageSize = 50
	}
	return &CaseRepository{client: client, pageSize: pageSize, evidencePageSize: evidencePageSize}
}

// List fetches a page of case files, normalizing whichever envelope shape
// the upstream answers with.
func (r *CaseRepository) List(ctx context.Context, token string, page models.PageRequest) ([]models.CaseFile, error) {
	page = page.Normalize(r.pageSize)
	query := url.Values{}
	query.Set("page", strconv.Itoa(page.Page))
	query.Set("pageSize", strconv.Itoa(page.PageSize))

	raw, err := r.client.do(ctx, token, "GET", listPath, query, nil)
	if err != nil {
		return nil, err
	}

	cases, err := decodeCases(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed case listing")
	}
	return cases, nil
}

// ListEvidence fetches the first page of evidence items for a case code.
func (r *CaseRepository) ListEvidence(ctx context.Context, token, code string) ([]models.EvidenceItem, error) {
	query := url.Values{}
	query.Set("q", "")
	query.Set("page", "1")
	query.Set("pageSize", strconv.Itoa(r.evidencePageSize))

	raw, err := r.client.do(ctx, token, "GET", listPath+"/"+url.PathEscape(code)+"/Indicios", query, nil)
	if err != nil {
		return nil, err
	}

	evidence, err := decodeEvidence(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed evidence listing")
	}
	return evidence, nil
}

// EditCaseParams is the mutable subset of a case file.
type EditCaseParams struct {
	Code        string
	Description string
}

// Update edits code and description of the case currently known as code.
// Passing a different Code in the payload renames the record.
func (r *CaseRepository) Update(ctx context.Context, token, code string, req EditCaseParams) (*models.CaseFile, error) {
	raw, err := r.client.do(ctx, token, "PUT", byCodePath+"/"+url.PathEscape(code), nil, map[string]string{
		"codigo":      req.Code,
		"descripcion": req.Description,
	})
	if err != nil {
		return nil, err
	}
	return decodeSingleCase(raw), nil
}

// SetActive toggles the independent activation flag. The review state and
// approver attribution are left untouched by the upstream.
func (r *CaseRepository) SetActive(ctx context.Context, token, code string, active bool) (*models.CaseFile, error) {
	raw, err := r.client.do(ctx, token, "PATCH", byCodePath+"/"+url.PathEscape(code)+"/activo", nil, map[string]bool{
		"activo": active,
	})
	if err != nil {
		return nil, err
	}
	return decodeSingleCase(raw), nil
}

// SetState executes a review transition. Justification must already be
// validated by the caller: required for rechazado, empty for aprobado.
func (r *CaseRepository) SetState(ctx context.Context, token, code string, state models.ReviewState, justification string) (*models.CaseFile, error) {
	raw, err := r.client.do(ctx, token, "PATCH", byCodePath+"/"+url.PathEscape(code)+"/estado", nil, map[string]string{
		"estado":        string(state),
		"justificacion": justification,
	})
	if err != nil {
		return nil, err
	}
	return decodeSingleCase(raw), nil
}
