package dto

// ListQuery carries pagination parameters from the UI.
type ListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// EditCaseRequest updates code and description of a case file. The request
// is addressed by the case's current code; a different Code value renames it.
type EditCaseRequest struct {
	Code        string `json:"codigo" validate:"required"`
	Description string `json:"descripcion" validate:"required"`
}

// ApproveCaseRequest confirms an approval transition.
type ApproveCaseRequest struct {
	Confirmed bool `json:"confirmado"`
}

// RejectCaseRequest carries the mandatory rejection justification.
type RejectCaseRequest struct {
	Justification string `json:"justificacion" validate:"required"`
}

// SetActiveRequest toggles the activation flag. Deactivation must carry an
// explicit confirmation; reactivation does not.
type SetActiveRequest struct {
	Active    bool `json:"activo"`
	Confirmed bool `json:"confirmado"`
}

// ExportRequest selects the rendering format for a review-board export.
type ExportRequest struct {
	Format string `json:"formato" validate:"required,oneof=csv pdf"`
}
