package models

import "time"

// ReviewState is the review outcome of a case file. Wire values stay in
// Spanish to match the authoritative API.
type ReviewState string

const (
	StatePending  ReviewState = "pendiente"
	StateApproved ReviewState = "aprobado"
	StateRejected ReviewState = "rechazado"
)

// Valid reports whether the state is one of the known review states.
func (s ReviewState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

// CaseFile is the primary reviewable record (expediente). The business key
// is Code; ID is a server-assigned surrogate and never used for lookups.
type CaseFile struct {
	ID               int64          `json:"id"`
	Code             string         `json:"codigo"`
	Description      string         `json:"descripcion"`
	RegistrationDate *time.Time     `json:"fecha_registro"`
	TechnicianID     int64          `json:"tecnico_id"`
	TechnicianName   string         `json:"tecnico_username,omitempty"`
	State            ReviewState    `json:"estado"`
	Justification    string         `json:"justificacion,omitempty"`
	ApproverID       *int64         `json:"aprobador_id,omitempty"`
	ApproverName     *string        `json:"aprobador_username,omitempty"`
	StateChangedAt   *time.Time     `json:"fecha_estado,omitempty"`
	Active           bool           `json:"activo"`
	Evidence         []EvidenceItem `json:"indicios,omitempty"`
}

// Editable reports whether the case accepts code/description edits.
func (c *CaseFile) Editable() bool {
	return c != nil && c.Active
}
