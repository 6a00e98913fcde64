package models

// EvidenceItem is a child record (indicio) describing a piece of physical
// evidence. It belongs to exactly one case file, referenced by the case code.
type EvidenceItem struct {
	ID          int64    `json:"id"`
	Description string   `json:"descripcion"`
	Color       string   `json:"color,omitempty"`
	Size        string   `json:"tamano,omitempty"`
	Weight      *float64 `json:"peso,omitempty"`
	Location    string   `json:"ubicacion,omitempty"`
}
