package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dicri-platform/casefile-gateway/internal/models"
)

// The legacy endpoints answer with one of three envelope shapes: a bare
// array, {"data":[...]} or {"rows":[...]}. normalizeEnvelope resolves them
// in that priority order; anything else degrades to an empty list.
func normalizeEnvelope(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array envelope: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Data []json.RawMessage `json:"data"`
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode wrapped envelope: %w", err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	if wrapped.Rows != nil {
		return wrapped.Rows, nil
	}
	return nil, nil
}

// flexInt64 tolerates numeric ids arriving as numbers or strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("parse numeric id %q: %w", s, err)
		}
		*f = flexInt64(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = flexInt64(int64(n))
	return nil
}

// flexBool coerces the activation flag from true|1|"1" (and their negatives).
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("true")):
		*f = true
	case bytes.Equal(trimmed, []byte("false")), bytes.Equal(trimmed, []byte("null")):
		*f = false
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexBool(s == "1" || strings.EqualFold(s, "true"))
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*f = n == 1
	}
	return nil
}

// flexFloat64 tolerates decimals serialized as strings, which the legacy
// store does for weight columns.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("parse decimal %q: %w", s, err)
		}
		*f = flexFloat64(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = flexFloat64(n)
	return nil
}

// flexTime accepts RFC3339 and the date-time layouts the legacy store emits.
type flexTime struct {
	value *time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		f.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		f.value = nil
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.value = &t
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

type rawCase struct {
	ID                flexInt64  `json:"id"`
	Codigo            string     `json:"codigo"`
	Descripcion       *string    `json:"descripcion"`
	FechaRegistro     flexTime   `json:"fecha_registro"`
	TecnicoID         flexInt64  `json:"tecnico_id"`
	TecnicoUsername   string     `json:"tecnico_username"`
	Estado            string     `json:"estado"`
	Justificacion     *string    `json:"justificacion"`
	AprobadorID       *flexInt64 `json:"aprobador_id"`
	AprobadorUsername *string    `json:"aprobador_username"`
	FechaEstado       flexTime   `json:"fecha_estado"`
	Activo            flexBool   `json:"activo"`
}

func (r rawCase) toModel() models.CaseFile {
	state := models.ReviewState(strings.ToLower(strings.TrimSpace(r.Estado)))
	if !state.Valid() {
		state = models.StatePending
	}

	c := models.CaseFile{
		ID:               int64(r.ID),
		Code:             r.Codigo,
		RegistrationDate: r.FechaRegistro.value,
		TechnicianID:     int64(r.TecnicoID),
		TechnicianName:   r.TecnicoUsername,
		State:            state,
		StateChangedAt:   r.FechaEstado.value,
		Active:           bool(r.Activo),
	}
	if r.Descripcion != nil {
		c.Description = *r.Descripcion
	}
	if r.Justificacion != nil {
		c.Justification = *r.Justificacion
	}
	if r.AprobadorID != nil {
		id := int64(*r.AprobadorID)
		c.ApproverID = &id
	}
	if r.AprobadorUsername != nil && *r.AprobadorUsername != "" {
		name := *r.AprobadorUsername
		c.ApproverName = &name
	}
	return c
}

type rawEvidence struct {
	ID          flexInt64    `json:"id"`
	Descripcion *string      `json:"descripcion"`
	Color       *string      `json:"color"`
	Tamano      *string      `json:"tamano"`
	Peso        *flexFloat64 `json:"peso"`
	Ubicacion   *string      `json:"ubicacion"`
}

func (r rawEvidence) toModel() models.EvidenceItem {
	e := models.EvidenceItem{
		ID: int64(r.ID),
	}
	if r.Peso != nil {
		w := float64(*r.Peso)
		e.Weight = &w
	}
	if r.Descripcion != nil {
		e.Description = *r.Descripcion
	}
	if r.Color != nil {
		e.Color = *r.Color
	}
	if r.Tamano != nil {
		e.Size = *r.Tamano
	}
	if r.Ubicacion != nil {
		e.Location = *r.Ubicacion
	}
	return e
}

func decodeCases(raw []byte) ([]models.CaseFile, error) {
	items, err := normalizeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	cases := make([]models.CaseFile, 0, len(items))
	for _, item := range items {
		var rc rawCase
		if err := json.Unmarshal(item, &rc); err != nil {
			return nil, fmt.Errorf("decode case record: %w", err)
		}
		cases = append(cases, rc.toModel())
	}
	return cases, nil
}

func decodeEvidence(raw []byte) ([]models.EvidenceItem, error) {
	items, err := normalizeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	evidence := make([]models.EvidenceItem, 0, len(items))
	for _, item := range items {
		var re rawEvidence
		if err := json.Unmarshal(item, &re); err != nil {
			return nil, fmt.Errorf("decode evidence record: %w", err)
		}
		evidence = append(evidence, re.toModel())
	}
	return evidence, nil
}

// decodeSingleCase tolerates mutation responses that wrap or omit the
// updated record.
func decodeSingleCase(raw []byte) *models.CaseFile {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var probe struct {
		Codigo string          `json:"codigo"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil
	}
	payload := trimmed
	if probe.Codigo == "" {
		if len(probe.Data) == 0 {
			return nil
		}
		payload = bytes.TrimSpace(probe.Data)
		if len(payload) == 0 || payload[0] != '{' {
			return nil
		}
	}
	var rc rawCase
	if err := json.Unmarshal(payload, &rc); err != nil {
		return nil
	}
	if rc.Codigo == "" {
		return nil
	}
	c := rc.toModel()
	return &c
}
