package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	table := Table{
		Title:   "Revisión de expedientes",
		Headers: []string{"Código", "Estado", "Indicios"},
		Rows: [][]string{
			{"EXP-001", "aprobado", "3"},
			{"EXP-002", "rechazado"},
		},
	}

	out, err := exporter.Render(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Código,Estado,Indicios", lines[0])
	assert.Equal(t, "EXP-001,aprobado,3", lines[1])
	// short rows are padded to the header width
	assert.Equal(t, "EXP-002,rechazado,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{Rows: [][]string{{"x"}}})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	exporter := NewPDFExporter()
	table := Table{
		Title:   "Revisión de expedientes",
		Headers: []string{"Código", "Estado"},
		Rows:    [][]string{{"EXP-001", "pendiente"}},
	}

	out, err := exporter.Render(table)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	assert.Equal(t, "application/pdf", exporter.ContentType())
	assert.Equal(t, "pdf", exporter.Extension())
}
