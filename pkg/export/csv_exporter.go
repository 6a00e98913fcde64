package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders tables into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the table. The title is omitted,
// CSV consumers only want the grid.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i := range table.Headers {
			record[i] = cell(row, i)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType names the MIME type served for CSV downloads.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension is the filename suffix for CSV exports.
func (e *CSVExporter) Extension() string { return "csv" }
