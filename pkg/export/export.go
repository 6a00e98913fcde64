package export

// Table is the positional tabular content rendered by the exporters. Rows
// must be aligned with Headers; short rows are padded with empty cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a table into downloadable bytes of a concrete format.
type Renderer interface {
	Render(table Table) ([]byte, error)
	ContentType() string
	Extension() string
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
