// Package table holds the in-memory tabular structure built from an uploaded
// delimited text file, and the loader that produces it.
package table

// DefaultPreviewRows is the number of rows shown before a prompt is asked.
const DefaultPreviewRows = 3

// Table is a read-only grid of string cells with named columns.
// Every row has exactly len(Columns) cells.
type Table struct {
	// Name is the originating file name, if known.
	Name string
	// Fingerprint identifies the source bytes (hex sha256); empty for derived tables.
	Fingerprint string
	Columns     []string
	Rows        [][]string
}

// New builds a table from columns and rows, padding or truncating rows to the
// column count so the arity invariant holds.
func New(columns []string, rows [][]string) *Table {
	cols := append([]string(nil), columns...)
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(cols))
		copy(row, r)
		out[i] = row
	}
	return &Table{Columns: cols, Rows: out}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns a copy of the column labels.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.Columns...)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns row i as a label-to-value mapping.
func (t *Table) Row(i int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		m[c] = t.Rows[i][j]
	}
	return m
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Preview returns a new table holding the first n rows. n <= 0 uses
// DefaultPreviewRows.
func (t *Table) Preview(n int) *Table {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	p := New(t.Columns, t.Rows[:n])
	p.Name = t.Name
	return p
}
