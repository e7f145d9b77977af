// Package store loads a table into an in-memory SQLite database so that
// generated SQL can be run against it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/ICE3BR/IA-Data-Analysis/internal/analysis"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// TableName is the name the loaded data is exposed under.
const TableName = "dataset"

// Store is a single in-memory database holding one table.
type Store struct {
	db      *sql.DB
	report  *analysis.Report
	columns []string
	// SQL column name to table label, for columns renamed by sqlNames
	labels map[string]string
}

// Open creates an in-memory database and loads t into TableName. Numeric
// columns (as profiled by rep) are stored as REAL, everything else as TEXT;
// empty cells become NULL.
func Open(ctx context.Context, t *table.Table, rep *analysis.Report) (*Store, error) {
	if rep == nil {
		rep = analysis.Summarize(t, analysis.DefaultOptions())
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	s := &Store{db: db, report: rep, labels: map[string]string{}}
	s.columns = sqlNames(t.Columns)
	for i, name := range s.columns {
		if name != t.Columns[i] {
			s.labels[name] = t.Columns[i]
		}
	}
	if err := s.load(ctx, t); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// DDL returns the CREATE TABLE statement used for the loaded table.
func (s *Store) DDL() string { return createStatement(s.report, s.columns) }

// Label returns the table label behind a SQL column name. Names that were
// not renamed are returned unchanged.
func (s *Store) Label(name string) string {
	if l, ok := s.labels[name]; ok {
		return l
	}
	return name
}

// sqlNames makes labels usable as SQLite columns. SQLite compares column
// names case-insensitively, so "Name" and "name" cannot coexist; later
// clashes get a numeric suffix.
func sqlNames(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, len(labels))
	for i, l := range labels {
		name := l
		for n := 1; seen[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", l, n)
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func (s *Store) load(ctx context.Context, t *table.Table) error {
	if _, err := s.db.ExecContext(ctx, s.DDL()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if len(t.Rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	marks := strings.TrimSuffix(strings.Repeat("?,", len(t.Columns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", TableName, marks)) //nolint:gosec // fixed table name
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	numeric := make([]bool, len(t.Columns))
	for i, c := range s.report.Cols {
		numeric[i] = c.Kind == analysis.KindNumeric
	}
	args := make([]any, len(t.Columns))
	for i, row := range t.Rows {
		for j, v := range row {
			args[j] = cellValue(v, numeric[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func cellValue(v string, numeric bool) any {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	if numeric {
		if f, ok := analysis.ParseNumber(trimmed); ok {
			return f
		}
	}
	return v
}

func createStatement(rep *analysis.Report, names []string) string {
	defs := make([]string, len(rep.Cols))
	for i, c := range rep.Cols {
		name := c.Name
		if i < len(names) {
			name = names[i]
		}
		defs[i] = QuoteIdent(name) + " " + c.SQLType()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(defs, ", "))
}

// QuoteIdent quotes a column name for use in SQL.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Query runs a read query and returns its result as a table.
func (s *Store) Query(ctx context.Context, query string) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]string
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range values {
			rec[i] = FormatValue(v)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, c := range cols {
		cols[i] = s.Label(c)
	}
	return table.New(table.NormalizeColumns(cols), out), nil
}

// FormatValue renders a scanned SQL value the way it is shown to users.
// NULL becomes an empty cell; whole floats drop their fraction.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case float64:
		if x == float64(int64(x)) && x < 1e15 && x > -1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
