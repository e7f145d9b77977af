package store

import (
	"context"
	"strings"
	"testing"

	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

func openPeople(t *testing.T) *Store {
	t.Helper()
	data := " Name ,Age,City\nAna,30,Lisbon\nBruno,25,Porto\nCarla,41,\nDiego,,Lisbon\n"
	tbl, err := table.Load("people.csv", []byte(data), table.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := Open(context.Background(), tbl, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreDDLUsesProfiledTypes(t *testing.T) {
	s := openPeople(t)
	ddl := s.DDL()
	want := `CREATE TABLE dataset ("Name" TEXT, "Age" REAL, "City" TEXT)`
	if ddl != want {
		t.Fatalf("DDL = %s\nwant  %s", ddl, want)
	}
}

func TestStoreQueryOrdersNumerically(t *testing.T) {
	s := openPeople(t)
	got, err := s.Query(context.Background(), `SELECT "Name", "Age" FROM dataset WHERE "Age" IS NOT NULL ORDER BY "Age"`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.Join(got.Columns, ",") != "Name,Age" {
		t.Fatalf("columns = %v", got.Columns)
	}
	names, _ := got.Column("Name")
	if strings.Join(names, ",") != "Bruno,Ana,Carla" {
		t.Fatalf("order = %v", names)
	}
	if got.Rows[0][1] != "25" {
		t.Fatalf("whole floats should render without fraction, got %q", got.Rows[0][1])
	}
}

func TestStoreNullsAndAggregates(t *testing.T) {
	s := openPeople(t)
	got, err := s.Query(context.Background(), `SELECT AVG("Age") AS avg_age, COUNT("City") AS cities FROM dataset`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.Len() != 1 || got.Rows[0][1] != "3" {
		t.Fatalf("unexpected aggregate: %v", got.Rows)
	}
	if !strings.HasPrefix(got.Rows[0][0], "32") {
		t.Fatalf("avg_age = %q", got.Rows[0][0])
	}
}

func TestStoreDuplicateResultColumns(t *testing.T) {
	s := openPeople(t)
	got, err := s.Query(context.Background(), `SELECT "Name", "Name" FROM dataset LIMIT 1`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.Join(got.Columns, ",") != "Name,Name.1" {
		t.Fatalf("columns = %v", got.Columns)
	}
}

func TestStoreBadSQL(t *testing.T) {
	s := openPeople(t)
	if _, err := s.Query(context.Background(), `SELECT nope FROM dataset`); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestFormatValue(t *testing.T) {
	cases := map[string]any{
		"":     nil,
		"abc":  []byte("abc"),
		"2":    float64(2),
		"2.5":  2.5,
		"7":    int64(7),
		"true": true,
	}
	for want, in := range cases {
		if got := FormatValue(in); got != want {
			t.Errorf("FormatValue(%#v) = %q, want %q", in, got, want)
		}
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := QuoteIdent(`a"b`); got != `"a""b"` {
		t.Fatalf("QuoteIdent = %s", got)
	}
}

func TestStoreCaseClashingLabels(t *testing.T) {
	tbl, err := table.Load("clash.csv", []byte("Name,name,name_1\nAna,ana,x\nBruno,bruno,y\n"), table.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := Open(context.Background(), tbl, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	want := `CREATE TABLE dataset ("Name" TEXT, "name_1" TEXT, "name_1_1" TEXT)`
	if ddl := s.DDL(); ddl != want {
		t.Fatalf("DDL = %s\nwant  %s", ddl, want)
	}
	got, err := s.Query(context.Background(), `SELECT "Name", "name_1", "name_1_1" FROM dataset ORDER BY "Name"`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.Join(got.Columns, ",") != "Name,name,name_1" {
		t.Fatalf("columns = %v", got.Columns)
	}
	if strings.Join(got.Rows[0], ",") != "Ana,ana,x" {
		t.Fatalf("row = %v", got.Rows[0])
	}
	if s.Label("name_1") != "name" || s.Label("Name") != "Name" {
		t.Fatalf("unexpected labels")
	}
}
