package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sales() *table.Table {
	return table.New([]string{"Region", "Units", "Revenue"}, [][]string{
		{"North", "12", "1200"},
		{"South", "7", "910"},
		{"East", "n/a", "450"},
		{"West", "21", "2100"},
	})
}

func TestRenderKinds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	for _, kind := range []string{KindBar, KindLine, KindPie} {
		path, err := Render(Spec{Kind: kind, X: "Region", Y: "Units", Title: "Units by region"}, sales(), dir)
		if err != nil {
			t.Fatalf("%s: render: %v", kind, err)
		}
		if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".png") {
			t.Fatalf("%s: unexpected path %s", kind, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: read: %v", kind, err)
		}
		if !bytes.HasPrefix(b, pngMagic) {
			t.Fatalf("%s: output is not a PNG", kind)
		}
	}
}

func TestRenderUniqueNames(t *testing.T) {
	dir := t.TempDir()
	a, err := Render(Spec{Y: "Revenue"}, sales(), dir)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := Render(Spec{Y: "Revenue"}, sales(), dir)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct chart files, got %s twice", a)
	}
}

func TestSeriesSkipsNonNumeric(t *testing.T) {
	labels, values, err := series(Spec{X: "Region", Y: "Units"}, sales())
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if strings.Join(labels, ",") != "North,South,West" {
		t.Fatalf("labels = %v", labels)
	}
	if len(values) != 3 || values[2] != 21 {
		t.Fatalf("values = %v", values)
	}
}

func TestSeriesFallsBackToLastNumericColumn(t *testing.T) {
	labels, values, err := series(Spec{}, sales())
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if labels[0] != "North" || values[0] != 1200 || len(values) != 4 {
		t.Fatalf("labels=%v values=%v", labels, values)
	}
}

func TestSeriesErrors(t *testing.T) {
	if _, _, err := series(Spec{Y: "Missing"}, sales()); err == nil || !strings.Contains(err.Error(), "Missing") {
		t.Fatalf("expected missing column error, got %v", err)
	}
	words := table.New([]string{"a", "b"}, [][]string{{"x", "y"}})
	if _, _, err := series(Spec{}, words); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, _, err := series(Spec{}, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for nil table, got %v", err)
	}
}

func TestRenderDegenerateSeries(t *testing.T) {
	one := table.New([]string{"Metric", "Total"}, [][]string{{"Revenue", "4660"}})
	zeros := table.New([]string{"Region", "Units"}, [][]string{{"North", "0"}, {"South", "0"}})
	cases := []struct {
		name string
		kind string
		tbl  *table.Table
	}{
		{"bar one row", KindBar, one},
		{"line one row", KindLine, one},
		{"pie one row", KindPie, one},
		{"bar all zero", KindBar, zeros},
		{"line all zero", KindLine, zeros},
	}
	dir := t.TempDir()
	for _, tc := range cases {
		path, err := Render(Spec{Kind: tc.kind}, tc.tbl, dir)
		if err != nil {
			t.Errorf("%s: render: %v", tc.name, err)
			continue
		}
		b, err := os.ReadFile(path)
		if err != nil || !bytes.HasPrefix(b, pngMagic) {
			t.Errorf("%s: output is not a PNG (%v)", tc.name, err)
		}
	}
}

func TestRenderPieRejectsNegativeAndZero(t *testing.T) {
	neg := table.New([]string{"Region", "Profit"}, [][]string{{"North", "10"}, {"South", "-3"}})
	if _, err := Render(Spec{Kind: KindPie}, neg, t.TempDir()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for negative slice, got %v", err)
	}
	zeros := table.New([]string{"Region", "Units"}, [][]string{{"North", "0"}})
	if _, err := Render(Spec{Kind: KindPie}, zeros, t.TempDir()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for empty pie, got %v", err)
	}
	// the bar variant of the same data still renders
	if _, err := Render(Spec{Kind: KindBar}, neg, t.TempDir()); err != nil {
		t.Fatalf("bar with negatives: %v", err)
	}
}
