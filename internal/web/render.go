package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ICE3BR/IA-Data-Analysis/internal/answer"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = template.Must(template.New("pages").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFiles, "templates/*.html"))

// PromptWarning is shown when the prompt box is submitted empty.
const PromptWarning = "Please enter a prompt!"

type indexPage struct {
	Title string
	Error string
}

type gridView struct {
	Columns []string
	Rows    [][]string
}

type resultView struct {
	Kind     answer.Kind
	Columns  []string
	Rows     [][]string
	ImageURL string
	Text     string
}

type errorView struct {
	Message string
	Columns []string
}

type datasetPage struct {
	Title       string
	ID          string
	Name        string
	Rows        int
	Columns     []string
	Preview     gridView
	Prompt      string
	Warning     string
	Result      *resultView
	Diagnostics string
	Error       *errorView
}

func (s *Server) newDatasetPage(id string, t *table.Table) *datasetPage {
	p := t.Preview(s.opts.PreviewRows)
	return &datasetPage{
		Title:   t.Name,
		ID:      id,
		Name:    t.Name,
		Rows:    t.Len(),
		Columns: t.ColumnNames(),
		Preview: gridView{Columns: p.Columns, Rows: p.Rows},
	}
}

// viewResult maps a classified result onto what the page renders.
func viewResult(res answer.Result) *resultView {
	switch r := res.(type) {
	case answer.Tabular:
		v := &resultView{Kind: answer.KindTabular}
		if r.Table != nil {
			v.Columns, v.Rows = r.Table.Columns, r.Table.Rows
		}
		return v
	case answer.ImageReference:
		return &resultView{Kind: answer.KindImage, ImageURL: chartURL(r.Path), Text: r.Path}
	case answer.Text:
		return &resultView{Kind: answer.KindText, Text: r.Value}
	default:
		return &resultView{Kind: answer.KindText}
	}
}

// chartURL serves images by base name from the chart directory.
func chartURL(path string) string {
	return "/charts/" + filepath.Base(path)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
