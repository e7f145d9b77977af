package cmd

import (
	"fmt"
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// renderTable prints t as a boxed table, or as Markdown when format is "md".
func renderTable(w io.Writer, t *table.Table, format string) {
	if t == nil || len(t.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "(empty result)")
		return
	}
	tw := prettytable.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(prettytable.StyleLight)

	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		r := make(prettytable.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}

	switch format {
	case "md", "markdown":
		tw.RenderMarkdown()
	case "csv":
		tw.RenderCSV()
	default:
		tw.Render()
	}
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
	}
}
