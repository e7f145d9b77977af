// Package engine answers natural-language questions about a table by asking
// an LLM for a SQL plan and executing it against an in-memory copy of the data.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ICE3BR/IA-Data-Analysis/internal/ai"
	"github.com/ICE3BR/IA-Data-Analysis/internal/analysis"
	"github.com/ICE3BR/IA-Data-Analysis/internal/chart"
	"github.com/ICE3BR/IA-Data-Analysis/internal/store"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// ValuePlaceholder in a text answer is replaced by the single cell the SQL yields.
const ValuePlaceholder = "{value}"

// Config holds the engine's model and output settings.
type Config struct {
	Model            string
	MaxTokens        int
	Temperature      float64
	SampleRows       int
	ContextMaxTokens int
	ChartDir         string
}

// DefaultChartDir is used when Config.ChartDir is empty.
func DefaultChartDir() string {
	return filepath.Join(os.TempDir(), "datachat-charts")
}

// Engine turns prompts into table, text, or chart answers.
type Engine struct {
	rt  ai.Runtime
	cfg Config
}

// New returns an Engine backed by rt.
func New(rt ai.Runtime, cfg Config) *Engine {
	if cfg.ChartDir == "" {
		cfg.ChartDir = DefaultChartDir()
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = analysis.DefaultOptions().SampleRows
	}
	return &Engine{rt: rt, cfg: cfg}
}

// ChartDir returns the directory charts are written to.
func (e *Engine) ChartDir() string { return e.cfg.ChartDir }

// Query answers prompt about t. Progress is written to w. The returned value
// is a *table.Table, a chart path ending in .png, or a string.
func (e *Engine) Query(ctx context.Context, t *table.Table, prompt string, w io.Writer) (any, error) {
	if e.rt == nil {
		return nil, errors.New("no language model configured")
	}
	if t == nil {
		return nil, errors.New("no table loaded")
	}
	if w == nil {
		w = io.Discard
	}
	start := time.Now()
	defer func() { fmt.Fprintf(w, "elapsed: %s\n", time.Since(start).Round(time.Millisecond)) }()
	fmt.Fprintf(w, "question: %s\n", prompt)

	opt := analysis.DefaultOptions()
	opt.SampleRows = e.cfg.SampleRows
	rep := analysis.Summarize(t, opt)

	st, err := store.Open(ctx, t, rep)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	req := ai.GenerateRequest{
		Model: e.cfg.Model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt(rep, st.DDL(), e.cfg.ContextMaxTokens)},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Format:      "json",
	}
	fmt.Fprintf(w, "model: %s\n", e.cfg.Model)
	resp, err := e.rt.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Usage.TotalTokens > 0 {
		fmt.Fprintf(w, "tokens: prompt=%d completion=%d\n", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	plan, err := ParsePlan(resp.Text())
	if err != nil {
		fmt.Fprintf(w, "reply: %s\n", strings.TrimSpace(resp.Text()))
		return nil, err
	}
	fmt.Fprintf(w, "plan: %s\n", plan.Type)

	var result *table.Table
	if plan.SQL != "" {
		q, err := CheckSQL(plan.SQL)
		if err != nil {
			fmt.Fprintf(w, "rejected sql: %s\n", plan.SQL)
			return nil, err
		}
		fmt.Fprintf(w, "sql: %s\n", q)
		result, err = st.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "rows: %d of %d\n", result.Len(), t.Len())
	}

	switch plan.Type {
	case PlanChart:
		spec := plan.Chart
		spec.X, spec.Y = st.Label(spec.X), st.Label(spec.Y)
		if spec.Title == "" {
			spec.Title = prompt
		}
		path, err := chart.Render(spec, result, e.cfg.ChartDir)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "chart: %s\n", path)
		return path, nil
	case PlanText:
		return textAnswer(plan.Answer, result), nil
	default:
		return result, nil
	}
}

// textAnswer fills the answer template from the query result. Without a
// template a single-cell result is returned as is and larger results as the
// table itself.
func textAnswer(answer string, result *table.Table) any {
	if result == nil {
		return answer
	}
	cell := ""
	if result.Len() > 0 && len(result.Columns) > 0 {
		cell = result.Rows[0][0]
	}
	single := result.Len() == 1 && len(result.Columns) == 1
	switch {
	case strings.Contains(answer, ValuePlaceholder):
		return strings.ReplaceAll(answer, ValuePlaceholder, cell)
	case strings.TrimSpace(answer) != "":
		return answer
	case single:
		return cell
	default:
		return result
	}
}
