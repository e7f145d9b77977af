// Package answer runs one prompt against a query engine and turns whatever
// comes back into a typed Result, together with the diagnostics the engine
// printed on the way.
package answer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ICE3BR/IA-Data-Analysis/internal/diag"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// ErrEmptyPrompt is returned when the prompt is blank after trimming.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Engine answers a natural-language prompt about a table. Diagnostics it
// wants to show the user are written to w; the returned value is untyped
// and classified by the caller.
type Engine interface {
	Query(ctx context.Context, t *table.Table, prompt string, w io.Writer) (any, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, t *table.Table, prompt string, w io.Writer) (any, error)

// Query calls f.
func (f EngineFunc) Query(ctx context.Context, t *table.Table, prompt string, w io.Writer) (any, error) {
	return f(ctx, t, prompt, w)
}

// Response is a successful query cycle.
type Response struct {
	Result      Result
	Diagnostics string
}

// QueryError reports any engine failure along with the table's columns so
// the user can check the names they referred to.
type QueryError struct {
	Err     error
	Columns []string
}

func (e *QueryError) Error() string { return fmt.Sprintf("error processing the prompt: %v", e.Err) }

func (e *QueryError) Unwrap() error { return e.Err }

// Responder owns the capture discipline around an Engine.
type Responder struct {
	engine   Engine
	fallback io.Writer
	logger   *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder)

// WithFallback sets where diagnostics written after a cycle ends are sent.
// Defaults to os.Stderr.
func WithFallback(w io.Writer) Option { return func(r *Responder) { r.fallback = w } }

// WithLogger sets the logger used for cycle summaries.
func WithLogger(l *slog.Logger) Option { return func(r *Responder) { r.logger = l } }

// NewResponder creates a Responder around engine.
func NewResponder(engine Engine, opts ...Option) *Responder {
	r := &Responder{engine: engine, fallback: os.Stderr, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Answer runs one query cycle. On engine failure it returns a *QueryError
// and no Response; the capture is always released before returning.
func (r *Responder) Answer(ctx context.Context, t *table.Table, prompt string) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	start := time.Now()
	capture := diag.Begin(r.fallback)

	raw, err := r.query(ctx, t, prompt, capture)
	text := capture.Release()

	if err != nil {
		r.logger.Warn("prompt failed", "error", err, "duration", time.Since(start))
		return nil, &QueryError{Err: err, Columns: t.ColumnNames()}
	}
	res := Classify(raw)
	r.logger.Info("prompt answered", "kind", res.Kind(), "duration", time.Since(start))
	return &Response{Result: res, Diagnostics: text}, nil
}

// query releases the capture on every exit path and turns engine panics
// into errors.
func (r *Responder) query(ctx context.Context, t *table.Table, prompt string, capture *diag.Capture) (raw any, err error) {
	defer capture.Release()
	defer func() {
		if p := recover(); p != nil {
			raw, err = nil, fmt.Errorf("engine panic: %v", p)
		}
	}()
	return r.engine.Query(ctx, t, prompt, capture)
}
