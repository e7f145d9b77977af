// Package chart renders simple PNG charts from a result table.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/ICE3BR/IA-Data-Analysis/internal/analysis"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
	"github.com/ICE3BR/IA-Data-Analysis/internal/utils"
)

// Chart kinds.
const (
	KindBar  = "bar"
	KindLine = "line"
	KindPie  = "pie"
)

// ErrNoData is returned when there is nothing plottable: no row carries a
// numeric y value, or pie slices are negative or sum to zero.
var ErrNoData = errors.New("chart has no numeric values to plot")

// Spec describes which columns to plot and how.
type Spec struct {
	Kind  string `json:"kind"`
	X     string `json:"x"`
	Y     string `json:"y"`
	Title string `json:"title"`
}

const (
	width  = 1024
	height = 512
)

// Render draws t according to spec and writes a new PNG into dir.
// It returns the path of the written file.
func Render(spec Spec, t *table.Table, dir string) (string, error) {
	labels, values, err := series(spec, t)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("chart dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Draw(&buf, spec, labels, values); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "chart_"+uuid.NewString()+".png")
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// Draw writes a PNG for the given labels and values to w.
func Draw(w io.Writer, spec Spec, labels []string, values []float64) error {
	if len(values) == 0 {
		return ErrNoData
	}
	switch strings.ToLower(spec.Kind) {
	case KindLine:
		xs := make([]float64, len(values))
		ticks := make([]gochart.Tick, 0, len(values)+2)
		for i := range values {
			xs[i] = float64(i)
			ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
		}
		if len(values) == 1 {
			// the x range comes from the ticks and needs a non-zero span
			ticks = append([]gochart.Tick{{Value: -1}}, append(ticks, gochart.Tick{Value: 1})...)
		}
		yAxis := gochart.YAxis{Name: spec.Y}
		if lo, hi := bounds(values); lo == hi {
			yAxis.Range = &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
		}
		graph := gochart.Chart{
			Title:  spec.Title,
			Width:  width,
			Height: height,
			XAxis:  gochart.XAxis{Name: spec.X, Ticks: ticks},
			YAxis:  yAxis,
			Series: []gochart.Series{
				gochart.ContinuousSeries{Name: spec.Y, XValues: xs, YValues: values},
			},
		}
		return graph.Render(gochart.PNG, w)
	case KindPie:
		var total float64
		vals := make([]gochart.Value, len(values))
		for i, v := range values {
			if v < 0 {
				return fmt.Errorf("%w: pie slice %q is negative", ErrNoData, labels[i])
			}
			total += v
			vals[i] = gochart.Value{Label: labels[i], Value: v}
		}
		if total == 0 {
			return fmt.Errorf("%w: pie slices sum to zero", ErrNoData)
		}
		graph := gochart.PieChart{Title: spec.Title, Width: height, Height: height, Values: vals}
		return graph.Render(gochart.PNG, w)
	default:
		bars := make([]gochart.Value, len(values))
		for i, v := range values {
			bars[i] = gochart.Value{Label: labels[i], Value: v}
		}
		// bars grow from zero, so the axis always spans it
		lo, hi := bounds(values)
		yr := &gochart.ContinuousRange{Min: math.Min(0, lo), Max: math.Max(0, hi)}
		if yr.Min == yr.Max {
			yr.Max = 1
		}
		graph := gochart.BarChart{
			Title:    spec.Title,
			Width:    width,
			Height:   height,
			BarWidth: barWidth(len(bars)),
			Background: gochart.Style{
				Padding: gochart.Box{Top: 40},
			},
			YAxis:        gochart.YAxis{Range: yr},
			UseBaseValue: true,
			Bars:         bars,
		}
		return graph.Render(gochart.PNG, w)
	}
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

func barWidth(n int) int {
	if n <= 0 {
		return 40
	}
	w := (width - 100) / n * 2 / 3
	if w < 4 {
		return 4
	}
	if w > 80 {
		return 80
	}
	return w
}

// series pulls (label, value) pairs out of t. When X or Y are not named it
// falls back to the first column for labels and the last numeric column for
// values. Rows without a numeric value are skipped.
func series(spec Spec, t *table.Table) ([]string, []float64, error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, nil, ErrNoData
	}
	xi, yi := t.Index(spec.X), t.Index(spec.Y)
	if spec.X != "" && xi < 0 {
		return nil, nil, fmt.Errorf("chart column %q not in result", spec.X)
	}
	if spec.Y != "" && yi < 0 {
		return nil, nil, fmt.Errorf("chart column %q not in result", spec.Y)
	}
	if yi < 0 {
		rep := analysis.Summarize(t, analysis.Options{})
		for i := len(rep.Cols) - 1; i >= 0; i-- {
			if rep.Cols[i].Kind == analysis.KindNumeric {
				yi = i
				break
			}
		}
	}
	if yi < 0 {
		return nil, nil, ErrNoData
	}
	if xi < 0 {
		xi = 0
	}
	var labels []string
	var values []float64
	for i, row := range t.Rows {
		v, ok := analysis.ParseNumber(row[yi])
		if !ok {
			continue
		}
		label := row[xi]
		if xi == yi {
			label = fmt.Sprintf("%d", i+1)
		}
		labels = append(labels, label)
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, nil, ErrNoData
	}
	return labels, values, nil
}
