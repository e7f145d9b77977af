// Package analysis profiles a loaded table: per-column kind inference and
// summary statistics, rendered as a compact Markdown block for prompts.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// Column kinds.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Outliers counts values with robust |z| above OutlierThreshold (MAD based).
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 3, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name    string
	Rows    int
	Cols    []ColumnSummary
	Samples [][]string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// SQLType maps the inferred kind onto a storage affinity.
func (c ColumnSummary) SQLType() string {
	if c.Kind == KindNumeric {
		return "REAL"
	}
	return "TEXT"
}

// Kind returns the inferred kind of the named column, or KindUnknown.
func (r *Report) Kind(name string) string {
	for _, c := range r.Cols {
		if c.Name == name {
			return c.Kind
		}
	}
	return KindUnknown
}

// Summarize profiles every column of t.
func Summarize(t *table.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.Len()}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 3
	}
	rep.Samples = t.Preview(sampleRows).Rows

	for j, name := range t.Columns {
		_, unit := splitUnits(name)
		s := ColumnSummary{Name: name, Unit: unit}
		var (
			nums         []float64
			dtCnt, txCnt int
			mean, m2     float64
			cats         = map[string]int{}
		)
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		for _, row := range t.Rows {
			v := strings.TrimSpace(row[j])
			if v == "" {
				s.Missing++
				continue
			}
			s.NonNull++
			if x, ok := ParseNumber(v); ok {
				nums = append(nums, x)
				// Welford update
				delta := x - mean
				mean += delta / float64(len(nums))
				m2 += delta * (x - mean)
				s.Min = math.Min(s.Min, x)
				s.Max = math.Max(s.Max, x)
				continue
			}
			if _, ok := ParseTime(v); ok {
				dtCnt++
				continue
			}
			txCnt++
			if len(v) <= 64 {
				cats[v]++
			}
			if len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, v)
			}
		}

		switch {
		case len(nums) > 0 && len(nums) >= dtCnt && len(nums) >= txCnt:
			s.Kind = KindNumeric
			s.Mean = mean
			if len(nums) > 1 {
				s.Std = math.Sqrt(m2 / float64(len(nums)-1))
			}
			if opt.Outliers && len(nums) >= 8 {
				s.OutlierThreshold, s.OutliersCount = countOutliers(nums, opt.OutlierThreshold)
			}
		case dtCnt > 0 && dtCnt >= txCnt:
			s.Kind = KindDatetime
		case len(cats) > 0 && len(cats) <= max(1, s.NonNull/2):
			s.Kind = KindCategorical
			s.Unique = len(cats)
			s.TopValues = topValues(cats, 8)
		case txCnt > 0:
			s.Kind = KindText
			s.Unique = len(cats)
		default:
			s.Kind = KindUnknown
		}
		if s.Kind != KindNumeric {
			s.Min, s.Max = 0, 0
		}
		rep.Cols = append(rep.Cols, s)
	}
	return rep
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func countOutliers(vals []float64, thr float64) (float64, int) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	if mad == 0 {
		return thr, 0
	}
	var cnt int
	for _, v := range vals {
		if math.Abs(0.6745*(v-median)/mad) > thr {
			cnt++
		}
	}
	return thr, cnt
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutliersCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			}
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case KindText:
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

// ParseNumber parses plain, percent, and locale-formatted numbers such as
// "12.5%", "1.000,5" or "1 234.5".
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// Decide decimal separator from the last separator seen
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos > dpos {
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseTime recognizes the common date and timestamp layouts found in exports.
func ParseTime(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
