package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ICE3BR/IA-Data-Analysis/internal/chart"
)

// Plan kinds the model may answer with.
const (
	PlanTable = "table"
	PlanText  = "text"
	PlanChart = "chart"
)

var (
	// ErrNoPlan is returned when the model reply carries no usable JSON plan.
	ErrNoPlan = errors.New("model reply did not contain a query plan")
	// ErrUnsafeSQL is returned for anything but a single read-only statement.
	ErrUnsafeSQL = errors.New("only a single SELECT statement is allowed")
)

// Plan is the structured answer requested from the model.
type Plan struct {
	Type   string     `json:"type"`
	SQL    string     `json:"sql"`
	Answer string     `json:"answer"`
	Chart  chart.Spec `json:"chart"`
}

// ParsePlan extracts a Plan from a model reply. Code fences and any prose
// around the JSON object are ignored.
func ParsePlan(reply string) (*Plan, error) {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, ErrNoPlan
	}
	var p Plan
	if err := json.Unmarshal([]byte(s[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPlan, err)
	}
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.SQL = strings.TrimSpace(p.SQL)
	if p.Type == "" {
		switch {
		case p.SQL != "":
			p.Type = PlanTable
		case p.Answer != "":
			p.Type = PlanText
		}
	}
	switch p.Type {
	case PlanTable, PlanChart:
		if p.SQL == "" {
			return nil, fmt.Errorf("%w: %s plan without sql", ErrNoPlan, p.Type)
		}
	case PlanText:
		if p.SQL == "" && p.Answer == "" {
			return nil, fmt.Errorf("%w: empty text plan", ErrNoPlan)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrNoPlan, p.Type)
	}
	return &p, nil
}

var forbidden = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true, "ALTER": true,
	"CREATE": true, "ATTACH": true, "DETACH": true, "PRAGMA": true,
	"VACUUM": true, "REINDEX": true, "TRUNCATE": true,
}

// CheckSQL returns the statement without a trailing semicolon, or
// ErrUnsafeSQL when it is not a single SELECT/WITH query.
func CheckSQL(query string) (string, error) {
	q := strings.TrimSpace(query)
	for strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	words, semicolon := bareWords(q)
	if semicolon {
		return "", fmt.Errorf("%w: multiple statements", ErrUnsafeSQL)
	}
	if len(words) == 0 || (words[0] != "SELECT" && words[0] != "WITH") {
		return "", ErrUnsafeSQL
	}
	for i, w := range words {
		// REPLACE is also a string function; only REPLACE INTO writes
		if forbidden[w] || (w == "REPLACE" && i+1 < len(words) && words[i+1] == "INTO") {
			return "", fmt.Errorf("%w: %s", ErrUnsafeSQL, w)
		}
	}
	return q, nil
}

// bareWords returns the upper-cased keywords of q that sit outside quotes
// and comments, and whether a statement separator was seen.
func bareWords(q string) ([]string, bool) {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToUpper(cur.String()))
			cur.Reset()
		}
	}
	semicolon := false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			flush()
			closing := c
			if c == '[' {
				closing = ']'
			}
			for i++; i < len(q) && q[i] != closing; i++ {
			}
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			flush()
			for i < len(q) && q[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			flush()
			if j := strings.Index(q[i+2:], "*/"); j >= 0 {
				i += j + 3
			} else {
				i = len(q)
			}
		case c == ';':
			flush()
			semicolon = true
		case c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9'):
			cur.WriteByte(c)
		default:
			flush()
		}
	}
	flush()
	return words, semicolon
}
