package table

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNoColumns is returned for input without a header row.
var ErrNoColumns = errors.New("no columns to parse from file")

// ParseError reports an upload that is not well-formed UTF-8 delimited text.
type ParseError struct {
	// Line is the 1-based input line, or 0 when not tied to a line.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options controls how uploads are parsed.
type Options struct {
	// Delimiter for fields. If 0, sniffed from the header line.
	Delimiter rune
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load parses data as delimited text with a header row. Header labels are
// trimmed of surrounding whitespace; cell values are kept as-is.
func Load(name string, data []byte, opt Options) (*Table, error) {
	sum := sha256.Sum256(data)
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &ParseError{Err: errors.New("input is not valid UTF-8")}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: ErrNoColumns}
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, toParseError(err)
	}
	cols := NormalizeColumns(header)

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, toParseError(err)
		}
		if len(rec) > len(cols) {
			line, _ := r.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, saw %d", len(cols), len(rec)),
			}
		}
		row := make([]string, len(cols))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Table{
		Name:        name,
		Fingerprint: hex.EncodeToString(sum[:]),
		Columns:     cols,
		Rows:        rows,
	}, nil
}

// Read is Load over a reader.
func Read(name string, rd io.Reader, opt Options) (*Table, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return Load(name, data, opt)
}

// NormalizeColumns trims each header label and keeps labels unique.
// Blank labels become "Unnamed: <i>"; later duplicates get ".1", ".2", ...
func NormalizeColumns(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func toParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	if errors.Is(err, io.EOF) {
		return &ParseError{Err: ErrNoColumns}
	}
	return &ParseError{Err: err}
}

// sniffDelimiter picks the most frequent candidate separator on the header
// line, ignoring quoted text. Defaults to ','.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	counts := map[rune]int{}
	inQuote := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == ',' || r == ';' || r == '\t' || r == '|':
			counts[r]++
		}
	}
	best, bestN := ',', counts[',']
	for _, r := range []rune{';', '\t', '|'} {
		if counts[r] > bestN {
			best, bestN = r, counts[r]
		}
	}
	return best
}
