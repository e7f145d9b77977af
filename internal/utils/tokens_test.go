package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ICE3BR/IA-Data-Analysis/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 900}, // heuristic ~ 1 tok ≈ 4 chars
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000) // ~5000 chars
	trunc := utils.TruncateToTokenLimit(text, 300)
	n := utils.CountTokens(trunc)
	if n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
	if utils.TruncateToTokenLimit(text, 0) != text {
		t.Fatalf("zero limit should leave text untouched")
	}
}

func TestSafeWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "charts")
	if err := utils.EnsureDir(dir); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	p := filepath.Join(dir, "a.png")
	if err := utils.SafeWriteFile(p, []byte("png")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "png" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
