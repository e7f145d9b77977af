package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ICE3BR/IA-Data-Analysis/internal/ai"
	"github.com/ICE3BR/IA-Data-Analysis/internal/answer"
	cfgpkg "github.com/ICE3BR/IA-Data-Analysis/internal/config"
	"github.com/ICE3BR/IA-Data-Analysis/internal/engine"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// newRuntime builds the model backend named by cfg.Provider. Tests swap it out.
var newRuntime = func(c *cfgpkg.Global) (ai.Runtime, error) {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider == "" {
		provider = ai.ProviderOllama
	}
	rt, ok := ai.GetRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: c.OllamaTimeout(),
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		Host:        c.OllamaHost,
	})
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", c.Provider, strings.Join(ai.Providers(), ", "))
	}
	return rt, nil
}

func newEngine(c *cfgpkg.Global, rt ai.Runtime) *engine.Engine {
	return engine.New(rt, engine.Config{
		Model:            c.Model,
		MaxTokens:        c.MaxTokens,
		Temperature:      c.Temperature,
		SampleRows:       c.SampleRows,
		ContextMaxTokens: c.ContextMaxTokens,
		ChartDir:         c.ChartDir,
	})
}

// newResponder wires runtime, engine and responder from configuration.
func newResponder(c *cfgpkg.Global) (*answer.Responder, ai.Runtime, error) {
	rt, err := newRuntime(c)
	if err != nil {
		return nil, nil, err
	}
	return answer.NewResponder(newEngine(c, rt)), rt, nil
}

func loadTableFile(path, delimiter string) (*table.Table, error) {
	opt := table.Options{}
	d, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	opt.Delimiter = d
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return table.Load(filepath.Base(path), data, opt)
}

// parseDelimiter maps a --delimiter flag value to a rune; "" means sniff.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}
