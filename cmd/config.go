package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ICE3BR/IA-Data-Analysis/internal/ai"
	cfgpkg "github.com/ICE3BR/IA-Data-Analysis/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set datachat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "provider: %s\n", cfg.Provider)
		fmt.Fprintf(out, "model: %s\n", cfg.Model)
		fmt.Fprintf(out, "ollama_host: %s\n", cfg.OllamaHost)
		fmt.Fprintf(out, "ollama_timeout_sec: %d\n", cfg.OllamaTimeoutSec)
		fmt.Fprintf(out, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", cfg.Temperature)
		fmt.Fprintf(out, "context_max_tokens: %d\n", cfg.ContextMaxTokens)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(out, "preview_rows: %d\n", cfg.PreviewRows)
		fmt.Fprintf(out, "sample_rows: %d\n", cfg.SampleRows)
		fmt.Fprintf(out, "chart_dir: %s\n", cfg.ChartDir)
		fmt.Fprintf(out, "cache_ttl_min: %d\n", cfg.CacheTTLMin)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		switch key {
		case "provider":
			p := strings.ToLower(val)
			if _, ok := ai.GetRuntime(p, ai.RuntimeConfig{}); !ok {
				return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), " or "))
			}
			c.Provider = p
		case "model":
			c.Model = val
		case "ollama_host":
			c.OllamaHost = strings.TrimRight(val, "/")
		case "listen_addr":
			c.ListenAddr = val
		case "chart_dir":
			c.ChartDir = val
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		case "log_format":
			switch strings.ToLower(val) {
			case "text", "json":
				c.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "temperature":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for temperature: %w", err)
			}
			c.Temperature = f
		case "ollama_timeout_sec", "max_tokens", "context_max_tokens", "max_upload_mb",
			"preview_rows", "sample_rows", "cache_ttl_min",
			"retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			*intField(c, key) = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func intField(c *cfgpkg.Global, key string) *int {
	switch key {
	case "ollama_timeout_sec":
		return &c.OllamaTimeoutSec
	case "max_tokens":
		return &c.MaxTokens
	case "context_max_tokens":
		return &c.ContextMaxTokens
	case "max_upload_mb":
		return &c.MaxUploadMB
	case "preview_rows":
		return &c.PreviewRows
	case "sample_rows":
		return &c.SampleRows
	case "cache_ttl_min":
		return &c.CacheTTLMin
	case "retry_max_attempts":
		return &c.RetryMaxAttempts
	case "retry_base_delay_ms":
		return &c.RetryBaseDelayMs
	default:
		return &c.RetryMaxDelayMs
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
