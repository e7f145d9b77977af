package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ICE3BR/IA-Data-Analysis/internal/engine"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".datachat"

// Global configuration structure.
type Global struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// ContextMaxTokens caps the schema and sample rows sent with each prompt.
	ContextMaxTokens int `mapstructure:"context_max_tokens" yaml:"context_max_tokens"`

	// HTTP/Retry configuration
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Web front end
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	SampleRows  int    `mapstructure:"sample_rows" yaml:"sample_rows"`
	ChartDir    string `mapstructure:"chart_dir" yaml:"chart_dir"`
	CacheTTLMin int    `mapstructure:"cache_ttl_min" yaml:"cache_ttl_min"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// OllamaTimeout returns the LLM HTTP timeout.
func (c *Global) OllamaTimeout() time.Duration {
	return time.Duration(c.OllamaTimeoutSec) * time.Second
}

// CacheTTL returns how long uploaded tables stay cached.
func (c *Global) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMin) * time.Minute
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Global) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Dir returns ~/.datachat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datachat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATACHAT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider", "ollama")
	v.SetDefault("model", "mistral:latest")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("context_max_tokens", 2000)
	// HTTP/retry defaults
	v.SetDefault("retry_max_attempts", 2)
	v.SetDefault("retry_base_delay_ms", 200)
	v.SetDefault("retry_max_delay_ms", 1000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 120)
	// Web defaults
	v.SetDefault("listen_addr", ":8501")
	v.SetDefault("max_upload_mb", 200)
	v.SetDefault("preview_rows", 3)
	v.SetDefault("sample_rows", 3)
	v.SetDefault("chart_dir", "")
	v.SetDefault("cache_ttl_min", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ChartDir == "" {
		c.ChartDir = engine.DefaultChartDir()
	}
	return &c, nil
}
