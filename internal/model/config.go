package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete reltext configuration
type Config struct {
	Input        InputConfig        `yaml:"input" mapstructure:"input"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Annotator    AnnotatorConfig    `yaml:"annotator" mapstructure:"annotator"`
	Morph        MorphConfig        `yaml:"morph" mapstructure:"morph"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// InputConfig selects the corpus files
type InputConfig struct {
	Dir      string   `yaml:"dir" mapstructure:"dir"`
	Patterns []string `yaml:"patterns" mapstructure:"patterns"` // glob patterns matched against file names
}

// OutputConfig controls the rendered reports
type OutputConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`         // text report
	JSON        string `yaml:"json" mapstructure:"json"`         // optional JSON report
	Markdown    string `yaml:"markdown" mapstructure:"markdown"` // optional Markdown report
	DB          string `yaml:"db" mapstructure:"db"`             // optional SQLite export
	Language    string `yaml:"language" mapstructure:"language"` // "ru" or "en" labels
	Summary     bool   `yaml:"summary" mapstructure:"summary"`   // print a terminal summary
	SummaryRows int    `yaml:"summary_rows" mapstructure:"summary_rows"`
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
}

// AnnotatorConfig selects and configures the linguistic annotation backend
type AnnotatorConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend"` // http, command, conllu, openai, ollama
	URL       string        `yaml:"url" mapstructure:"url"`
	Command   string        `yaml:"command" mapstructure:"command"`
	Args      []string      `yaml:"args" mapstructure:"args"`
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// MorphConfig selects the morphological analyzer used for nominative normalization
type MorphConfig struct {
	Backend string        `yaml:"backend" mapstructure:"backend"` // dictionary, http, none
	Lexicon string        `yaml:"lexicon" mapstructure:"lexicon"`
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HTTPConfig is shared by the HTTP collaborator clients
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitConfig limits requests to HTTP collaborators, per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls the annotation cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
}

// ConcurrencyConfig sizes the document worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"` // text or json
	File       string `yaml:"file" mapstructure:"file"`     // empty means stderr
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "reltext-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".reltext", "cache")
	}

	return &Config{
		Input: InputConfig{
			Dir:      "texts",
			Patterns: []string{"*.txt"},
		},
		Output: OutputConfig{
			Path:        "analysis_results.txt",
			Language:    "ru",
			Summary:     true,
			SummaryRows: 10,
		},
		Annotator: AnnotatorConfig{
			Backend:   "http",
			URL:       "http://localhost:8080",
			Timeout:   2 * time.Minute,
			MaxTokens: 8000,
		},
		Morph: MorphConfig{
			Backend: "none",
			Timeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			UserAgent: "reltext/0.1",
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 20,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			TTL:       30 * 24 * time.Hour,
			MemoryTTL: time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
