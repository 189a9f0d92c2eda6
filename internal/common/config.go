package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Claude      ClaudeConfig    `toml:"claude"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Reports     ReportsConfig   `toml:"reports"`
	Artifacts   ArtifactsConfig `toml:"artifacts"`
	Notify      NotifyConfig    `toml:"notify"`
	Reaper      ReaperConfig    `toml:"reaper"`
	Knowledge   KnowledgeConfig `toml:"knowledge"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ClaudeConfig contains Anthropic Claude API configuration for AI services
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key for Claude operations
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between API calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// RetrievalConfig controls pitch deck download and context assembly
type RetrievalConfig struct {
	RequestTimeout string `toml:"request_timeout"` // HTTP download timeout (default: "30s")
	MaxBodySize    int    `toml:"max_body_size"`   // Maximum download size in bytes
	CharBudget     int    `toml:"char_budget"`     // Context truncation budget in characters
	SnippetTopK    int    `toml:"snippet_top_k"`   // Knowledge index snippets to append
}

// ReportsConfig controls report generation behavior
type ReportsConfig struct {
	// MinSections is the minimum number of successful sections (of 7) for
	// a run to be marked completed rather than failed
	MinSections int `toml:"min_sections"`
	// MaxRetries is the per-section retry budget for transient LLM errors
	MaxRetries int `toml:"max_retries"`
	// RetryBackoff is the initial retry backoff duration string
	RetryBackoff string `toml:"retry_backoff"`
	// ResearchPass enables the research pre-pass that enriches the
	// retrieval context before section fan-out
	ResearchPass bool `toml:"research_pass"`
}

// ArtifactsConfig controls PDF artifact publishing
type ArtifactsConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // Directory published artifacts are stored in
}

// NotifyConfig controls the completion webhook
type NotifyConfig struct {
	WebhookURL string `toml:"webhook_url"` // Empty disables notification
	Retries    int    `toml:"retries"`     // Delivery attempts (default: 2)
	RetryDelay string `toml:"retry_delay"` // Delay between attempts (default: "2s")
	Timeout    string `toml:"timeout"`     // Per-attempt HTTP timeout (default: "10s")
}

// ReaperConfig controls the stale-processing sweep
type ReaperConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	MaxAge   string `toml:"max_age"`  // Processing requests older than this are failed
}

// KnowledgeConfig contains configuration for reference documents loaded
// into the retrieval index at startup
type KnowledgeConfig struct {
	Dir        string   `toml:"dir"`        // Directory containing reference files (default: "./docs")
	Extensions []string `toml:"extensions"` // File extensions to scan (default: [".md"])
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in diligence.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		Retrieval: RetrievalConfig{
			RequestTimeout: "30s",
			MaxBodySize:    20 * 1024 * 1024, // 20MB
			CharBudget:     12000,
			SnippetTopK:    5,
		},
		Reports: ReportsConfig{
			MinSections:  6, // Tolerate one failed section of seven
			MaxRetries:   3,
			RetryBackoff: "10s",
			ResearchPass: true,
		},
		Artifacts: ArtifactsConfig{
			Enabled: true,
			Dir:     "./data/artifacts",
		},
		Notify: NotifyConfig{
			WebhookURL: "", // Disabled until configured
			Retries:    2,
			RetryDelay: "2s",
			Timeout:    "10s",
		},
		Reaper: ReaperConfig{
			Enabled:  true,
			Schedule: "0 */5 * * * *", // Every 5 minutes
			MaxAge:   "30m",
		},
		Knowledge: KnowledgeConfig{
			Dir:        "./docs",
			Extensions: []string{".md"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DILIGENCE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("DILIGENCE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("DILIGENCE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("DILIGENCE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("DILIGENCE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("DILIGENCE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("DILIGENCE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("DILIGENCE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Notify configuration
	if webhookURL := os.Getenv("DILIGENCE_WEBHOOK_URL"); webhookURL != "" {
		config.Notify.WebhookURL = webhookURL
	}

	// Artifacts configuration
	if dir := os.Getenv("DILIGENCE_ARTIFACTS_DIR"); dir != "" {
		config.Artifacts.Dir = dir
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks configuration for obvious misconfiguration before startup
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Badger.Path == "" {
		return fmt.Errorf("storage.badger.path is required")
	}
	if c.Reports.MinSections < 1 || c.Reports.MinSections > 7 {
		return fmt.Errorf("reports.min_sections must be between 1 and 7, got %d", c.Reports.MinSections)
	}
	return nil
}
