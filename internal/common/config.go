package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Badger    BadgerConfig    `toml:"badger"`
	Jobs      JobsConfig      `toml:"jobs"`
	Engine    EngineConfig    `toml:"engine"`
	Agent     AgentConfig     `toml:"agent"`
	Uploads   UploadsConfig   `toml:"uploads"`
	WebSocket WebSocketConfig `toml:"websocket"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string   `toml:"level"`
	TimeFormat string   `toml:"time_format"`
	Output     []string `toml:"output"`
}

// BadgerConfig holds embedded database settings
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// JobsConfig holds job lifecycle settings
type JobsConfig struct {
	// MaxConcurrent bounds simultaneous job runs. Zero means unbounded.
	MaxConcurrent       int    `toml:"max_concurrent"`
	ScreenshotRetention string `toml:"screenshot_retention"`
	PruneSchedule       string `toml:"prune_schedule"`
}

// EngineConfig holds browser engine settings
type EngineConfig struct {
	DefaultEngine      string `toml:"default_engine"`
	Headless           bool   `toml:"headless"`
	NoSandbox          bool   `toml:"no_sandbox"`
	DisableGPU         bool   `toml:"disable_gpu"`
	UserAgent          string `toml:"user_agent"`
	ScreenshotInterval string `toml:"screenshot_interval"`
	FillTimeout        string `toml:"fill_timeout"`
	UploadTimeout      string `toml:"upload_timeout"`
	SubmitTimeout      string `toml:"submit_timeout"`
}

// AgentConfig holds AI-assisted engine settings
type AgentConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// UploadsConfig holds file upload settings
type UploadsConfig struct {
	Dir          string `toml:"dir"`
	MaxSizeBytes int64  `toml:"max_size_bytes"`
}

// WebSocketConfig holds event streaming settings
type WebSocketConfig struct {
	ScreenshotThrottle string `toml:"screenshot_throttle"`
	SubscriberBuffer   int    `toml:"subscriber_buffer"`
}

// DefaultConfig returns the baseline configuration before file and env merging
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			TimeFormat: "15:04:05",
			Output:     []string{"console"},
		},
		Badger: BadgerConfig{
			Path:           "./data/probo",
			ResetOnStartup: false,
		},
		Jobs: JobsConfig{
			MaxConcurrent:       0,
			ScreenshotRetention: "30m",
			PruneSchedule:       "*/5 * * * *",
		},
		Engine: EngineConfig{
			DefaultEngine:      "chromedp",
			Headless:           true,
			NoSandbox:          true,
			DisableGPU:         true,
			UserAgent:          "Probo/1.0",
			ScreenshotInterval: "2s",
			FillTimeout:        "90s",
			UploadTimeout:      "30s",
			SubmitTimeout:      "30s",
		},
		Agent: AgentConfig{
			Model: "claude-sonnet-4-5",
		},
		Uploads: UploadsConfig{
			Dir:          "./data/uploads",
			MaxSizeBytes: 10 * 1024 * 1024,
		},
		WebSocket: WebSocketConfig{
			ScreenshotThrottle: "1s",
			SubscriberBuffer:   64,
		},
	}
}

// LoadFromFiles loads configuration by merging defaults, TOML files in order,
// then environment variable overrides. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies PROBO_* environment variables over file values
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PROBO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("PROBO_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("PROBO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PROBO_BADGER_PATH"); v != "" {
		config.Badger.Path = v
	}
	if v := os.Getenv("PROBO_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Jobs.MaxConcurrent = n
		}
	}
	if v := os.Getenv("PROBO_DEFAULT_ENGINE"); v != "" {
		config.Engine.DefaultEngine = v
	}
	if v := os.Getenv("PROBO_HEADLESS"); v != "" {
		config.Engine.Headless = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("PROBO_ANTHROPIC_API_KEY"); v != "" {
		config.Agent.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && config.Agent.APIKey == "" {
		config.Agent.APIKey = v
	}
	if v := os.Getenv("PROBO_UPLOADS_DIR"); v != "" {
		config.Uploads.Dir = v
	}
}

// ApplyFlagOverrides applies command-line flag values over the loaded config.
// Flags have the highest priority in the resolution order.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Badger.Path == "" {
		return fmt.Errorf("badger path is required")
	}
	if c.Jobs.MaxConcurrent < 0 {
		return fmt.Errorf("jobs.max_concurrent cannot be negative: %d", c.Jobs.MaxConcurrent)
	}
	switch c.Engine.DefaultEngine {
	case "chromedp", "agent":
	default:
		return fmt.Errorf("unknown default engine: %s", c.Engine.DefaultEngine)
	}
	for _, d := range []string{
		c.Jobs.ScreenshotRetention,
		c.Engine.ScreenshotInterval,
		c.Engine.FillTimeout,
		c.Engine.UploadTimeout,
		c.Engine.SubmitTimeout,
		c.WebSocket.ScreenshotThrottle,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid duration %q: %w", d, err)
		}
	}
	return nil
}

// ParseDuration parses a config duration string, falling back to a default
// when the value is empty or malformed.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
