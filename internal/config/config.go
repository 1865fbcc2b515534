// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Capture() CaptureConfig
	Browser() BrowserConfig
	Output() OutputConfig
	Database() DatabaseConfig

	// Setters used by CLI flags.
	SetBrowserHeadless(bool)
	SetBrowserSettle(d time.Duration)
	SetOutput(format, path string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	CaptureCfg  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	OutputCfg   OutputConfig   `mapstructure:"output" yaml:"output"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Capture() CaptureConfig   { return c.CaptureCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Output() OutputConfig     { return c.OutputCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)        { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserSettle(d time.Duration) { c.BrowserCfg.Settle = d }
func (c *Config) SetOutput(format, path string) {
	if format != "" {
		c.OutputCfg.Format = format
	}
	if path != "" {
		c.OutputCfg.Path = path
	}
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// CaptureConfig controls the capture layer's initialization.
type CaptureConfig struct {
	// APIKey identifies the reporting project. Capture stays uninitialized without it.
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	AppVersion string `mapstructure:"app_version" yaml:"app_version"`
}

// BrowserConfig holds settings for the headless browser used by `watch`.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Settle is how long a page is observed after navigation completes.
	Settle time.Duration `mapstructure:"settle" yaml:"settle"`
	Args   []string      `mapstructure:"args" yaml:"args"`
}

// OutputConfig selects the reporting sink.
type OutputConfig struct {
	// Format is one of "jsonl", "sarif", "log" or "postgres".
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// DatabaseConfig holds the PostgreSQL sink connection details.
type DatabaseConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Table string `mapstructure:"table" yaml:"table"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "bugtrap")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.warn", "yellow")

	// -- Capture --
	v.SetDefault("capture.api_key", "")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.timeout", "60s")
	v.SetDefault("browser.settle", "3s")

	// -- Output --
	v.SetDefault("output.format", "jsonl")
	v.SetDefault("output.path", "stdout")

	// -- Database --
	v.SetDefault("database.table", "captured_errors")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("capture.api_key", "BUGTRAP_API_KEY")
	_ = v.BindEnv("database.url", "BUGTRAP_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up
	if cfg.CaptureCfg.APIKey == "" {
		cfg.CaptureCfg.APIKey = os.Getenv("BUGTRAP_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.OutputCfg.Format {
	case "jsonl", "sarif", "log":
	case "postgres":
		if c.DatabaseCfg.URL == "" {
			return fmt.Errorf("database.url is required for the postgres output format")
		}
	default:
		return fmt.Errorf("unsupported output.format: %q", c.OutputCfg.Format)
	}
	if c.BrowserCfg.Timeout <= 0 {
		return fmt.Errorf("browser.timeout must be a positive duration")
	}
	if c.BrowserCfg.Settle < 0 {
		return fmt.Errorf("browser.settle must not be negative")
	}
	return nil
}
