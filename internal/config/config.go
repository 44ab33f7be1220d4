package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable, e.g. SHEETPULSE_SERVER_PORT.
const EnvPrefix = "SHEETPULSE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RequestTimeout bounds dashboard API requests. Exports are bounded per
	// item by ExportConfig.Timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths. Relative directories are resolved
// against BaseDir, which defaults to the executable's directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	CacheDir   string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	WebDir     string `yaml:"web_dir" envconfig:"WEB_DIR"`
}

// DashboardConfig controls workbook loading and chart defaults
type DashboardConfig struct {
	// WorkbookPath is loaded at startup when set. Relative paths are
	// resolved against the data directory.
	WorkbookPath   string `yaml:"workbook_path" envconfig:"WORKBOOK_PATH"`
	// AutoLoadLatest opens the newest workbook in the data directory when
	// WorkbookPath is empty.
	AutoLoadLatest bool   `yaml:"auto_load_latest" envconfig:"AUTO_LOAD_LATEST"`
	DefaultWindow  string `yaml:"default_window" envconfig:"DEFAULT_WINDOW"`
	HeaderStart    int    `yaml:"header_start" envconfig:"HEADER_START"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	ChartWidth     string `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight    string `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
}

// ExportConfig controls slide deck export
type ExportConfig struct {
	Renderer       string        `yaml:"renderer" envconfig:"RENDERER"`
	ScreenshotWait time.Duration `yaml:"screenshot_wait" envconfig:"SCREENSHOT_WAIT"`
	Width          int           `yaml:"width" envconfig:"WIDTH"`
	Height         int           `yaml:"height" envconfig:"HEIGHT"`
	Headless       bool          `yaml:"headless" envconfig:"HEADLESS"`
	ChromePath     string        `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	AssetsHost     string        `yaml:"assets_host" envconfig:"ASSETS_HOST"`
	MaxItems       int           `yaml:"max_items" envconfig:"MAX_ITEMS"`
	KeepDecks      int           `yaml:"keep_decks" envconfig:"KEEP_DECKS"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}

	switch strings.ToLower(c.Export.Renderer) {
	case RendererChrome, RendererStatic:
		c.Export.Renderer = strings.ToLower(c.Export.Renderer)
	default:
		return fmt.Errorf("unknown export renderer %q", c.Export.Renderer)
	}

	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("export image size must be positive")
	}

	if c.Export.MaxItems <= 0 {
		return fmt.Errorf("export max items must be positive")
	}

	if c.Dashboard.HeaderStart < 0 {
		return fmt.Errorf("dashboard header start must not be negative")
	}

	if c.Dashboard.MaxUploadBytes <= 0 {
		return fmt.Errorf("dashboard max upload bytes must be positive")
	}

	// Logs are always structured JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/sheetpulse.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "console",
			FilePath:    "logs/sheetpulse.log",
			Development: false,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ExportsDir: DefaultExportsDir,
			CacheDir:   DefaultCacheDir,
			LogsDir:    DefaultLogsDir,
			WebDir:     DefaultWebDir,
		},
		Dashboard: DashboardConfig{
			AutoLoadLatest: true,
			DefaultWindow:  "5y",
			HeaderStart:    1,
			MaxUploadBytes: 32 << 20,
			ChartWidth:     "1000px",
			ChartHeight:    "800px",
		},
		Export: ExportConfig{
			Renderer:       RendererChrome,
			ScreenshotWait: 2 * time.Second,
			Width:          1000,
			Height:         800,
			Headless:       true,
			Timeout:        60 * time.Second,
			MaxItems:       50,
			KeepDecks:      20,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
