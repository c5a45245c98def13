package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio = "stdio"
	ModeHTTP  = "http"
	ModeWatch = "watch"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultCacheTTL       = 15 * time.Minute
	DefaultCacheCleanup   = 5 * time.Minute
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the form intake server
type Config struct {
	// Server configuration
	Mode string // "stdio", "http", or "watch"
	Host string
	Port int

	// Intake configuration
	IntakeDirectory string
	WatchDirectory  string
	DictionaryPath  string
	MaxFileSize     int64 // Maximum document file size in bytes

	// Cache configuration
	CacheTTL     time.Duration
	CacheCleanup time.Duration

	// HTTP rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		IntakeDirectory: currentDir,
		WatchDirectory:  "",
		DictionaryPath:  "",
		MaxFileSize:     DefaultMaxFileSize,
		CacheTTL:        DefaultCacheTTL,
		CacheCleanup:    DefaultCacheCleanup,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		Version:         "1.0.0",
		ServerName:      "formintake",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.IntakeDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.IntakeDirectory); err == nil {
			cfg.IntakeDirectory = expandedPath
		}
	}
	if cfg.WatchDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.WatchDirectory); err == nil {
			cfg.WatchDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("FORMINTAKE")
	viper.AutomaticEnv()

	// Define defaults with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.IntakeDirectory)
	viper.SetDefault("watchdir", cfg.WatchDirectory)
	viper.SetDefault("dictionary", cfg.DictionaryPath)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("cachettl", cfg.CacheTTL)
	viper.SetDefault("cachecleanup", cfg.CacheCleanup)
	viper.SetDefault("raterps", cfg.RateLimitRPS)
	viper.SetDefault("rateburst", cfg.RateLimitBurst)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode,
		"Server mode: 'stdio' for MCP standard I/O, 'http' for the REST API, 'watch' for inbox watching")
	pflag.String("host", cfg.Host, "Server host address (http mode only)")
	pflag.Int("port", cfg.Port, "Server port (http mode only)")
	pflag.String("dir", cfg.IntakeDirectory, "Directory containing form documents")
	pflag.String("watchdir", cfg.WatchDirectory, "Inbox directory to watch (watch mode; defaults to --dir)")
	pflag.String("dictionary", cfg.DictionaryPath, "Path to a custom pattern dictionary (YAML)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document file size in bytes")
	pflag.Duration("cachettl", cfg.CacheTTL, "How long extraction results stay cached (0 disables)")
	pflag.Duration("cachecleanup", cfg.CacheCleanup, "How often expired cache entries are swept")
	pflag.Float64("raterps", cfg.RateLimitRPS, "Per-client request rate limit (http mode)")
	pflag.Int("rateburst", cfg.RateLimitBurst, "Per-client request burst allowance (http mode)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("watchdir", pflag.Lookup("watchdir"))
	_ = viper.BindPFlag("dictionary", pflag.Lookup("dictionary"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("cachettl", pflag.Lookup("cachettl"))
	_ = viper.BindPFlag("cachecleanup", pflag.Lookup("cachecleanup"))
	_ = viper.BindPFlag("raterps", pflag.Lookup("raterps"))
	_ = viper.BindPFlag("rateburst", pflag.Lookup("rateburst"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nForm Intake - extract labeled fields from form document renderings\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        "+
			"# stdio MCP mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms                   "+
			"# stdio mode with custom intake directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=http --dir=/path/to/forms       # REST API mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=watch --watchdir=/path/to/inbox # inbox watch mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_DIR          Intake directory\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_WATCHDIR     Watch inbox directory\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_DICTIONARY   Custom pattern dictionary path\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_CACHETTL     Extraction cache TTL\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_CACHECLEANUP Cache cleanup interval\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_RATERPS      HTTP rate limit (requests/second)\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_RATEBURST    HTTP rate limit burst\n")
		fmt.Fprintf(os.Stderr, "  FORMINTAKE_LOGLEVEL     Log level\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.IntakeDirectory = viper.GetString("dir")
	cfg.WatchDirectory = viper.GetString("watchdir")
	cfg.DictionaryPath = viper.GetString("dictionary")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.CacheTTL = viper.GetDuration("cachettl")
	cfg.CacheCleanup = viper.GetDuration("cachecleanup")
	cfg.RateLimitRPS = viper.GetFloat64("raterps")
	cfg.RateLimitBurst = viper.GetInt("rateburst")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeHTTP && c.Mode != ModeWatch {
		return errors.New("mode must be one of 'stdio', 'http', or 'watch'")
	}

	// Validate port range (only for http mode)
	if c.Mode == ModeHTTP && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate intake directory
	if c.IntakeDirectory == "" {
		return errors.New("intake directory cannot be empty")
	}

	// Check if intake directory exists, create if it doesn't
	if _, err := os.Stat(c.IntakeDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.IntakeDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create intake directory %s: %w", c.IntakeDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access intake directory %s: %w", c.IntakeDirectory, err)
	}

	// The watch inbox falls back to the intake directory
	if c.Mode == ModeWatch {
		if c.WatchDirectory == "" {
			c.WatchDirectory = c.IntakeDirectory
		}
		if _, err := os.Stat(c.WatchDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.WatchDirectory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create watch directory %s: %w", c.WatchDirectory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access watch directory %s: %w", c.WatchDirectory, err)
		}
	}

	// Validate custom dictionary path when set
	if c.DictionaryPath != "" {
		if _, err := os.Stat(c.DictionaryPath); err != nil {
			return fmt.Errorf("cannot access dictionary file %s: %w", c.DictionaryPath, err)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate cache settings; zero TTL disables caching
	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}
	if c.CacheCleanup < 0 {
		return errors.New("cache cleanup interval cannot be negative")
	}

	// Validate rate limiting (only meaningful for http mode)
	if c.Mode == ModeHTTP {
		if c.RateLimitRPS <= 0 {
			return errors.New("rate limit must be positive")
		}
		if c.RateLimitBurst < 1 {
			return errors.New("rate limit burst must be at least 1")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, IntakeDirectory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.IntakeDirectory, c.LogLevel, c.MaxFileSize)
}

// IsHTTPMode returns true if the server is running the REST API
func (c *Config) IsHTTPMode() bool {
	return c.Mode == ModeHTTP
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsWatchMode returns true if the server is watching an inbox directory
func (c *Config) IsWatchMode() bool {
	return c.Mode == ModeWatch
}
