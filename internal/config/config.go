package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// APIBaseURL is the base URL of the backend API that receives bearer tokens.
	APIBaseURL string `mapstructure:"api_base_url"`
	// GraphQLPath is the path of the GraphQL endpoint relative to APIBaseURL.
	GraphQLPath string `mapstructure:"graphql_path"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// StoragePath is the YAML file that persists the session token.
	StoragePath string `mapstructure:"storage_path"`
	// StorageKey is the key the session token is stored under.
	StorageKey string `mapstructure:"storage_key"`
	// RequestTimeout bounds a single outgoing API request (e.g., "30s").
	RequestTimeout string `mapstructure:"request_timeout"`
	// MaxLogLength limits logged request and response dumps (e.g., "1MB", "64KB").
	MaxLogLength string `mapstructure:"max_log_length"`
	// UserAgent is sent with every outgoing API request.
	UserAgent string `mapstructure:"user_agent"`
	// DefaultHeaders are extra headers added to outgoing requests that don't set them.
	DefaultHeaders map[string]string `mapstructure:"default_headers"`
	// ListenAddress is the address the web server listens on.
	ListenAddress string `mapstructure:"listen_address"`
	// ShutdownTimeout bounds the graceful shutdown of the web server.
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
	// CookieName is the name of the session cookie checked by the route guard.
	CookieName string `mapstructure:"cookie_name"`
	// ProtectedPrefix is the path prefix that requires a session cookie.
	ProtectedPrefix string `mapstructure:"protected_prefix"`
	// LoginPath is where unauthenticated visitors are redirected.
	LoginPath string `mapstructure:"login_path"`
	// BrowserLoginURL is the page opened by the browser login flow.
	BrowserLoginURL string `mapstructure:"browser_login_url"`
	// BrowserLoginTimeout bounds how long the browser login flow waits for the user.
	BrowserLoginTimeout string `mapstructure:"browser_login_timeout"`
	// MetricsPushURL is an optional Prometheus Pushgateway that receives the counters of each command run.
	MetricsPushURL string `mapstructure:"metrics_push_url"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedRequestTimeout is the parsed request timeout.
	ParsedRequestTimeout time.Duration
	// ParsedMaxLogLength is the parsed maximum log length in bytes.
	ParsedMaxLogLength uint64
	// ParsedShutdownTimeout is the parsed graceful shutdown timeout.
	ParsedShutdownTimeout time.Duration
	// ParsedBrowserLoginTimeout is the parsed browser login timeout.
	ParsedBrowserLoginTimeout time.Duration
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".authkeeper.yaml"

	// EnvPrefix is the prefix of environment variables overriding configuration keys.
	EnvPrefix = "AUTHKEEPER"

	// LegacyAPIURLEnv is the build-time variable name used by web front ends for the API URL.
	LegacyAPIURLEnv = "VITE_API_URL"

	// DefaultStoragePath is the default location of the token storage file.
	DefaultStoragePath = ".authkeeper-storage.yaml"

	// DefaultStorageKey is the default storage key of the session token.
	DefaultStorageKey = "token"

	// DefaultGraphQLPath is the default GraphQL endpoint path.
	DefaultGraphQLPath = "/graphql"

	// DefaultCookieName is the default session cookie name.
	DefaultCookieName = "token"

	// DefaultProtectedPrefix is the default protected path prefix.
	DefaultProtectedPrefix = "/dashboard"

	// DefaultLoginPath is the default login page path.
	DefaultLoginPath = "/login"

	// DefaultListenAddress is the default web server address.
	DefaultListenAddress = "127.0.0.1:8080"

	// DefaultMaxLogLength is the default maximum size (in bytes) of logged HTTP dumps.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	defaultLogLevel            = "info"
	defaultRequestTimeout      = "30s"
	defaultMaxLogLength        = "1MB"
	defaultShutdownTimeout     = "10s"
	defaultBrowserLoginTimeout = "10m"
	defaultUserAgent           = "authkeeper"
)

// Static error definitions for better error handling.
var (
	// ErrConfigFileNotFound indicates that an explicitly requested config file is missing.
	ErrConfigFileNotFound = errors.New("config file not found")
	// ErrInvalidMetricsPushURL indicates that the Pushgateway URL is not an absolute http(s) URL.
	ErrInvalidMetricsPushURL = errors.New("metrics_push_url must be an absolute http(s) URL")
	// ErrInvalidAPIBaseURL indicates that the API base URL is not an absolute http(s) URL.
	ErrInvalidAPIBaseURL = errors.New("api_base_url must be an absolute http(s) URL")
	// ErrInvalidBrowserLoginURL indicates that the browser login URL is not an absolute http(s) URL.
	ErrInvalidBrowserLoginURL = errors.New("browser_login_url must be an absolute http(s) URL")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrEmptyStoragePath indicates that no storage file is configured.
	ErrEmptyStoragePath = errors.New("storage_path cannot be empty")
	// ErrEmptyStorageKey indicates that no storage key is configured.
	ErrEmptyStorageKey = errors.New("storage_key cannot be empty")
	// ErrEmptyCookieName indicates that the session cookie name is missing.
	ErrEmptyCookieName = errors.New("cookie_name cannot be empty")
	// ErrInvalidPath indicates that a configured path is not absolute.
	ErrInvalidPath = errors.New("path must start with '/'")
	// ErrLoginPathProtected indicates that the login page would itself be guarded.
	ErrLoginPathProtected = errors.New("login_path cannot be under protected_prefix")
	// ErrInvalidRequestTimeout indicates that the request timeout is invalid.
	ErrInvalidRequestTimeout = errors.New("request_timeout must be positive")
	// ErrInvalidShutdownTimeout indicates that the shutdown timeout is invalid.
	ErrInvalidShutdownTimeout = errors.New("shutdown_timeout must be positive")
	// ErrInvalidBrowserLoginTimeout indicates that the browser login timeout is invalid.
	ErrInvalidBrowserLoginTimeout = errors.New("browser_login_timeout must be positive")
)

// LoadConfig loads configuration settings from a YAML file and the environment.
// A missing default config file is not an error, the defaults and environment apply.
func LoadConfig(configFilename string) (*Config, error) {
	isExplicit := configFilename != ""
	if !isExplicit {
		configFilename = DefaultConfigFilename
	}

	v := newViper()
	v.SetConfigFile(configFilename)

	isFileExist, err := utils.IsFileExist(configFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}

	switch {
	case isFileExist:
		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	case isExplicit:
		return nil, fmt.Errorf("failed to read config from file: %w: %s", ErrConfigFileNotFound, configFilename)
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration that applies without a file or environment.
func Default() *Config {
	return &Config{
		GraphQLPath:         DefaultGraphQLPath,
		LogLevel:            defaultLogLevel,
		StoragePath:         DefaultStoragePath,
		StorageKey:          DefaultStorageKey,
		RequestTimeout:      defaultRequestTimeout,
		MaxLogLength:        defaultMaxLogLength,
		UserAgent:           defaultUserAgent,
		ListenAddress:       DefaultListenAddress,
		ShutdownTimeout:     defaultShutdownTimeout,
		CookieName:          DefaultCookieName,
		ProtectedPrefix:     DefaultProtectedPrefix,
		LoginPath:           DefaultLoginPath,
		BrowserLoginTimeout: defaultBrowserLoginTimeout,
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := Default()
	v.SetDefault("api_base_url", defaults.APIBaseURL)
	v.SetDefault("graphql_path", defaults.GraphQLPath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("storage_path", defaults.StoragePath)
	v.SetDefault("storage_key", defaults.StorageKey)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("max_log_length", defaults.MaxLogLength)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("listen_address", defaults.ListenAddress)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	v.SetDefault("cookie_name", defaults.CookieName)
	v.SetDefault("protected_prefix", defaults.ProtectedPrefix)
	v.SetDefault("login_path", defaults.LoginPath)
	v.SetDefault("browser_login_url", defaults.BrowserLoginURL)
	v.SetDefault("browser_login_timeout", defaults.BrowserLoginTimeout)
	v.SetDefault("metrics_push_url", defaults.MetricsPushURL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The prefixed variable wins over the front-end one when both are set.
	_ = v.BindEnv("api_base_url", EnvPrefix+"_API_BASE_URL", LegacyAPIURLEnv)

	return v
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,gocognit,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if cfg.APIBaseURL != "" && !isAbsoluteHTTPURL(cfg.APIBaseURL) {
		return fmt.Errorf("%w: '%s'", ErrInvalidAPIBaseURL, cfg.APIBaseURL)
	}

	cfg.BrowserLoginURL = strings.TrimSpace(cfg.BrowserLoginURL)
	if cfg.BrowserLoginURL != "" && !isAbsoluteHTTPURL(cfg.BrowserLoginURL) {
		return fmt.Errorf("%w: '%s'", ErrInvalidBrowserLoginURL, cfg.BrowserLoginURL)
	}

	cfg.MetricsPushURL = strings.TrimSpace(cfg.MetricsPushURL)
	if cfg.MetricsPushURL != "" && !isAbsoluteHTTPURL(cfg.MetricsPushURL) {
		return fmt.Errorf("%w: '%s'", ErrInvalidMetricsPushURL, cfg.MetricsPushURL)
	}

	if cfg.GraphQLPath == "" {
		cfg.GraphQLPath = DefaultGraphQLPath
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if strings.TrimSpace(cfg.StoragePath) == "" {
		return ErrEmptyStoragePath
	}

	if strings.TrimSpace(cfg.StorageKey) == "" {
		return ErrEmptyStorageKey
	}

	if strings.TrimSpace(cfg.CookieName) == "" {
		return ErrEmptyCookieName
	}

	if !strings.HasPrefix(cfg.ProtectedPrefix, "/") {
		return fmt.Errorf("protected_prefix %w: '%s'", ErrInvalidPath, cfg.ProtectedPrefix)
	}

	if !strings.HasPrefix(cfg.LoginPath, "/") {
		return fmt.Errorf("login_path %w: '%s'", ErrInvalidPath, cfg.LoginPath)
	}

	// The guard matches raw prefixes, a guarded login page would redirect forever.
	if strings.HasPrefix(cfg.LoginPath, cfg.ProtectedPrefix) {
		return fmt.Errorf("%w: '%s' starts with '%s'", ErrLoginPathProtected, cfg.LoginPath, cfg.ProtectedPrefix)
	}

	cfg.ParsedRequestTimeout, err = time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse request timeout: %w", err)
	}

	if cfg.ParsedRequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	cfg.ParsedShutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse shutdown timeout: %w", err)
	}

	if cfg.ParsedShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	cfg.ParsedBrowserLoginTimeout, err = time.ParseDuration(cfg.BrowserLoginTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse browser login timeout: %w", err)
	}

	if cfg.ParsedBrowserLoginTimeout <= 0 {
		return ErrInvalidBrowserLoginTimeout
	}

	maxLogLength := strings.TrimSpace(cfg.MaxLogLength)
	if maxLogLength == "" || maxLogLength == "0" {
		cfg.ParsedMaxLogLength = DefaultMaxLogLength

		return nil
	}

	cfg.ParsedMaxLogLength, err = humanize.ParseBytes(maxLogLength)
	if err != nil {
		return fmt.Errorf("failed to parse max log length: %w", err)
	}

	return nil
}

func isAbsoluteHTTPURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
