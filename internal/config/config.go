package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/orgoj/servicelog/internal/record"
)

// Destination types
const (
	TypeRemote  = "remote"
	TypeConsole = "console"
	TypeSilent  = "silent"
	TypeFile    = "file"
	TypeGelf    = "gelf"
)

// Defaults applied when the corresponding option is empty.
const (
	DefaultAPIKeyHeader  = "private_key"
	DefaultSubsystemName = "default"
	DefaultSinkHost      = "127.0.0.1"
	DefaultSinkPort      = 8088
	DefaultSinkPath      = "/logs"
	DefaultSinkBodySize  = "1MB"
)

// LogRotation defines parameters for log file rotation.
type LogRotation struct {
	MaxSize    string `yaml:"max_size,omitempty"`    // MB value, e.g. "100"
	MaxAge     string `yaml:"max_age,omitempty"`     // e.g., "7d", "2w", "1m"
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"gte=0"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// Destination is one configured log backend.
type Destination struct {
	Name    string `yaml:"name" validate:"required"` // Mandatory, unique identifier
	Type    string `yaml:"type" validate:"required"` // remote, console, silent, file, gelf
	Enabled bool   `yaml:"enabled"`

	// Remote specific
	Endpoint        string `yaml:"endpoint,omitempty"`         // Mandatory for type: remote
	APIKey          string `yaml:"api_key,omitempty"`          // Mandatory for type: remote (or api_key_env)
	APIKeyEnv       string `yaml:"api_key_env,omitempty"`      // Environment variable holding the api key
	APIKeyHeader    string `yaml:"api_key_header,omitempty"`   // Default: private_key
	ApplicationName string `yaml:"application_name,omitempty"` // Mandatory for type: remote
	SubsystemName   string `yaml:"subsystem_name,omitempty"`   // Default: default
	Timeout         string `yaml:"timeout,omitempty"`          // Optional HTTP client timeout, e.g. "10s"

	// File specific
	Path     string      `yaml:"path,omitempty"`   // Mandatory for type: file
	Format   string      `yaml:"format,omitempty"` // Mandatory for type: file (json or text)
	Rotation LogRotation `yaml:"rotation,omitempty"`

	// GELF specific
	Host            string `yaml:"host,omitempty"`             // Mandatory for type: gelf
	Port            int    `yaml:"port,omitempty"`             // Mandatory for type: gelf
	Protocol        string `yaml:"protocol,omitempty"`         // udp or tcp, default udp
	CompressionType string `yaml:"compression_type,omitempty"` // gzip, zlib, none, default none
	MaxMessageSize  int    `yaml:"max_message_size,omitempty" validate:"gte=0"`
}

// SinkConfig configures the local ingestion endpoint.
type SinkConfig struct {
	Enabled             bool     `yaml:"enabled"`
	Host                string   `yaml:"host"`
	Port                int      `yaml:"port"`
	Path                string   `yaml:"path"`
	Mode                string   `yaml:"mode"` // debug or release
	APIKeys             []string `yaml:"api_keys"`
	APIKeyHeader        string   `yaml:"api_key_header"`
	AllowedApplications []string `yaml:"allowed_applications"` // glob patterns
	TrustedProxies      []string `yaml:"trusted_proxies"`
	ClientIPHeader      string   `yaml:"client_ip_header"`
	Destination         string   `yaml:"destination"` // destination to relay received batches to
	RequestLimits       struct {
		MaxBodySize string `yaml:"max_body_size"` // e.g. "1MB"
		RateLimit   int    `yaml:"rate_limit" validate:"gte=0"` // requests per minute per client IP
	} `yaml:"request_limits"`
}

// Config represents the application configuration
type Config struct {
	AppLog struct {
		Level          string `yaml:"level"`
		ShowHealthLogs bool   `yaml:"show_health_logs"`
	} `yaml:"app_log"`

	// DefaultDestination is used by the CLI when no destination is given.
	DefaultDestination string `yaml:"default_destination"`

	Destinations []Destination `yaml:"destinations" validate:"dive"`
	Sink         SinkConfig    `yaml:"sink"`
}

// LoadConfig loads and validates the configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses and validates configuration data. The source is only
// used in error messages.
func ParseConfig(data []byte, source string) (*Config, error) {
	var cfg Config
	cfg.AppLog.Level = "WARN"
	cfg.Sink.Host = DefaultSinkHost
	cfg.Sink.Port = DefaultSinkPort
	cfg.Sink.Path = DefaultSinkPath
	cfg.Sink.Mode = "release"
	cfg.Sink.APIKeyHeader = DefaultAPIKeyHeader
	cfg.Sink.RequestLimits.MaxBodySize = DefaultSinkBodySize

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", source, err)
	}

	resolveSecrets(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// resolveSecrets fills api keys from the environment where requested.
func resolveSecrets(cfg *Config) {
	for i := range cfg.Destinations {
		dest := &cfg.Destinations[i]
		if dest.APIKey == "" && dest.APIKeyEnv != "" {
			dest.APIKey = os.Getenv(dest.APIKeyEnv)
		}
	}
}

// FindDestination returns the destination with the given name.
func (c *Config) FindDestination(name string) (*Destination, bool) {
	for i := range c.Destinations {
		if c.Destinations[i].Name == name {
			return &c.Destinations[i], true
		}
	}
	return nil, false
}

// validateConfig performs semantic validation of the configuration
func validateConfig(cfg *Config) error {
	if _, err := record.ParseSeverity(cfg.AppLog.Level); err != nil {
		return fmt.Errorf("invalid app_log.level: '%s'", cfg.AppLog.Level)
	}

	destinationNames := make(map[string]bool)
	for i, dest := range cfg.Destinations {
		if dest.Name == "" {
			return fmt.Errorf("destinations[%d]: name is required", i)
		}
		if destinationNames[dest.Name] {
			return fmt.Errorf("destinations: duplicate name '%s' found", dest.Name)
		}
		destinationNames[dest.Name] = true

		if err := validateDestination(&cfg.Destinations[i]); err != nil {
			return err
		}
	}

	if cfg.DefaultDestination != "" && !destinationNames[cfg.DefaultDestination] {
		return fmt.Errorf("default_destination '%s' not found in destinations", cfg.DefaultDestination)
	}

	if cfg.Sink.Enabled {
		if err := validateSink(&cfg.Sink, destinationNames); err != nil {
			return err
		}
	}

	return nil
}

// validateDestination checks type-specific options and fills defaults.
func validateDestination(dest *Destination) error {
	switch dest.Type {
	case TypeRemote:
		if dest.Endpoint == "" {
			return fmt.Errorf("destinations[%s]: endpoint is required for type 'remote'", dest.Name)
		}
		u, err := url.Parse(dest.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("destinations[%s]: endpoint '%s' is not a valid http(s) URL", dest.Name, dest.Endpoint)
		}
		if dest.APIKey == "" {
			if dest.APIKeyEnv != "" {
				return fmt.Errorf("destinations[%s]: environment variable '%s' for api_key is empty", dest.Name, dest.APIKeyEnv)
			}
			return fmt.Errorf("destinations[%s]: api_key is required for type 'remote'", dest.Name)
		}
		if dest.ApplicationName == "" {
			return fmt.Errorf("destinations[%s]: application_name is required for type 'remote'", dest.Name)
		}
		if dest.APIKeyHeader == "" {
			dest.APIKeyHeader = DefaultAPIKeyHeader
		}
		if dest.SubsystemName == "" {
			dest.SubsystemName = DefaultSubsystemName
		}
		if dest.Timeout != "" {
			if _, err := ParseDuration(dest.Timeout); err != nil {
				return fmt.Errorf("destinations[%s]: invalid timeout: %w", dest.Name, err)
			}
		}
	case TypeConsole, TypeSilent:
		// no options
	case TypeFile:
		if dest.Path == "" {
			return fmt.Errorf("destinations[%s]: path is required for type 'file'", dest.Name)
		}
		if dest.Format != "json" && dest.Format != "text" {
			return fmt.Errorf("destinations[%s]: invalid format '%s', must be 'json' or 'text' for type 'file'", dest.Name, dest.Format)
		}
		if dest.Rotation.MaxSize != "" {
			if _, err := ParseSize(dest.Rotation.MaxSize); err != nil {
				return fmt.Errorf("destinations[%s]: invalid rotation.max_size: %w", dest.Name, err)
			}
		}
		if dest.Rotation.MaxAge != "" {
			if _, err := ParseDuration(dest.Rotation.MaxAge); err != nil {
				return fmt.Errorf("destinations[%s]: invalid rotation.max_age: %w", dest.Name, err)
			}
		}
		if dest.Rotation.MaxBackups < 0 {
			return fmt.Errorf("destinations[%s]: rotation.max_backups cannot be negative", dest.Name)
		}
	case TypeGelf:
		if dest.Host == "" {
			return fmt.Errorf("destinations[%s]: host is required for type 'gelf'", dest.Name)
		}
		if dest.Port <= 0 || dest.Port > 65535 {
			return fmt.Errorf("destinations[%s]: invalid port %d for type 'gelf'", dest.Name, dest.Port)
		}
		if dest.Protocol == "" {
			dest.Protocol = "udp"
		}
		if dest.Protocol != "udp" && dest.Protocol != "tcp" {
			return fmt.Errorf("destinations[%s]: invalid protocol '%s', must be 'udp' or 'tcp' for type 'gelf'", dest.Name, dest.Protocol)
		}
		if dest.CompressionType == "" {
			dest.CompressionType = "none"
		}
		if dest.CompressionType != "gzip" && dest.CompressionType != "zlib" && dest.CompressionType != "none" {
			return fmt.Errorf("destinations[%s]: invalid compression_type '%s', must be 'gzip', 'zlib', or 'none' for type 'gelf'", dest.Name, dest.CompressionType)
		}
		if dest.MaxMessageSize < 0 {
			return fmt.Errorf("destinations[%s]: max_message_size cannot be negative", dest.Name)
		}
	default:
		return fmt.Errorf("destinations[%s]: unknown type '%s'", dest.Name, dest.Type)
	}
	return nil
}

// validateSink checks the ingestion endpoint options and fills defaults.
func validateSink(sink *SinkConfig, destinationNames map[string]bool) error {
	if sink.Port <= 0 || sink.Port > 65535 {
		return fmt.Errorf("invalid sink.port: %d", sink.Port)
	}
	if sink.Mode != "debug" && sink.Mode != "release" {
		return fmt.Errorf("invalid sink.mode: '%s', must be 'debug' or 'release'", sink.Mode)
	}
	if !strings.HasPrefix(sink.Path, "/") {
		return fmt.Errorf("sink.path '%s' must start with '/'", sink.Path)
	}
	if len(sink.APIKeys) == 0 {
		return errors.New("sink.api_keys cannot be empty when the sink is enabled")
	}
	for i, key := range sink.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("sink.api_keys[%d]: key cannot be empty", i)
		}
	}
	if sink.APIKeyHeader == "" {
		sink.APIKeyHeader = DefaultAPIKeyHeader
	}
	if len(sink.AllowedApplications) == 0 {
		sink.AllowedApplications = []string{"*"}
	}
	for i, pattern := range sink.AllowedApplications {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("sink.allowed_applications[%d]: invalid pattern '%s': %w", i, pattern, err)
		}
	}
	if _, err := ParseSize(sink.RequestLimits.MaxBodySize); err != nil {
		return fmt.Errorf("invalid sink.request_limits.max_body_size: %w", err)
	}
	if sink.RequestLimits.RateLimit < 0 {
		return errors.New("sink.request_limits.rate_limit cannot be negative")
	}
	if sink.Destination != "" && !destinationNames[sink.Destination] {
		return fmt.Errorf("sink.destination '%s' not found in destinations", sink.Destination)
	}
	return nil
}

// ValidateConfig uses go-playground/validator for struct-level validation.
// It complements the semantic validation in validateConfig.
func ValidateConfig(cfg *Config) error {
	validate := validator.New()

	err := validate.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", fieldErr.Namespace(), fieldErr.Tag()))
		}
		return errors.New(strings.Join(messages, "; "))
	}

	// Perform additional semantic validation (that validator can't easily handle)
	return validateConfig(cfg)
}
