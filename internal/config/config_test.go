package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, content string) string {
	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, "config.yaml")
	err := os.WriteFile(tempFile, []byte(content), 0644)
	require.NoError(t, err, "Failed to create temporary config file")
	return tempFile
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig("../../config/example.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "info", cfg.AppLog.Level)
	assert.False(t, cfg.AppLog.ShowHealthLogs)
	assert.Equal(t, "coralogix", cfg.DefaultDestination)

	require.Len(t, cfg.Destinations, 5)

	remote, ok := cfg.FindDestination("coralogix")
	require.True(t, ok)
	assert.Equal(t, TypeRemote, remote.Type)
	assert.True(t, remote.Enabled)
	assert.Equal(t, "https://api.coralogix.com/api/v1/logs", remote.Endpoint)
	assert.Equal(t, "example-key-for-tests", remote.APIKey)
	assert.Equal(t, DefaultAPIKeyHeader, remote.APIKeyHeader)
	assert.Equal(t, "checkout", remote.ApplicationName)
	assert.Equal(t, "http", remote.SubsystemName)
	assert.Equal(t, "10s", remote.Timeout)

	archive, ok := cfg.FindDestination("archive")
	require.True(t, ok)
	assert.False(t, archive.Enabled)
	assert.Equal(t, "json", archive.Format)
	assert.Equal(t, "10", archive.Rotation.MaxSize)
	assert.Equal(t, "7d", archive.Rotation.MaxAge)
	assert.Equal(t, 3, archive.Rotation.MaxBackups)
	assert.True(t, archive.Rotation.Compress)

	graylog, ok := cfg.FindDestination("graylog")
	require.True(t, ok)
	assert.Equal(t, "udp", graylog.Protocol, "protocol defaults to udp")
	assert.Equal(t, "gzip", graylog.CompressionType)

	assert.True(t, cfg.Sink.Enabled)
	assert.Equal(t, 8088, cfg.Sink.Port)
	assert.Equal(t, "/logs", cfg.Sink.Path)
	assert.Equal(t, []string{"dev-key"}, cfg.Sink.APIKeys)
	assert.Equal(t, []string{"checkout", "svc-*"}, cfg.Sink.AllowedApplications)
	assert.Equal(t, "console", cfg.Sink.Destination)
	assert.Equal(t, "512KB", cfg.Sink.RequestLimits.MaxBodySize)
	assert.Equal(t, 600, cfg.Sink.RequestLimits.RateLimit)

	_, ok = cfg.FindDestination("missing")
	assert.False(t, ok)
}

func TestLoadConfig_Defaults(t *testing.T) {
	configFile := createTempConfigFile(t, `
destinations:
  - name: remote
    type: remote
    enabled: true
    endpoint: http://localhost:8088/logs
    api_key: k
    application_name: app
`)
	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.AppLog.Level)
	assert.Equal(t, "private_key", cfg.Destinations[0].APIKeyHeader)
	assert.Equal(t, "default", cfg.Destinations[0].SubsystemName)
	assert.False(t, cfg.Sink.Enabled)
	assert.Equal(t, DefaultSinkHost, cfg.Sink.Host)
	assert.Equal(t, DefaultSinkPort, cfg.Sink.Port)
	assert.Equal(t, DefaultSinkBodySize, cfg.Sink.RequestLimits.MaxBodySize)
}

func TestLoadConfig_APIKeyFromEnv(t *testing.T) {
	t.Setenv("SERVICELOG_TEST_KEY", "from-env")
	configFile := createTempConfigFile(t, `
destinations:
  - name: remote
    type: remote
    enabled: true
    endpoint: https://logs.example.com/ingest
    api_key_env: SERVICELOG_TEST_KEY
    application_name: app
`)
	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Destinations[0].APIKey)
}

func TestLoadConfig_SinkDefaults(t *testing.T) {
	configFile := createTempConfigFile(t, `
sink:
  enabled: true
  api_keys: ["k1"]
`)
	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.Sink.AllowedApplications)
	assert.Equal(t, DefaultAPIKeyHeader, cfg.Sink.APIKeyHeader)
	assert.Equal(t, "release", cfg.Sink.Mode)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_InvalidCases(t *testing.T) {
	testCases := []struct {
		name          string
		config        string
		expectedError string
	}{
		{
			name:          "Malformed YAML",
			config:        "destinations: [",
			expectedError: "error parsing config file",
		},
		{
			name: "Invalid app log level",
			config: `
app_log:
  level: chatty
`,
			expectedError: "invalid app_log.level: 'chatty'",
		},
		{
			name: "Duplicate destination name",
			config: `
destinations:
  - name: "dup_name"
    type: console
  - name: "dup_name"
    type: silent
`,
			expectedError: "duplicate name 'dup_name' found",
		},
		{
			name: "Missing destination name",
			config: `
destinations:
  - name: ""
    type: console
`,
			expectedError: "destinations[0]: name is required",
		},
		{
			name: "Unknown destination type",
			config: `
destinations:
  - name: "mydest"
    type: "kafka"
`,
			expectedError: "destinations[mydest]: unknown type 'kafka'",
		},
		{
			name: "Remote without endpoint",
			config: `
destinations:
  - name: "cx"
    type: remote
    api_key: k
    application_name: app
`,
			expectedError: "destinations[cx]: endpoint is required for type 'remote'",
		},
		{
			name: "Remote with non-http endpoint",
			config: `
destinations:
  - name: "cx"
    type: remote
    endpoint: "ftp://logs.example.com"
    api_key: k
    application_name: app
`,
			expectedError: "endpoint 'ftp://logs.example.com' is not a valid http(s) URL",
		},
		{
			name: "Remote without api key",
			config: `
destinations:
  - name: "cx"
    type: remote
    endpoint: "https://logs.example.com"
    application_name: app
`,
			expectedError: "destinations[cx]: api_key is required for type 'remote'",
		},
		{
			name: "Remote with empty api key env",
			config: `
destinations:
  - name: "cx"
    type: remote
    endpoint: "https://logs.example.com"
    api_key_env: SERVICELOG_DEFINITELY_UNSET_VARIABLE
    application_name: app
`,
			expectedError: "environment variable 'SERVICELOG_DEFINITELY_UNSET_VARIABLE' for api_key is empty",
		},
		{
			name: "Remote without application name",
			config: `
destinations:
  - name: "cx"
    type: remote
    endpoint: "https://logs.example.com"
    api_key: k
`,
			expectedError: "destinations[cx]: application_name is required for type 'remote'",
		},
		{
			name: "Remote with invalid timeout",
			config: `
destinations:
  - name: "cx"
    type: remote
    endpoint: "https://logs.example.com"
    api_key: k
    application_name: app
    timeout: soon
`,
			expectedError: "destinations[cx]: invalid timeout",
		},
		{
			name: "Missing path for file destination",
			config: `
destinations:
  - name: "file_dest"
    type: file
    path: ""
    format: json
`,
			expectedError: "destinations[file_dest]: path is required for type 'file'",
		},
		{
			name: "Invalid format for file destination",
			config: `
destinations:
  - name: "file_dest"
    type: file
    path: "/tmp/log.log"
    format: "xml"
`,
			expectedError: "destinations[file_dest]: invalid format 'xml'",
		},
		{
			name: "Invalid rotation max age",
			config: `
destinations:
  - name: "file_dest"
    type: file
    path: "/tmp/log.log"
    format: "text"
    rotation:
      max_age: "forever"
`,
			expectedError: "destinations[file_dest]: invalid rotation.max_age",
		},
		{
			name: "Missing host for GELF destination",
			config: `
destinations:
  - name: "gelf_dest"
    type: gelf
    host: ""
    port: 12201
`,
			expectedError: "destinations[gelf_dest]: host is required for type 'gelf'",
		},
		{
			name: "Invalid GELF protocol",
			config: `
destinations:
  - name: "gelf_dest"
    type: gelf
    host: "graylog.example.com"
    port: 12201
    protocol: "http"
`,
			expectedError: "destinations[gelf_dest]: invalid protocol 'http'",
		},
		{
			name: "Invalid GELF compression",
			config: `
destinations:
  - name: "gelf_dest"
    type: gelf
    host: "graylog.example.com"
    port: 12201
    compression_type: "zip"
`,
			expectedError: "destinations[gelf_dest]: invalid compression_type 'zip'",
		},
		{
			name: "Unknown default destination",
			config: `
default_destination: nowhere
destinations:
  - name: "console"
    type: console
`,
			expectedError: "default_destination 'nowhere' not found",
		},
		{
			name: "Sink without api keys",
			config: `
sink:
  enabled: true
`,
			expectedError: "sink.api_keys cannot be empty",
		},
		{
			name: "Sink with invalid glob",
			config: `
sink:
  enabled: true
  api_keys: ["k"]
  allowed_applications: ["svc-[a"]
`,
			expectedError: "sink.allowed_applications[0]: invalid pattern 'svc-[a'",
		},
		{
			name: "Sink with invalid body size",
			config: `
sink:
  enabled: true
  api_keys: ["k"]
  request_limits:
    max_body_size: "lots"
`,
			expectedError: "invalid sink.request_limits.max_body_size",
		},
		{
			name: "Sink with unknown relay destination",
			config: `
sink:
  enabled: true
  api_keys: ["k"]
  destination: "nowhere"
`,
			expectedError: "sink.destination 'nowhere' not found",
		},
		{
			name: "Sink with bad path",
			config: `
sink:
  enabled: true
  api_keys: ["k"]
  path: "logs"
`,
			expectedError: "sink.path 'logs' must start with '/'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			configFile := createTempConfigFile(t, tc.config)
			_, err := LoadConfig(configFile)
			require.Error(t, err, "Expected an error when loading invalid config")
			assert.Contains(t, err.Error(), tc.expectedError, "Error message mismatch")
		})
	}
}

func TestValidateConfig_StructTags(t *testing.T) {
	cfg := &Config{}
	cfg.AppLog.Level = "INFO"
	cfg.Destinations = []Destination{{Name: "", Type: "console"}}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on the 'required' tag")

	cfg.Destinations = []Destination{{Name: "file", Type: TypeFile, Path: "/tmp/x.log", Format: "json", Rotation: LogRotation{MaxBackups: -1}}}
	err = ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on the 'gte' tag")

	cfg.Destinations = []Destination{{Name: "console", Type: TypeConsole}}
	assert.NoError(t, ValidateConfig(cfg))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		durationStr string
		expected    time.Duration
		wantErr     bool
	}{
		{"valid minutes", "10m", 10 * time.Minute, false},
		{"valid hours", "2h", 2 * time.Hour, false},
		{"valid mixed", "1h30m", 90 * time.Minute, false},
		{"valid seconds", "45s", 45 * time.Second, false},
		{"valid days", "7d", 7 * 24 * time.Hour, false},
		{"zero days", "0d", 0, true},
		{"zero duration", "0s", 0, true},
		{"zero duration no unit", "0", 0, true},
		{"negative duration", "-5m", 0, true},
		{"invalid format", "10minutes", 0, true},
		{"invalid format space", "10 m", 0, true},
		{"empty string", "", 0, true},
		{"no unit", "10", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.durationStr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDuration() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name     string
		sizeStr  string
		expected int64
		wantErr  bool
	}{
		{"valid bytes no suffix", "1024", 1024, false},
		{"valid kilobytes K", "10K", 10 * 1024, false},
		{"valid kilobytes KB", "2KB", 2 * 1024, false},
		{"valid megabytes MB", "100MB", 100 * 1024 * 1024, false},
		{"valid gigabytes G", "1G", 1 * 1024 * 1024 * 1024, false},
		{"valid lowercase mb", "50mb", 50 * 1024 * 1024, false},
		{"valid with space", " 100 MB ", 100 * 1024 * 1024, false},
		{"zero bytes", "0", 0, false},
		{"invalid number", "abcM", 0, true},
		{"invalid suffix", "10X", 0, true},
		{"negative number", "-5M", 0, true},
		{"empty string", "", 0, true},
		{"suffix only", "MB", 0, true},
		{"overflow G large number", "9000000000G", 0, true},
		{"max int64 bytes", "9223372036854775807", 9223372036854775807, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.sizeStr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseSize() = %v, want %v", got, tt.expected)
			}
		})
	}
}
