// internal/logger/remote_logger.go

package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/record"
	"github.com/orgoj/servicelog/internal/version"
)

const (
	// maxBodyExcerpt bounds the response body kept in a DeliveryError.
	maxBodyExcerpt = 512
	// maxDrainBytes bounds how much of a response is read before closing.
	maxDrainBytes = 64 << 10
)

// RemoteConfig holds the settings of an HTTP ingestion destination.
type RemoteConfig struct {
	Endpoint        string
	APIKey          string
	APIKeyHeader    string
	ApplicationName string
	SubsystemName   string
}

// RemoteOption customizes a RemoteLogger.
type RemoteOption func(*RemoteLogger)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *RemoteLogger) {
		if client != nil {
			r.client = client
		}
	}
}

// WithComputerName overrides the host name reported in payloads.
func WithComputerName(name string) RemoteOption {
	return func(r *RemoteLogger) {
		r.computerName = name
	}
}

// RemoteLogger posts batches to an HTTP ingestion API. It is immutable
// after construction and safe for concurrent use.
type RemoteLogger struct {
	name         string
	cfg          RemoteConfig
	endpoint     string
	computerName string
	userAgent    string
	client       *http.Client
}

// NewRemoteLogger validates the configuration and creates the logger.
// No network I/O is performed.
func NewRemoteLogger(name string, cfg RemoteConfig, opts ...RemoteOption) (*RemoteLogger, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint '%s': %w", cfg.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint '%s': must be an absolute http(s) URL", cfg.Endpoint)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if !httpguts.ValidHeaderFieldValue(cfg.APIKey) {
		return nil, errors.New("api key is not a valid header value")
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = config.DefaultAPIKeyHeader
	}
	if !httpguts.ValidHeaderFieldName(cfg.APIKeyHeader) {
		return nil, fmt.Errorf("invalid api key header name '%s'", cfg.APIKeyHeader)
	}
	if cfg.SubsystemName == "" {
		cfg.SubsystemName = config.DefaultSubsystemName
	}

	hostName, err := os.Hostname()
	if err != nil {
		hostName = "unknown"
	}

	r := &RemoteLogger{
		name:         name,
		cfg:          cfg,
		endpoint:     u.Redacted(),
		computerName: hostName,
		userAgent:    version.UserAgent(),
		client:       &http.Client{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Send posts the batch as a single request. Non-2xx responses are
// returned as *DeliveryError and connection failures as *TransportError.
func (r *RemoteLogger) Send(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	payload, err := BuildPayload(r.cfg.ApplicationName, r.cfg.SubsystemName, r.computerName, records)
	if err != nil {
		return err
	}
	body, err := payload.Encode()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Endpoint: r.endpoint, Err: err}
	}
	req.Header.Set(r.cfg.APIKeyHeader, r.cfg.APIKey)
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &TransportError{Endpoint: r.endpoint, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt+1))
	return &DeliveryError{
		StatusCode: resp.StatusCode,
		Body:       truncateString(strings.TrimSpace(string(excerpt)), maxBodyExcerpt),
	}
}

// Close releases idle connections of the HTTP client.
func (r *RemoteLogger) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Name returns the name of the logger destination.
func (r *RemoteLogger) Name() string {
	return r.name
}

var _ Logger = (*RemoteLogger)(nil)
