package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/Graylog2/go-gelf.v2/gelf"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/record"
)

// mockGelfWriter is a mock gelf.Writer for testing
type mockGelfWriter struct {
	messages    []*gelf.Message
	closeCalled bool
	failAt      int // 1-based index of the WriteMessage call that fails, 0 = never
	returnError error
}

func (m *mockGelfWriter) WriteMessage(msg *gelf.Message) error {
	m.messages = append(m.messages, msg)
	if m.failAt > 0 && len(m.messages) == m.failAt {
		return m.returnError
	}
	return nil
}

func (m *mockGelfWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func (m *mockGelfWriter) Close() error {
	m.closeCalled = true
	return nil
}

func (m *mockGelfWriter) last() *gelf.Message {
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// stubGelfFactories replaces the writer factories for the duration of a test.
func stubGelfFactories(t *testing.T) {
	t.Helper()
	origUDP := gelfUDPWriterFactory
	origTCP := gelfTCPWriterFactory
	origCompression := setUDPCompression
	t.Cleanup(func() {
		gelfUDPWriterFactory = origUDP
		gelfTCPWriterFactory = origTCP
		setUDPCompression = origCompression
	})

	gelfUDPWriterFactory = func(addr string) (*gelf.UDPWriter, error) {
		return &gelf.UDPWriter{}, nil
	}
	gelfTCPWriterFactory = func(addr string) (*gelf.TCPWriter, error) {
		return &gelf.TCPWriter{}, nil
	}
}

func newMockedGelfLogger(t *testing.T, cfg config.Destination) (*GelfLogger, *mockGelfWriter) {
	t.Helper()
	stubGelfFactories(t)
	lgr, err := NewGelfLogger(cfg)
	require.NoError(t, err)
	mock := &mockGelfWriter{}
	lgr.writer = mock
	return lgr, mock
}

func TestGelfLogger_Name(t *testing.T) {
	logger := &GelfLogger{
		name: "test-gelf",
	}

	if logger.Name() != "test-gelf" {
		t.Errorf("Expected name to be 'test-gelf', got '%s'", logger.Name())
	}
}

func TestNewGelfLogger_ValidationErrors(t *testing.T) {
	_, err := NewGelfLogger(config.Destination{Name: "test-gelf", Type: config.TypeGelf, Port: 12201})
	if err == nil {
		t.Error("Expected error for missing host, got nil")
	}

	_, err = NewGelfLogger(config.Destination{Name: "test-gelf", Type: config.TypeGelf, Host: "localhost", Port: 0})
	if err == nil {
		t.Error("Expected error for invalid port, got nil")
	}
}

func TestGelfLevel(t *testing.T) {
	tests := []struct {
		severity record.Severity
		expected int32
	}{
		{record.Debug, 7},
		{record.Verbose, 7},
		{record.Info, 6},
		{record.Warning, 4},
		{record.Error, 3},
		{record.Critical, 2},
		{record.Severity(42), 6},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			if level := gelfLevel(tt.severity); level != tt.expected {
				t.Errorf("gelfLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestGelfCompression(t *testing.T) {
	stubGelfFactories(t)

	var capturedCompressionType gelf.CompressType
	setUDPCompression = func(writer *gelf.UDPWriter, compType gelf.CompressType) {
		capturedCompressionType = compType
	}

	tests := []struct {
		name           string
		compressionCfg string
		expectedType   gelf.CompressType
		protocol       string
	}{
		{"Gzip compression", "gzip", gelf.CompressGzip, "udp"},
		{"Zlib compression", "zlib", gelf.CompressZlib, "udp"},
		{"No compression", "none", gelf.CompressNone, "udp"},
		{"Default compression (empty)", "", gelf.CompressNone, "udp"},
		{"TCP protocol (compression not used)", "gzip", 99, "tcp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capturedCompressionType = 99

			_, err := NewGelfLogger(config.Destination{
				Name:            "test-gelf",
				Type:            config.TypeGelf,
				Host:            "localhost",
				Port:            12201,
				Protocol:        tt.protocol,
				CompressionType: tt.compressionCfg,
			})
			if err != nil {
				t.Fatalf("Failed to create GELF logger: %v", err)
			}

			if capturedCompressionType != tt.expectedType {
				t.Errorf("Expected compression type %v, got %v", tt.expectedType, capturedCompressionType)
			}
		})
	}
}

func TestGelfLogger_MessageMapping(t *testing.T) {
	lgr, mock := newMockedGelfLogger(t, config.Destination{Name: "graylog", Type: config.TypeGelf, Host: "localhost", Port: 12201})
	lgr.hostName = "test-host"

	ts := time.Date(2024, 1, 2, 3, 4, 5, 500_000_000, time.UTC)
	err := lgr.Send(context.Background(), []record.Record{
		record.NewAt(ts, record.Warning,
			record.String("message", "disk almost full"),
			record.Int("free_mb", 12),
			record.Float64("ratio", 0.98),
			record.Bool("alert", true),
			record.String("id", "abc"),
			record.Group("disk", record.String("mount", "/var")),
		),
	})
	require.NoError(t, err)
	require.Len(t, mock.messages, 1)

	msg := mock.last()
	assert.Equal(t, "1.1", msg.Version)
	assert.Equal(t, "test-host", msg.Host)
	assert.Equal(t, "disk almost full", msg.Short)
	assert.Equal(t, int32(4), msg.Level)
	assert.InDelta(t, float64(ts.Unix())+0.5, msg.TimeUnix, 0.001)
	assert.Equal(t, map[string]interface{}{
		"_free_mb": int64(12),
		"_ratio":   0.98,
		"_alert":   "true",
		"_id_":     "abc",
		"_disk":    `{"mount":"/var"}`,
	}, msg.Extra)
}

func TestGelfLogger_ShortFromText(t *testing.T) {
	lgr, mock := newMockedGelfLogger(t, config.Destination{Name: "graylog", Type: config.TypeGelf, Host: "localhost", Port: 12201})

	require.NoError(t, lgr.Send(context.Background(), []record.Record{
		record.New(record.Info, record.String("text", "explicit text")),
		record.New(record.Error, record.String("method", "GET"), record.Int("status", 500)),
		record.New(record.Debug),
	}))
	require.Len(t, mock.messages, 3)
	assert.Equal(t, "explicit text", mock.messages[0].Short)
	assert.Equal(t, "method=GET status=500", mock.messages[1].Short)
	assert.Equal(t, int32(3), mock.messages[1].Level)
	assert.Equal(t, "-", mock.messages[2].Short)
}

func TestGelfLogger_FirstFailureStopsBatch(t *testing.T) {
	lgr, mock := newMockedGelfLogger(t, config.Destination{Name: "graylog", Type: config.TypeGelf, Host: "localhost", Port: 12201})
	mock.failAt = 2
	mock.returnError = errors.New("connection refused")

	err := lgr.Send(context.Background(), []record.Record{
		record.New(record.Info, record.Int("seq", 1)),
		record.New(record.Info, record.Int("seq", 2)),
		record.New(record.Info, record.Int("seq", 3)),
	})
	var trErr *TransportError
	require.True(t, errors.As(err, &trErr), "expected TransportError, got %v", err)
	assert.Equal(t, "localhost:12201", trErr.Endpoint)
	assert.ErrorIs(t, err, mock.returnError)
	assert.Len(t, mock.messages, 2, "records after the failure must not be written")
}

func TestGelfLogger_EmptyBatchAndClose(t *testing.T) {
	lgr, mock := newMockedGelfLogger(t, config.Destination{Name: "graylog", Type: config.TypeGelf, Host: "localhost", Port: 12201, Protocol: "tcp"})

	require.NoError(t, lgr.Send(context.Background(), nil))
	assert.Empty(t, mock.messages)

	require.NoError(t, lgr.Close())
	assert.True(t, mock.closeCalled)
}

func TestGelfTruncation(t *testing.T) {
	tests := []struct {
		name             string
		config           config.Destination
		fields           []record.Field
		expectedShortLen int
		expectedFullLen  int
		expectedShortEnd string
		expectedFullEnd  string
	}{
		{
			name: "No truncation (UDP default size)",
			config: config.Destination{
				Name: "udp-default", Type: config.TypeGelf, Host: "localhost", Port: 12201,
			},
			fields: []record.Field{
				record.String("message", "short message"),
				record.String("full_message", "this is a longer full message"),
			},
			expectedShortLen: 13,
			expectedFullLen:  29,
		},
		{
			name: "No truncation (TCP unlimited)",
			config: config.Destination{
				Name: "tcp-unlimited", Type: config.TypeGelf, Host: "localhost", Port: 12201, Protocol: "tcp",
			},
			fields: []record.Field{
				record.String("message", "short message tcp"),
				record.String("full_message", "this is a longer full message for tcp"),
			},
			expectedShortLen: 17,
			expectedFullLen:  37,
		},
		{
			name: "Truncate Short only (exceeds available)",
			config: config.Destination{
				Name: "trunc-short", Type: config.TypeGelf, Host: "localhost", Port: 12201, MaxMessageSize: 1080, // Available = 56
			},
			fields: []record.Field{
				record.String("message", "this is a very long short message that will certainly exceed the available limit"),
				record.String("full_message", "this full message should be cleared"),
			},
			expectedShortLen: 56,
			expectedFullLen:  0,
			expectedShortEnd: "...truncated",
		},
		{
			name: "Truncate Full only (Short fits, Full exceeds remaining)",
			config: config.Destination{
				Name: "trunc-full", Type: config.TypeGelf, Host: "localhost", Port: 12201, MaxMessageSize: 1100, // Available = 76
			},
			fields: []record.Field{
				record.String("message", "short message fits"),
				record.String("full_message", "this very long full message will need truncation because it exceeds the remaining space"),
			},
			expectedShortLen: 18,
			expectedFullLen:  58,
			expectedFullEnd:  "...truncated",
		},
		{
			name: "Truncate Short and Full (very small limit)",
			config: config.Destination{
				Name: "trunc-both", Type: config.TypeGelf, Host: "localhost", Port: 12201, MaxMessageSize: 1050, // Available = 26
			},
			fields: []record.Field{
				record.String("message", "this short message is too long"),
				record.String("full_message", "this full message is also too long"),
			},
			expectedShortLen: 26,
			expectedFullLen:  0,
			expectedShortEnd: "...truncated",
		},
		{
			name: "Truncate Short (not enough space for ellipsis)",
			config: config.Destination{
				Name: "trunc-no-ellipsis", Type: config.TypeGelf, Host: "localhost", Port: 12201, MaxMessageSize: 1030, // Available = 6
			},
			fields: []record.Field{
				record.String("message", "this short message is too long"),
				record.String("full_message", "this full message is also too long"),
			},
			expectedShortLen: 6,
			expectedFullLen:  0,
			expectedShortEnd: "this s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, mock := newMockedGelfLogger(t, tt.config)

			err := logger.Send(context.Background(), []record.Record{record.New(record.Info, tt.fields...)})
			if err != nil {
				t.Fatalf("logger.Send() error = %v", err)
			}

			msg := mock.last()
			if msg == nil {
				t.Fatal("WriteMessage was not called")
			}

			if len(msg.Short) != tt.expectedShortLen {
				t.Errorf("Expected Short length %d, got %d (value: %q)", tt.expectedShortLen, len(msg.Short), msg.Short)
			}
			if len(msg.Full) != tt.expectedFullLen {
				t.Errorf("Expected Full length %d, got %d (value: %q)", tt.expectedFullLen, len(msg.Full), msg.Full)
			}
			if tt.expectedShortEnd != "" && !strings.HasSuffix(msg.Short, tt.expectedShortEnd) {
				t.Errorf("Expected Short to end with %q, got %q", tt.expectedShortEnd, msg.Short)
			}
			if tt.expectedFullEnd != "" && !strings.HasSuffix(msg.Full, tt.expectedFullEnd) {
				t.Errorf("Expected Full to end with %q, got %q", tt.expectedFullEnd, msg.Full)
			}

			if err := logger.Close(); err != nil {
				t.Errorf("logger.Close() returned an unexpected error: %v", err)
			}
		})
	}
}
