// internal/logger/gelf_logger.go

package logger

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/record"
	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

// Variables for factories to allow mocking in tests
var gelfUDPWriterFactory = gelf.NewUDPWriter
var gelfTCPWriterFactory = gelf.NewTCPWriter

// Function to set compression, can be mocked in tests
var setUDPCompression = func(writer *gelf.UDPWriter, compType gelf.CompressType) {
	writer.CompressionType = compType
}

// gelfOverhead is reserved out of max_message_size for the GELF envelope
// and extra fields.
const gelfOverhead = 1024

// Field keys with a dedicated place in a GELF message.
const (
	gelfKeyMessage     = "message"
	gelfKeyFullMessage = "full_message"
)

// syslogLevels maps severities to syslog levels used by GELF.
var syslogLevels = map[record.Severity]int32{
	record.Debug:    7,
	record.Verbose:  7,
	record.Info:     6,
	record.Warning:  4,
	record.Error:    3,
	record.Critical: 2,
}

// GelfLogger implements the Logger interface for GELF logs
type GelfLogger struct {
	name           string
	addr           string
	writer         gelf.Writer
	hostName       string
	maxMessageSize int
}

// NewGelfLogger creates a new GELF logger
func NewGelfLogger(cfg config.Destination) (*GelfLogger, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required for GELF logger")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("valid port is required for GELF logger")
	}

	hostName, err := os.Hostname()
	if err != nil {
		hostName = "unknown"
		GetAppLogger().Warn("Failed to get hostname: %v, using '%s'", err, hostName)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var writer gelf.Writer
	if cfg.Protocol == "tcp" {
		tcpWriter, err := gelfTCPWriterFactory(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create GELF TCP writer: %w", err)
		}
		writer = tcpWriter
	} else {
		udpWriter, err := gelfUDPWriterFactory(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create GELF UDP writer: %w", err)
		}

		switch cfg.CompressionType {
		case "gzip":
			setUDPCompression(udpWriter, gelf.CompressGzip)
		case "zlib":
			setUDPCompression(udpWriter, gelf.CompressZlib)
		default:
			setUDPCompression(udpWriter, gelf.CompressNone)
		}

		writer = udpWriter
	}

	return &GelfLogger{
		name:           cfg.Name,
		addr:           addr,
		writer:         writer,
		hostName:       hostName,
		maxMessageSize: cfg.MaxMessageSize,
	}, nil
}

// Send writes one GELF message per record, in order. GELF has no batch
// framing, so the first failure stops the batch.
func (g *GelfLogger) Send(ctx context.Context, records []record.Record) error {
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return &TransportError{Endpoint: g.addr, Err: err}
		}
		if err := g.writer.WriteMessage(g.buildMessage(r)); err != nil {
			return &TransportError{Endpoint: g.addr, Err: fmt.Errorf("record %d: %w", i, err)}
		}
	}
	return nil
}

// buildMessage maps a record onto a GELF message.
func (g *GelfLogger) buildMessage(r record.Record) *gelf.Message {
	ts := r.Timestamp()
	msg := &gelf.Message{
		Version:  "1.1",
		Host:     g.hostName,
		TimeUnix: float64(ts.UnixNano()) / 1e9,
		Level:    gelfLevel(r.Severity()),
		Extra:    make(map[string]interface{}),
	}

	var rest []record.Field
	for _, f := range r.Fields() {
		switch f.Key {
		case KeyText, gelfKeyMessage:
			if msg.Short == "" {
				msg.Short = reservedString(f.Value)
				continue
			}
		case gelfKeyFullMessage:
			msg.Full = reservedString(f.Value)
			continue
		}
		rest = append(rest, f)
		msg.Extra[gelfExtraKey(f.Key)] = gelfValue(f.Value)
	}
	if msg.Short == "" {
		msg.Short = renderFields(rest)
	}
	if msg.Short == "" {
		msg.Short = "-"
	}

	g.truncate(msg)
	return msg
}

// truncate shortens Short and Full to fit max_message_size.
func (g *GelfLogger) truncate(msg *gelf.Message) {
	if g.maxMessageSize <= 0 {
		return
	}
	available := g.maxMessageSize - gelfOverhead
	if available <= 0 {
		return
	}

	if len(msg.Short) > available {
		msg.Short = truncateString(msg.Short, available)
		msg.Full = ""
		return
	}

	remaining := available - len(msg.Short)
	if remaining <= 0 {
		msg.Full = ""
		return
	}
	if len(msg.Full) > remaining {
		msg.Full = truncateString(msg.Full, remaining)
	}
}

// Close closes the GELF writer
func (g *GelfLogger) Close() error {
	return g.writer.Close()
}

// Name returns the name of the logger
func (g *GelfLogger) Name() string {
	return g.name
}

func gelfLevel(sev record.Severity) int32 {
	if level, ok := syslogLevels[sev]; ok {
		return level
	}
	return 6
}

// gelfExtraKey prefixes additional field names with an underscore.
// "_id" is reserved by GELF.
func gelfExtraKey(key string) string {
	if !strings.HasPrefix(key, "_") {
		key = "_" + key
	}
	if key == "_id" {
		key = "_id_"
	}
	return key
}

// gelfValue keeps strings and numbers; everything else is rendered as text.
func gelfValue(v any) interface{} {
	switch v := v.(type) {
	case string, int64, uint64, float64:
		return v
	default:
		return record.FormatValue(v)
	}
}

func renderFields(fields []record.Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, record.FormatKey(f.Key)+"="+record.FormatValue(f.Value))
	}
	return strings.Join(parts, " ")
}

var _ Logger = (*GelfLogger)(nil)
