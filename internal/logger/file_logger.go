// internal/logger/file_logger.go

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/record"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger handles logging to a file with optional rotation.
type FileLogger struct {
	mu     sync.Mutex
	writer io.WriteCloser // Can be *os.File or *lumberjack.Logger
	format string         // "json" or "text"
	name   string
	path   string
}

// NewFileLogger creates a new FileLogger instance.
func NewFileLogger(cfg config.Destination) (*FileLogger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file logger requires a path")
	}
	if cfg.Format != "json" && cfg.Format != "text" {
		return nil, fmt.Errorf("invalid file logger format: %s", cfg.Format)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("file logger requires a name")
	}

	appLogger := GetAppLogger()
	var writer io.WriteCloser
	var maxSizeMB int
	var maxAgeDays int
	var err error

	if cfg.Rotation.MaxSize != "" {
		// The max_size value is in MB; values with units are converted.
		maxSizeMB, err = strconv.Atoi(cfg.Rotation.MaxSize)
		if err != nil {
			var sizeBytes int64
			sizeBytes, err = config.ParseSize(cfg.Rotation.MaxSize)
			if err != nil {
				return nil, fmt.Errorf("invalid rotation.max_size '%s' for destination '%s': %w", cfg.Rotation.MaxSize, cfg.Name, err)
			}

			maxSizeMB = int(sizeBytes / (1024 * 1024))
			if sizeBytes > 0 && maxSizeMB == 0 {
				// lumberjack works in whole megabytes
				appLogger.Warn("Destination '%s': rotation.max_size value is too small (%d bytes). Using minimum 1MB.", cfg.Name, sizeBytes)
				maxSizeMB = 1
			}
		}

		if maxSizeMB <= 0 {
			appLogger.Warn("Destination '%s': rotation.max_size '%s' parsed to 0 or negative value, disabling size-based rotation.", cfg.Name, cfg.Rotation.MaxSize)
			maxSizeMB = 0
		}
	}

	if cfg.Rotation.MaxAge != "" {
		var ageDuration time.Duration
		ageDuration, err = config.ParseDuration(cfg.Rotation.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid rotation.max_age '%s' for destination '%s': %w", cfg.Rotation.MaxAge, cfg.Name, err)
		}
		maxAgeDays = int(ageDuration.Hours() / 24)
		if maxAgeDays <= 0 {
			maxAgeDays = 1
			appLogger.Warn("Destination '%s': rotation.max_age '%s' is less than 1 day, using 1 day.", cfg.Name, cfg.Rotation.MaxAge)
		}
	}

	rotationConfigured := maxSizeMB > 0 || maxAgeDays > 0 || cfg.Rotation.MaxBackups > 0

	if rotationConfigured {
		appLogger.Info("Configuring file rotation for '%s': MaxSize=%dMB, MaxAge=%ddays, MaxBackups=%d, Compress=%t",
			cfg.Path, maxSizeMB, maxAgeDays, cfg.Rotation.MaxBackups, cfg.Rotation.Compress)
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    maxSizeMB,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     maxAgeDays,
			Compress:   cfg.Rotation.Compress,
			LocalTime:  false,
		}
	} else {
		file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Path, err)
		}
		writer = file
	}

	return &FileLogger{
		writer: writer,
		format: cfg.Format,
		name:   cfg.Name,
		path:   cfg.Path,
	}, nil
}

// Send encodes the whole batch and appends it to the file with one write.
func (l *FileLogger) Send(_ context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i, r := range records {
		if l.format == "json" {
			if err := appendJSONLine(&buf, r); err != nil {
				return &SerializationError{Err: fmt.Errorf("record %d: %w", i, err)}
			}
		} else {
			buf.WriteString(r.String())
		}
		buf.WriteByte('\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(buf.Bytes()); err != nil {
		return &TransportError{Endpoint: l.path, Err: fmt.Errorf("failed to write log lines: %w", err)}
	}
	return nil
}

// appendJSONLine writes {"time":...,"severity":...,"fields":{...}}.
func appendJSONLine(buf *bytes.Buffer, r record.Record) error {
	fields, err := r.Fields().MarshalJSON()
	if err != nil {
		return err
	}
	ts, _ := json.Marshal(r.Timestamp().Format(record.TimeFormat))
	sev, _ := json.Marshal(r.Severity().String())

	buf.WriteString(`{"time":`)
	buf.Write(ts)
	buf.WriteString(`,"severity":`)
	buf.Write(sev)
	buf.WriteString(`,"fields":`)
	buf.Write(fields)
	buf.WriteByte('}')
	return nil
}

// Close closes the underlying file writer.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != nil {
		return l.writer.Close()
	}
	return nil
}

// Name returns the name of the logger destination.
func (l *FileLogger) Name() string {
	return l.name
}

// Ensure FileLogger implements the Logger interface.
var _ Logger = (*FileLogger)(nil)
