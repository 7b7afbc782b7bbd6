//go:build !js && !wasip1

// internal/logger/console_logger.go

package logger

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/orgoj/servicelog/internal/record"
)

// ConsoleLogger prints one line per record.
type ConsoleLogger struct {
	mu     sync.Mutex
	writer io.Writer
	name   string
}

// NewConsoleLogger creates a logger that writes to stdout.
func NewConsoleLogger(name string) (Logger, error) {
	return NewConsoleLoggerWriter(name, os.Stdout), nil
}

// NewConsoleLoggerWriter creates a console logger writing to w.
func NewConsoleLoggerWriter(name string, w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{writer: w, name: name}
}

// Send writes the batch. Write failures are ignored.
func (c *ConsoleLogger) Send(_ context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteString(r.String())
		buf.WriteByte('\n')
	}

	c.mu.Lock()
	_, _ = c.writer.Write(buf.Bytes())
	c.mu.Unlock()
	return nil
}

func (c *ConsoleLogger) Close() error { return nil }

func (c *ConsoleLogger) Name() string { return c.name }

var _ Logger = (*ConsoleLogger)(nil)
