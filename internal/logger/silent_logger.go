// internal/logger/silent_logger.go

package logger

import (
	"context"

	"github.com/orgoj/servicelog/internal/record"
)

// SilentLogger discards every batch.
type SilentLogger struct {
	name string
}

// NewSilentLogger creates a logger that accepts and drops records.
func NewSilentLogger(name string) *SilentLogger {
	return &SilentLogger{name: name}
}

func (s *SilentLogger) Send(_ context.Context, _ []record.Record) error { return nil }

func (s *SilentLogger) Close() error { return nil }

func (s *SilentLogger) Name() string { return s.name }

var _ Logger = (*SilentLogger)(nil)
