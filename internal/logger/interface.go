// internal/logger/interface.go

package logger

import (
	"context"

	"github.com/orgoj/servicelog/internal/record"
)

// Logger defines the interface for all log destination implementations.
type Logger interface {
	// Send makes one best-effort attempt to deliver the whole batch.
	// The slice is treated as read-only and is not retained after return.
	// An empty batch returns nil without performing any I/O.
	Send(ctx context.Context, records []record.Record) error

	// Close releases file handles and connections held by the logger.
	Close() error

	// Name returns the unique name of the logger instance (from config).
	Name() string
}
