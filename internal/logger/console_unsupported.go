//go:build js || wasip1

// internal/logger/console_unsupported.go

package logger

// NewConsoleLogger always fails on targets without a process console.
func NewConsoleLogger(name string) (Logger, error) {
	return nil, ErrConsoleUnavailable
}
