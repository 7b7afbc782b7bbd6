// internal/logger/app_logger.go

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/orgoj/servicelog/internal/record"
)

// AppLogger reports what the servicelog binaries themselves are doing.
// Lines use the same layout as console records, with the formatted
// message under the "msg" key:
//
//	2024-01-02T15:04:05.000Z Warning msg="destination 'archive' disabled"
type AppLogger struct {
	mu         sync.Mutex
	writer     io.Writer
	minimum    record.Severity
	showHealth bool
	now        func() time.Time
	exit       func(code int)
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// NewAppLogger returns a logger writing to w at Warning and above.
func NewAppLogger(w io.Writer) *AppLogger {
	return &AppLogger{
		writer:  w,
		minimum: record.Warning,
		now:     time.Now,
		exit:    os.Exit,
	}
}

// GetAppLogger returns the process-wide application logger.
func GetAppLogger() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger(os.Stdout)
	})
	return defaultLogger
}

// SetLevel sets the lowest severity that is written.
func (l *AppLogger) SetLevel(sev record.Severity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minimum = sev
}

// Level returns the lowest severity that is written.
func (l *AppLogger) Level() record.Severity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.minimum
}

// SetLogLevelFromString accepts any severity name or alias, e.g. "warn".
func (l *AppLogger) SetLogLevelFromString(name string) error {
	sev, err := record.ParseSeverity(name)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", name)
	}
	l.SetLevel(sev)
	return nil
}

// SetOutput redirects log output.
func (l *AppLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetShowHealth toggles logging of health probes.
func (l *AppLogger) SetShowHealth(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.showHealth = show
}

func (l *AppLogger) IsHealthLoggingEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.showHealth
}

func (l *AppLogger) enabled(sev record.Severity, health bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if health && !l.showHealth {
		return false
	}
	return sev >= l.minimum
}

// logf formats outside the lock; only the write is serialized.
func (l *AppLogger) logf(sev record.Severity, health bool, format string, args ...any) {
	if !l.enabled(sev, health) {
		return
	}

	r := record.NewAt(l.now(), sev, record.String("msg", fmt.Sprintf(format, args...)))
	line := r.String() + "\n"

	l.mu.Lock()
	_, _ = io.WriteString(l.writer, line)
	l.mu.Unlock()
}

func (l *AppLogger) Debug(format string, args ...any) {
	l.logf(record.Debug, false, format, args...)
}

func (l *AppLogger) Info(format string, args ...any) {
	l.logf(record.Info, false, format, args...)
}

func (l *AppLogger) Warn(format string, args ...any) {
	l.logf(record.Warning, false, format, args...)
}

func (l *AppLogger) Error(format string, args ...any) {
	l.logf(record.Error, false, format, args...)
}

// Fatal logs at Critical and exits with status 1.
func (l *AppLogger) Fatal(format string, args ...any) {
	l.logf(record.Critical, false, format, args...)
	l.exit(1)
}

// Health logs a health probe at Info, only when enabled by SetShowHealth.
func (l *AppLogger) Health(format string, args ...any) {
	l.logf(record.Info, true, format, args...)
}
