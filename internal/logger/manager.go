// internal/logger/manager.go

package logger

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/orgoj/servicelog/internal/config"
)

// Manager handles the lifecycle and access to logger instances.
type Manager struct {
	loggers   map[string]Logger
	mu        sync.RWMutex
	appLogger *AppLogger
}

// NewManager creates a new logger manager.
func NewManager() *Manager {
	return &Manager{
		loggers:   make(map[string]Logger),
		appLogger: GetAppLogger(),
	}
}

// InitLoggers builds one logger per enabled destination. Destinations that
// fail to initialize are skipped and reported in the returned error.
func (m *Manager) InitLoggers(destinations []config.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Close existing loggers first if any (e.g., on config reload)
	for name, lgr := range m.loggers {
		if err := lgr.Close(); err != nil {
			m.appLogger.Warn("Error closing existing logger '%s' during re-initialization: %v", name, err)
		}
	}
	m.loggers = make(map[string]Logger)

	var initErrors []error
	for _, dest := range destinations {
		if !dest.Enabled {
			continue
		}

		lgr, err := newLogger(dest)
		if err != nil {
			m.appLogger.Error("Failed to initialize logger destination '%s' (type: %s): %v", dest.Name, dest.Type, err)
			initErrors = append(initErrors, fmt.Errorf("dest '%s': %w", dest.Name, err))
			continue
		}

		m.loggers[dest.Name] = lgr
		m.appLogger.Info("Initialized logger destination '%s' (type: %s)", dest.Name, dest.Type)
	}

	if len(initErrors) > 0 {
		return fmt.Errorf("failed to initialize some loggers: %w", errors.Join(initErrors...))
	}
	return nil
}

// newLogger constructs the backend for one destination.
func newLogger(dest config.Destination) (Logger, error) {
	switch dest.Type {
	case config.TypeRemote:
		return newRemoteFromConfig(dest)
	case config.TypeConsole:
		return NewConsoleLogger(dest.Name)
	case config.TypeSilent:
		return NewSilentLogger(dest.Name), nil
	case config.TypeFile:
		return NewFileLogger(dest)
	case config.TypeGelf:
		return NewGelfLogger(dest)
	default:
		return nil, fmt.Errorf("unsupported logger type: %s", dest.Type)
	}
}

func newRemoteFromConfig(dest config.Destination) (*RemoteLogger, error) {
	client := &http.Client{}
	if dest.Timeout != "" {
		timeout, err := config.ParseDuration(dest.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout '%s': %w", dest.Timeout, err)
		}
		client.Timeout = timeout
	}
	return NewRemoteLogger(dest.Name, RemoteConfig{
		Endpoint:        dest.Endpoint,
		APIKey:          dest.APIKey,
		APIKeyHeader:    dest.APIKeyHeader,
		ApplicationName: dest.ApplicationName,
		SubsystemName:   dest.SubsystemName,
	}, WithHTTPClient(client))
}

// GetLogger retrieves a logger instance by name.
// Returns nil if the logger is not found or not initialized.
func (m *Manager) GetLogger(name string) Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lgr, ok := m.loggers[name]
	if !ok {
		return nil
	}
	return lgr
}

// Names returns the sorted names of all initialized loggers.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.loggers))
	for name := range m.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll closes all managed logger instances.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appLogger.Info("Shutting down... Closing loggers.")
	var wg sync.WaitGroup
	for name, lgr := range m.loggers {
		wg.Add(1)
		go func(name string, lgr Logger) {
			defer wg.Done()
			if err := lgr.Close(); err != nil {
				m.appLogger.Warn("Error closing logger '%s': %v", name, err)
			}
		}(name, lgr)
	}
	wg.Wait()
	m.appLogger.Info("Loggers closed.")
	m.loggers = make(map[string]Logger)
}
