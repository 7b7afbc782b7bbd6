// internal/record/severity.go

package record

import (
	"fmt"
	"strings"
)

// Severity is the level of a log record. The numeric value is the severity
// code understood by the remote ingestion service.
type Severity uint8

const (
	Debug    Severity = 1
	Verbose  Severity = 2
	Info     Severity = 3
	Warning  Severity = 4
	Error    Severity = 5
	Critical Severity = 6
)

// DefaultSeverity is used when a caller does not specify one.
const DefaultSeverity = Info

var severityNames = map[Severity]string{
	Debug:    "Debug",
	Verbose:  "Verbose",
	Info:     "Info",
	Warning:  "Warning",
	Error:    "Error",
	Critical: "Critical",
}

// severityAliases maps lower-cased names to severities.
var severityAliases = map[string]Severity{
	"debug":    Debug,
	"trace":    Debug,
	"verbose":  Verbose,
	"info":     Info,
	"warning":  Warning,
	"warn":     Warning,
	"error":    Error,
	"critical": Critical,
	"fatal":    Critical,
}

// String returns the capitalized severity name, e.g. "Info".
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// ParseSeverity converts a severity name to a Severity.
// Matching is case-insensitive.
func ParseSeverity(name string) (Severity, error) {
	sev, ok := severityAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("invalid severity: %s", name)
	}
	return sev, nil
}

// SeverityFromCode converts a numeric service code back to a Severity.
func SeverityFromCode(code int) (Severity, error) {
	sev := Severity(code)
	if code < 0 || code > 255 || !sev.Valid() {
		return 0, fmt.Errorf("invalid severity code: %d", code)
	}
	return sev, nil
}
