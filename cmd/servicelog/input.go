package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/orgoj/servicelog/internal/queue"
	"github.com/orgoj/servicelog/internal/record"
)

// maxLineSize bounds a single JSON line read from stdin.
const maxLineSize = 1 << 20

// parseFieldArgs turns key=value arguments into fields, in order.
func parseFieldArgs(args []string) ([]record.Field, error) {
	fields := make([]record.Field, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", arg)
		}
		fields = append(fields, record.Any(key, parseValue(value)))
	}
	return fields, nil
}

// parseValue types a command-line value: integer, float, bool, null or string.
func parseValue(s string) any {
	if s == "null" {
		return nil
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXnN") {
		return f
	}
	return s
}

// stdinLine is one JSON line accepted with -stdin.
type stdinLine struct {
	Severity string          `json:"severity"`
	Fields   json.RawMessage `json:"fields"`
}

// readRecords appends one record per non-empty JSON line of r to q.
func readRecords(r io.Reader, defaultSeverity record.Severity, q *queue.LogQueue) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var in stdinLine
		if err := json.Unmarshal(line, &in); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		sev := defaultSeverity
		if in.Severity != "" {
			parsed, err := record.ParseSeverity(in.Severity)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			sev = parsed
		}

		var fields record.Fields
		if len(in.Fields) > 0 && string(in.Fields) != "null" {
			decoded, err := record.DecodeFields(in.Fields)
			if err != nil {
				return fmt.Errorf("line %d: fields: %w", lineNo, err)
			}
			fields = decoded
		}

		q.Append(record.New(sev, fields...))
	}
	return scanner.Err()
}
