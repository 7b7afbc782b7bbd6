// Package validation checks untrusted input accepted by the sink.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/orgoj/servicelog/internal/record"
)

const (
	DefaultMaxNameLength = 128
	DefaultMaxDepth      = 10
	DefaultMaxKeyLength  = 128
)

// Application and subsystem names: alphanumeric, dot, underscore, hyphen.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ErrInputTooLong indicates the input string exceeds the maximum allowed length.
var ErrInputTooLong = errors.New("input exceeds maximum length")

// ErrInvalidChars indicates the input string contains disallowed characters.
var ErrInvalidChars = errors.New("input contains invalid characters")

// ErrMaxDepthExceeded indicates the nested structure exceeds the maximum allowed depth.
var ErrMaxDepthExceeded = errors.New("maximum nesting depth exceeded")

// ErrInvalidKey indicates an empty or overlong field key.
var ErrInvalidKey = errors.New("invalid field key")

// IsValidName checks an application or subsystem name.
func IsValidName(name string, maxLength int) error {
	if len(name) > maxLength {
		return fmt.Errorf("%w: got %d, max %d", ErrInputTooLong, len(name), maxLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: allowed alphanumeric, dot, underscore, hyphen", ErrInvalidChars)
	}
	return nil
}

// CheckFields limits nesting depth and key length of decoded fields.
func CheckFields(fields record.Fields, maxDepth, maxKeyLength int) error {
	return checkFields(fields, maxDepth, 0, maxKeyLength)
}

func checkFields(fields record.Fields, maxDepth, depth, maxKeyLength int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: limit %d", ErrMaxDepthExceeded, maxDepth)
	}
	for _, f := range fields {
		if f.Key == "" || len(f.Key) > maxKeyLength {
			return fmt.Errorf("%w: %q", ErrInvalidKey, truncateKey(f.Key))
		}
		if err := checkValue(f.Value, maxDepth, depth+1, maxKeyLength); err != nil {
			return fmt.Errorf("%s: %w", f.Key, err)
		}
	}
	return nil
}

func checkValue(value any, maxDepth, depth, maxKeyLength int) error {
	switch v := value.(type) {
	case record.Fields:
		return checkFields(v, maxDepth, depth, maxKeyLength)
	case []any:
		if depth > maxDepth {
			return fmt.Errorf("%w: limit %d", ErrMaxDepthExceeded, maxDepth)
		}
		for i, item := range v {
			if err := checkValue(item, maxDepth, depth+1, maxKeyLength); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func truncateKey(key string) string {
	const keep = 32
	if len(key) <= keep {
		return key
	}
	return key[:keep] + "..."
}
