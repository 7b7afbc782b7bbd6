// internal/record/record.go

package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// TimeFormat is the timestamp layout used for text renderings.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Record is one structured log entry. It is immutable once created.
type Record struct {
	severity  Severity
	fields    Fields
	timestamp time.Time
}

// New creates a record stamped with the current time.
func New(sev Severity, fields ...Field) Record {
	return NewAt(time.Now(), sev, fields...)
}

// NewAt creates a record with an explicit timestamp.
func NewAt(ts time.Time, sev Severity, fields ...Field) Record {
	return Record{
		severity:  sev,
		fields:    cloneFields(fields),
		timestamp: ts.UTC(),
	}
}

// KV creates a record from alternating keys and values:
//
//	record.KV(record.Info, "method", "GET", "status", 200)
//
// Non-string keys are rendered with fmt.Sprint. A trailing key without a
// value gets a null value.
func KV(sev Severity, keysAndValues ...any) Record {
	fields := make(Fields, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		var value any
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		fields = append(fields, Any(key, value))
	}
	return Record{
		severity:  sev,
		fields:    fields,
		timestamp: time.Now().UTC(),
	}
}

// Severity returns the record's severity.
func (r Record) Severity() Severity {
	return r.severity
}

// Timestamp returns the instant the record was created, in UTC.
func (r Record) Timestamp() time.Time {
	return r.timestamp
}

// Fields returns a deep copy of the record's fields in insertion order.
func (r Record) Fields() Fields {
	return cloneFields(r.fields)
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Lookup returns the value of the first field named key.
func (r Record) Lookup(key string) (any, bool) {
	return r.fields.Lookup(key)
}

// String renders the record as a single text line:
//
//	2024-01-02T15:04:05.000Z Info method=GET status=200
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.timestamp.Format(TimeFormat))
	sb.WriteString(" ")
	sb.WriteString(r.severity.String())
	for _, f := range r.fields {
		sb.WriteString(" ")
		sb.WriteString(FormatKey(f.Key))
		sb.WriteString("=")
		sb.WriteString(FormatValue(f.Value))
	}
	return sb.String()
}

// FormatValue converts a field value to its text form.
func FormatValue(value any) string {
	switch v := value.(type) {
	case string:
		if needsQuoting(v) {
			return strconv.Quote(v)
		}
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	case Fields:
		if data, err := v.MarshalJSON(); err == nil {
			return string(data)
		}
		return strconv.Quote(fmt.Sprintf("%v", v))
	default:
		if data, err := marshalJSON(v); err == nil {
			return string(data)
		}
		return strconv.Quote(fmt.Sprintf("%v", v))
	}
}

// FormatKey quotes keys that would make key=value ambiguous or break the line.
func FormatKey(key string) string {
	if needsQuoting(key) {
		return strconv.Quote(key)
	}
	return key
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == '=' || r == '"' || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}
