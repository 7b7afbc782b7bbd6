// internal/record/field.go

package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Field is a single named value within a record.
// Value is one of string, int64, uint64, float64, bool, nil, or a nested
// structure (Fields, map[string]any, []any).
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered list of fields. It encodes to a JSON object whose
// keys keep insertion order. Duplicate keys are emitted as-is.
type Fields []Field

// String creates a text field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: int64(value)}
}

// Int64 creates an integer field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Null creates a field with a null value.
func Null(key string) Field {
	return Field{Key: key, Value: nil}
}

// Group creates a nested, ordered structure.
func Group(key string, fields ...Field) Field {
	return Field{Key: key, Value: cloneFields(fields)}
}

// Any creates a field from an arbitrary value. Integer and float kinds are
// normalized to int64/uint64 and float64 so equal values compare equal
// regardless of the Go type they were passed as.
func Any(key string, value any) Field {
	return Field{Key: key, Value: cloneValue(normalize(value))}
}

// cloneFields deep-copies fields so the result shares no nested
// structure with the input. The result is never nil.
func cloneFields(fields []Field) Fields {
	out := make(Fields, len(fields))
	for i, f := range fields {
		out[i] = Field{Key: f.Key, Value: cloneValue(f.Value)}
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case Fields:
		if v == nil {
			return v
		}
		return cloneFields(v)
	case []Field:
		if v == nil {
			return Fields(nil)
		}
		return cloneFields(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		if v == nil {
			return v
		}
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func normalize(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return normalizeUint(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return normalizeUint(v)
	case float32:
		return float64(v)
	case []Field:
		return Fields(v)
	case Field:
		return Fields{v}
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}

func normalizeUint(v uint64) any {
	if v > math.MaxInt64 {
		return v
	}
	return int64(v)
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (fs Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendFields(&buf, fs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Lookup returns the value of the first field named key.
func (fs Fields) Lookup(key string) (any, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalFields encodes fields as an ordered JSON object.
func MarshalFields(fields []Field) ([]byte, error) {
	return Fields(fields).MarshalJSON()
}

func appendFields(buf *bytes.Buffer, fields []Field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(f.Key)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := appendValue(buf, f.Value); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func appendValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case Fields:
		return appendFields(buf, v)
	case []Field:
		return appendFields(buf, v)
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendValue(buf, item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	}
	data, err := marshalJSON(value)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// marshalJSON encodes v without HTML escaping, so "<b>" stays "<b>".
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
