// internal/logger/payload.go

package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orgoj/servicelog/internal/record"
)

// Reserved field keys that are lifted out of the record into the entry's
// own properties.
const (
	KeyText       = "text"
	KeyCategory   = "category"
	KeyClassName  = "class_name"
	KeyMethodName = "method_name"
	KeyThreadID   = "thread_id"
)

// IngestPayload is the request body accepted by the ingestion API.
type IngestPayload struct {
	ApplicationName string        `json:"applicationName"`
	SubsystemName   string        `json:"subsystemName"`
	ComputerName    string        `json:"computerName,omitempty"`
	LogEntries      []IngestEntry `json:"logEntries"`
}

// IngestEntry is one record in ingestion format. Timestamp is in
// milliseconds since the Unix epoch and Text holds the record's fields as
// a JSON object.
type IngestEntry struct {
	Timestamp  int64  `json:"timestamp"`
	Severity   int    `json:"severity"`
	Text       string `json:"text"`
	Category   string `json:"category,omitempty"`
	ClassName  string `json:"className,omitempty"`
	MethodName string `json:"methodName,omitempty"`
	ThreadID   string `json:"threadId,omitempty"`
}

// BuildPayload converts a batch into the ingestion payload, preserving
// record order. Field encoding failures are returned as *SerializationError.
func BuildPayload(applicationName, subsystemName, computerName string, records []record.Record) (*IngestPayload, error) {
	payload := &IngestPayload{
		ApplicationName: applicationName,
		SubsystemName:   subsystemName,
		ComputerName:    computerName,
		LogEntries:      make([]IngestEntry, 0, len(records)),
	}
	for i, r := range records {
		entry, err := newIngestEntry(r)
		if err != nil {
			return nil, &SerializationError{Err: fmt.Errorf("record %d: %w", i, err)}
		}
		payload.LogEntries = append(payload.LogEntries, entry)
	}
	return payload, nil
}

func newIngestEntry(r record.Record) (IngestEntry, error) {
	entry := IngestEntry{
		Timestamp: r.Timestamp().UnixMilli(),
		Severity:  int(r.Severity()),
	}

	var (
		ordinary record.Fields
		text     string
		hasText  bool
	)
	for _, f := range r.Fields() {
		switch f.Key {
		case KeyText:
			text, hasText = reservedString(f.Value), true
		case KeyCategory:
			entry.Category = reservedString(f.Value)
		case KeyClassName:
			entry.ClassName = reservedString(f.Value)
		case KeyMethodName:
			entry.MethodName = reservedString(f.Value)
		case KeyThreadID:
			entry.ThreadID = reservedString(f.Value)
		default:
			ordinary = append(ordinary, f)
		}
	}

	// An explicit text wins over the remaining fields.
	if hasText {
		entry.Text = text
		return entry, nil
	}

	data, err := record.MarshalFields(ordinary)
	if err != nil {
		return IngestEntry{}, err
	}
	entry.Text = string(data)
	return entry, nil
}

func reservedString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return record.FormatValue(s)
	}
}

// Encode renders the payload as JSON without HTML escaping.
func (p *IngestPayload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, &SerializationError{Err: err}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Record converts an entry back into a record. A text that is not a JSON
// object becomes a single "text" field. Lifted properties are appended as
// fields under their reserved keys.
func (e IngestEntry) Record() (record.Record, error) {
	sev, err := record.SeverityFromCode(e.Severity)
	if err != nil {
		return record.Record{}, err
	}

	fields, err := record.DecodeFields([]byte(e.Text))
	if err != nil {
		fields = record.Fields{record.String(KeyText, e.Text)}
	}
	for _, extra := range []struct{ key, value string }{
		{KeyCategory, e.Category},
		{KeyClassName, e.ClassName},
		{KeyMethodName, e.MethodName},
		{KeyThreadID, e.ThreadID},
	} {
		if extra.value != "" {
			fields = append(fields, record.String(extra.key, extra.value))
		}
	}

	ts := time.Now()
	if e.Timestamp > 0 {
		ts = time.UnixMilli(e.Timestamp)
	}
	return record.NewAt(ts, sev, fields...), nil
}
