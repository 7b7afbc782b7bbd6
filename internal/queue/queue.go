// internal/queue/queue.go

package queue

import (
	"strings"
	"sync"

	"github.com/orgoj/servicelog/internal/record"
)

// LogQueue buffers records until they are drained for sending.
// It is not safe for concurrent use; give each unit of work its own queue,
// or use SyncQueue when sharing is unavoidable.
type LogQueue struct {
	entries []record.Record
}

// New returns an empty queue.
func New() *LogQueue {
	return &LogQueue{}
}

// Append adds a record at the tail of the queue.
func (q *LogQueue) Append(r record.Record) {
	q.entries = append(q.entries, r)
}

// Log appends a record built from alternating keys and values.
func (q *LogQueue) Log(sev record.Severity, keysAndValues ...any) {
	q.Append(record.KV(sev, keysAndValues...))
}

// Drain returns all queued records in insertion order and leaves the
// queue empty. The returned slice is owned by the caller.
func (q *LogQueue) Drain() []record.Record {
	drained := q.entries
	q.entries = nil
	if drained == nil {
		return []record.Record{}
	}
	return drained
}

// Len returns the number of queued records.
func (q *LogQueue) Len() int {
	return len(q.entries)
}

// IsEmpty reports whether there is nothing to send.
func (q *LogQueue) IsEmpty() bool {
	return len(q.entries) == 0
}

// Clear discards all queued records.
func (q *LogQueue) Clear() {
	q.entries = nil
}

// String renders queued records one per line.
func (q *LogQueue) String() string {
	lines := make([]string, len(q.entries))
	for i, r := range q.entries {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// SyncQueue is a LogQueue guarded by a mutex, for callers that append
// from several goroutines.
type SyncQueue struct {
	mu sync.Mutex
	q  LogQueue
}

// NewSync returns an empty synchronized queue.
func NewSync() *SyncQueue {
	return &SyncQueue{}
}

// Append adds a record at the tail of the queue.
func (s *SyncQueue) Append(r record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q.Append(r)
}

// Log appends a record built from alternating keys and values.
func (s *SyncQueue) Log(sev record.Severity, keysAndValues ...any) {
	s.Append(record.KV(sev, keysAndValues...))
}

// Drain returns all queued records and leaves the queue empty.
func (s *SyncQueue) Drain() []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Drain()
}

// Len returns the number of queued records.
func (s *SyncQueue) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Len()
}
