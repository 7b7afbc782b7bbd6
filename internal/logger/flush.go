// internal/logger/flush.go

package logger

import (
	"context"

	"github.com/orgoj/servicelog/internal/record"
)

// Drainer is a queue that can hand over its buffered records.
type Drainer interface {
	Drain() []record.Record
}

// Flush drains q and sends the batch to l. An empty queue sends nothing.
func Flush(ctx context.Context, q Drainer, l Logger) error {
	batch := q.Drain()
	if len(batch) == 0 {
		return nil
	}
	return l.Send(ctx, batch)
}
