package relay

import (
	"context"
	"time"
)

// Exchange is one proxied request/response pair, captured for
// diagnostics. Recorded exchanges are never served back to callers.
type Exchange struct {
	At       time.Time
	Method   string
	Target   string
	Status   int
	Bytes    int64
	Duration time.Duration
	Error    string
}

// Recorder appends exchange records to a diagnostics sink. A nil
// Recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, exchange Exchange) error
	Close() error
}
