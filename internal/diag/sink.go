// Package diag records failed login attempts for later diagnosis.
//
// Entries never carry the secret; Detail is the raw error text of the
// failed call and is never shown to the user.
package diag

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one recorded failure.
type Entry struct {
	AttemptID string
	Kind      string
	Detail    string
	Discarded bool // outcome arrived after the screen was torn down
	At        time.Time
}

// Sink receives failure entries. Implementations must not block the caller
// for long; Record is called on the UI goroutine.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

// LogSink writes entries to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a LogSink, falling back to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Record(ctx context.Context, e Entry) {
	s.Logger.InfoContext(ctx, "login failed",
		"attempt_id", e.AttemptID,
		"kind", e.Kind,
		"detail", e.Detail,
		"discarded", e.Discarded,
	)
}

// Multi fans an entry out to every sink in order.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Entry) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, e)
		}
	}
}
