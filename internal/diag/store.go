package diag

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dicklesworthstone/loginchallenge/internal/db"
)

const (
	defaultQueueSize = 64
	writeTimeout     = 5 * time.Second
)

// Store persists entries to the diagnostics database from a background
// writer, so Record never waits on disk. Entries that do not fit in the
// queue, or arrive after Close, are logged and dropped: diagnostics never
// break the login flow.
type Store struct {
	db     *db.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan Entry
	done   chan struct{}
}

// NewStore starts the writer for an open database. Close must be called to
// flush pending entries before the database is closed.
func NewStore(d *db.DB, logger *slog.Logger) *Store {
	s := newStore(d, logger, defaultQueueSize)
	go s.run()
	return s
}

func newStore(d *db.DB, logger *slog.Logger, queueSize int) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		db:     d,
		logger: logger,
		queue:  make(chan Entry, queueSize),
		done:   make(chan struct{}),
	}
	return s
}

// Record queues e for writing.
func (s *Store) Record(_ context.Context, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("diagnostic dropped after close", "attempt_id", e.AttemptID)
		return
	}
	select {
	case s.queue <- e:
	default:
		s.logger.Warn("diagnostic queue full, entry dropped", "attempt_id", e.AttemptID, "kind", e.Kind)
	}
}

func (s *Store) run() {
	defer close(s.done)
	for e := range s.queue {
		s.write(e)
	}
}

func (s *Store) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := s.db.InsertFailure(ctx, db.FailureRecord{
		AttemptID:  e.AttemptID,
		RecordedAt: e.At,
		Kind:       e.Kind,
		Detail:     e.Detail,
		Discarded:  e.Discarded,
	})
	if err != nil {
		s.logger.Warn("record diagnostic failed", "attempt_id", e.AttemptID, "error", err)
	}
}

// Close stops accepting entries and waits until every queued one has been
// written. It is safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

// Recent returns up to limit entries, newest first. Entries still queued
// are not included; call Close first to see them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	records, err := s.db.RecentFailures(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, Entry{
			AttemptID: r.AttemptID,
			Kind:      r.Kind,
			Detail:    r.Detail,
			Discarded: r.Discarded,
			At:        r.RecordedAt,
		})
	}
	return out, nil
}
