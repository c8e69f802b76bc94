package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// ErrWriterClosed is returned by Close when called twice.
var ErrWriterClosed = errors.New("cache writer closed")

// WriteFunc is a unit of background cache work.
type WriteFunc func(ctx context.Context) error

type writeTask struct {
	key string
	fn  WriteFunc
}

// WriterStats contains writer statistics.
type WriterStats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
}

// Writer runs cache writes detached from the request that produced them.
// Submit never blocks; failures are logged and counted, never returned.
type Writer struct {
	logger  zerolog.Logger
	timeout time.Duration
	tasks   chan writeTask
	workers conc.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewWriter starts workers goroutines draining a queue of queueSize writes.
// Each write gets its own context bounded by timeout (no bound when <= 0).
func NewWriter(workers, queueSize int, timeout time.Duration, logger zerolog.Logger) *Writer {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}

	w := &Writer{
		logger:  logger.With().Str("component", "cache_writer").Logger(),
		timeout: timeout,
		tasks:   make(chan writeTask, queueSize),
	}
	for i := 0; i < workers; i++ {
		w.workers.Go(w.run)
	}
	return w
}

// Submit queues fn under key for background execution. It reports whether
// the write was accepted; a full queue or closed writer drops it.
func (w *Writer) Submit(key string, fn WriteFunc) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		w.logger.Warn().Str("key", key).Msg("cache write dropped: writer closed")
		return false
	}

	select {
	case w.tasks <- writeTask{key: key, fn: fn}:
		return true
	default:
		w.dropped.Add(1)
		w.logger.Warn().Str("key", key).Msg("cache write dropped: queue full")
		return false
	}
}

func (w *Writer) run() {
	for task := range w.tasks {
		w.execute(task)
	}
}

func (w *Writer) execute(task writeTask) {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	var pc panics.Catcher
	pc.Try(func() { err = task.fn(ctx) })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	if err != nil {
		w.failed.Add(1)
		w.logger.Error().Err(err).
			Str("key", task.key).
			Dur("duration", time.Since(start)).
			Msg("cache write failed")
		return
	}

	w.completed.Add(1)
	w.logger.Debug().
		Str("key", task.key).
		Dur("duration", time.Since(start)).
		Msg("cache write completed")
}

// Stats returns a snapshot of the writer counters.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		Completed: w.completed.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
		Pending:   len(w.tasks),
	}
}

// Close stops accepting writes and waits for queued ones to finish or for
// ctx to end, whichever comes first.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	w.closed = true
	close(w.tasks)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
