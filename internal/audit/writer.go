package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/lampdirector/internal/director"
)

// Writer defaults.
const (
	defaultBufferSize    = 256
	defaultPruneInterval = time.Hour
	recordTimeout        = 5 * time.Second
)

// Logger is the logging interface used by the writer.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// DeviceID is stamped on every entry.
	DeviceID string

	// BufferSize bounds the queue between the controller and the database.
	// Entries arriving while the queue is full are dropped.
	BufferSize int

	// Retention is how long entries are kept. Zero disables pruning.
	Retention time.Duration

	// PruneInterval is how often old entries are pruned (default hourly).
	PruneInterval time.Duration

	Logger Logger

	// Now overrides the clock used for pruning.
	Now func() time.Time
}

// Writer is a director.Observer that appends every published command to a
// Repository from a background goroutine, so the controller never waits on
// disk I/O.
type Writer struct {
	director.NopObserver

	repo     Recorder
	opts     WriterOptions
	queue    chan Entry
	dropped  atomic.Uint64
	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// Recorder is the subset of Repository the writer needs.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// NewWriter creates a writer. Call Start to begin draining the queue.
func NewWriter(repo Recorder, opts WriterOptions) *Writer {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = defaultPruneInterval
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Writer{
		repo:  repo,
		opts:  opts,
		queue: make(chan Entry, opts.BufferSize),
		done:  make(chan struct{}),
	}
}

// Evaluated queues an entry for every command that reached the publisher.
func (w *Writer) Evaluated(ev director.Evaluation) {
	if !ev.Published {
		return
	}

	e := Entry{
		DeviceID:     w.opts.DeviceID,
		At:           ev.At,
		Trigger:      string(ev.Trigger),
		Reason:       string(ev.Reason),
		R:            ev.Command.R,
		G:            ev.Command.G,
		B:            ev.Command.B,
		Illuminance:  ev.Illuminance,
		ActiveMotion: ev.ActiveMotion,
	}

	select {
	case w.queue <- e:
	default:
		if w.dropped.Add(1) == 1 {
			w.opts.Logger.Warn("actuation log queue full, dropping entries", "buffer", w.opts.BufferSize)
		}
	}
}

// Dropped returns how many entries were discarded because the queue was full.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Start drains the queue until ctx is cancelled or Close is called.
// Entries still queued at that point are written before the goroutine exits.
func (w *Writer) Start(ctx context.Context) {
	if w.started.Swap(true) {
		return
	}
	go w.loop(ctx)
}

// Close stops the writer and waits for queued entries to be flushed.
// Evaluated must not be called after Close.
func (w *Writer) Close() {
	w.stopOnce.Do(func() { close(w.queue) })
	if w.started.Load() {
		<-w.done
	}
}

func (w *Writer) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.opts.PruneInterval)
	defer ticker.Stop()

	w.prune()

	for {
		select {
		case e, ok := <-w.queue:
			if !ok {
				return
			}
			w.record(e)
		case <-ticker.C:
			w.prune()
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// drain writes whatever is still queued without blocking for more.
func (w *Writer) drain() {
	for {
		select {
		case e, ok := <-w.queue:
			if !ok {
				return
			}
			w.record(e)
		default:
			return
		}
	}
}

func (w *Writer) record(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := w.repo.Record(ctx, &e); err != nil {
		w.opts.Logger.Error("recording actuation", "error", err, "reason", e.Reason)
	}
}

func (w *Writer) prune() {
	if w.opts.Retention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	cutoff := w.opts.Now().Add(-w.opts.Retention)
	n, err := w.repo.Prune(ctx, cutoff)
	if err != nil {
		w.opts.Logger.Error("pruning actuation log", "error", err)
		return
	}
	if n > 0 {
		w.opts.Logger.Info("pruned actuation log", "removed", n, "before", cutoff)
	}
}
