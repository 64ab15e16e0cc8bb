package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/lampdirector/internal/director"
	"github.com/nerrad567/lampdirector/internal/lamp"
)

type fakeRecorder struct {
	mu       sync.Mutex
	entries  []Entry
	prunedAt []time.Time
	fail     error
	block    chan struct{}
}

func (f *fakeRecorder) Record(_ context.Context, e *Entry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeRecorder) Prune(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunedAt = append(f.prunedAt, before)
	return 0, nil
}

func (f *fakeRecorder) recorded() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

func published(reason lamp.Reason, cmd lamp.Command) director.Evaluation {
	return director.Evaluation{
		At:           epoch,
		Trigger:      director.TriggerMotion,
		ActiveMotion: 1,
		Reason:       reason,
		HasCommand:   true,
		Command:      cmd,
		Published:    true,
	}
}

func TestWriter_RecordsPublishedCommands(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewWriter(rec, WriterOptions{DeviceID: "desk-lamp"})
	w.Start(context.Background())

	w.Evaluated(published(lamp.ReasonDark, lamp.Uniform(128)))
	// Neither a no-op decision nor a suppressed repeat reaches the log.
	w.Evaluated(director.Evaluation{At: epoch, Reason: lamp.ReasonNotDark})
	w.Evaluated(director.Evaluation{At: epoch, Reason: lamp.ReasonNoMotion, HasCommand: true, Suppressed: true})
	w.Evaluated(published(lamp.ReasonNoMotion, lamp.Off()))
	w.Close()

	got := rec.recorded()
	if len(got) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(got))
	}
	if got[0].DeviceID != "desk-lamp" || got[0].Reason != "dark" || got[0].R != 128 {
		t.Errorf("entry[0] = %+v, want desk-lamp dark 128", got[0])
	}
	if got[0].Trigger != "motion" {
		t.Errorf("entry[0].Trigger = %q, want %q", got[0].Trigger, "motion")
	}
	if got[1].Reason != "no_motion" || got[1].R != 0 {
		t.Errorf("entry[1] = %+v, want no_motion off", got[1])
	}
}

func TestWriter_DropsWhenFull(t *testing.T) {
	rec := &fakeRecorder{block: make(chan struct{})}
	w := NewWriter(rec, WriterOptions{BufferSize: 1})
	w.Start(context.Background())

	// The first entry may be taken off the queue and block in Record; the
	// queue itself holds one more. Everything after that is dropped.
	for i := 0; i < 10; i++ {
		w.Evaluated(published(lamp.ReasonDark, lamp.Uniform(128)))
	}
	if w.Dropped() < 8 {
		t.Errorf("Dropped() = %d, want at least 8", w.Dropped())
	}

	close(rec.block)
	w.Close()
}

func TestWriter_RecordErrorDoesNotStop(t *testing.T) {
	rec := &fakeRecorder{fail: errors.New("disk full")}
	w := NewWriter(rec, WriterOptions{})
	w.Start(context.Background())

	w.Evaluated(published(lamp.ReasonDark, lamp.Uniform(128)))
	w.Evaluated(published(lamp.ReasonNoMotion, lamp.Off()))
	w.Close()

	if got := rec.recorded(); len(got) != 0 {
		t.Errorf("recorded %d entries, want 0", len(got))
	}
}

func TestWriter_PrunesOnStart(t *testing.T) {
	rec := &fakeRecorder{}
	now := epoch
	w := NewWriter(rec, WriterOptions{
		Retention: 30 * 24 * time.Hour,
		Now:       func() time.Time { return now },
	})
	w.Start(context.Background())
	w.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.prunedAt) != 1 {
		t.Fatalf("Prune called %d times, want 1", len(rec.prunedAt))
	}
	if want := epoch.Add(-30 * 24 * time.Hour); !rec.prunedAt[0].Equal(want) {
		t.Errorf("Prune(before) = %v, want %v", rec.prunedAt[0], want)
	}
}

func TestWriter_NoRetentionSkipsPrune(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewWriter(rec, WriterOptions{})
	w.Start(context.Background())
	w.Close()

	if len(rec.prunedAt) != 0 {
		t.Errorf("Prune called %d times, want 0", len(rec.prunedAt))
	}
}

func TestWriter_ContextCancelFlushes(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewWriter(rec, WriterOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	w.Evaluated(published(lamp.ReasonDark, lamp.Uniform(128)))
	cancel()
	w.Close()

	if got := rec.recorded(); len(got) != 1 {
		t.Errorf("recorded %d entries, want 1", len(got))
	}
}

func TestWriter_CloseWithoutStart(t *testing.T) {
	w := NewWriter(&fakeRecorder{}, WriterOptions{})
	w.Close() // must not block
}
