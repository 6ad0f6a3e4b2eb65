package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/sync"
)

// Tracker renders orchestrator progress events as progress bars: a spinner
// while pages are fetched and a counted bar while notes are written.
type Tracker struct {
	writer io.Writer
	bar    *Bar
	stage  sync.Stage
}

// NewTracker returns a Tracker drawing to w (os.Stderr when nil).
func NewTracker(w io.Writer) *Tracker {
	if w == nil {
		w = os.Stderr
	}
	return &Tracker{writer: w}
}

// Callback adapts the tracker to sync.Options.Progress.
func (t *Tracker) Callback() sync.ProgressCallback {
	return func(event sync.ProgressEvent) error {
		t.Handle(event)
		return nil
	}
}

// Handle applies one event.
func (t *Tracker) Handle(event sync.ProgressEvent) {
	switch event.Type {
	case sync.ProgressEventStage:
		t.enter(event.Stage)
	case sync.ProgressEventPage:
		if t.bar == nil {
			t.start(0, "Fetching records")
		}
		t.bar.Describe(fmt.Sprintf("Fetching records (page %d)", event.Current))
		_ = t.bar.Set(event.Total)
	case sync.ProgressEventItem:
		if t.bar == nil {
			t.start(int64(event.Total), "Writing notes")
		}
		_ = t.bar.Set(event.Current)
	case sync.ProgressEventError:
		t.Finish()
		logging.Debug("progress stopped", logging.Err(event.Err))
	}
}

// Stage returns the last stage reported.
func (t *Tracker) Stage() sync.Stage {
	return t.stage
}

// Bar returns the active bar, or nil between stages.
func (t *Tracker) Bar() *Bar {
	return t.bar
}

// Finish completes the active bar, if any.
func (t *Tracker) Finish() {
	if t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	t.bar = nil
}

func (t *Tracker) enter(stage sync.Stage) {
	t.stage = stage
	t.Finish()
	// The executing bar starts with the first item event, which carries the
	// item count.
	if stage == sync.StageFetching {
		t.start(0, "Fetching records")
	}
}

func (t *Tracker) start(total int64, desc string) {
	t.bar = New(Options{
		Max:         total,
		Description: desc,
		Writer:      t.writer,
		ShowElapsed: true,
		ShowCount:   true,
	})
}
