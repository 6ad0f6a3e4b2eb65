package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauern/notionsync/internal/sync"
	"github.com/klauern/notionsync/internal/ui"
)

func TestBarDisabledTracksValue(t *testing.T) {
	ui.DisableColors()
	defer ui.EnableColors()

	var buf bytes.Buffer
	bar := New(Options{Max: 10, Description: "Writing", Writer: &buf})

	if bar.Enabled() {
		t.Fatal("bar should be disabled without colors")
	}
	if err := bar.Add(3); err != nil {
		t.Fatal(err)
	}
	if err := bar.Add64(2); err != nil {
		t.Fatal(err)
	}
	if bar.Value() != 5 {
		t.Errorf("Value() = %d, want 5", bar.Value())
	}
	if err := bar.Set(9); err != nil {
		t.Fatal(err)
	}
	if bar.Value() != 9 {
		t.Errorf("Value() = %d, want 9", bar.Value())
	}

	bar.Describe("Done")
	if bar.Description() != "Done" {
		t.Errorf("Description() = %q", bar.Description())
	}
	if err := bar.Finish(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}

func TestBarUnknownSize(t *testing.T) {
	ui.DisableColors()
	defer ui.EnableColors()

	tests := map[string]struct {
		max  int64
		want int64
	}{
		"zero":     {max: 0, want: -1},
		"negative": {max: -5, want: -1},
		"sized":    {max: 7, want: 7},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			bar := New(Options{Max: tt.max, Writer: &bytes.Buffer{}})
			if bar.Max() != tt.want {
				t.Errorf("Max() = %d, want %d", bar.Max(), tt.want)
			}
		})
	}
}

func TestTracker(t *testing.T) {
	ui.DisableColors()
	defer ui.EnableColors()

	tracker := NewTracker(&bytes.Buffer{})
	callback := tracker.Callback()

	steps := []struct {
		event     sync.ProgressEvent
		wantStage sync.Stage
		wantBar   bool
		wantMax   int64
		wantValue int64
	}{
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventStage, Stage: sync.StageFetching},
			wantStage: sync.StageFetching, wantBar: true, wantMax: -1,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventPage, Current: 1, Total: 100},
			wantStage: sync.StageFetching, wantBar: true, wantMax: -1, wantValue: 100,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventPage, Current: 2, Total: 130},
			wantStage: sync.StageFetching, wantBar: true, wantMax: -1, wantValue: 130,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventStage, Stage: sync.StageRuleFiltering},
			wantStage: sync.StageRuleFiltering,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventStage, Stage: sync.StageExecuting},
			wantStage: sync.StageExecuting,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventItem, Current: 1, Total: 3, Filename: "a.md"},
			wantStage: sync.StageExecuting, wantBar: true, wantMax: 3, wantValue: 1,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventItem, Current: 2, Total: 3, Filename: "b.md"},
			wantStage: sync.StageExecuting, wantBar: true, wantMax: 3, wantValue: 2,
		},
		{
			event:     sync.ProgressEvent{Type: sync.ProgressEventError, Stage: sync.StageFailed, Err: errors.New("disk full")},
			wantStage: sync.StageExecuting,
		},
	}

	for i, step := range steps {
		if err := callback(step.event); err != nil {
			t.Fatalf("step %d: callback error = %v", i, err)
		}
		if tracker.Stage() != step.wantStage {
			t.Errorf("step %d: Stage() = %v, want %v", i, tracker.Stage(), step.wantStage)
		}
		bar := tracker.Bar()
		if (bar != nil) != step.wantBar {
			t.Fatalf("step %d: bar present = %v, want %v", i, bar != nil, step.wantBar)
		}
		if bar == nil {
			continue
		}
		if bar.Max() != step.wantMax || bar.Value() != step.wantValue {
			t.Errorf("step %d: bar = %d/%d, want %d/%d", i, bar.Value(), bar.Max(), step.wantValue, step.wantMax)
		}
	}
}
