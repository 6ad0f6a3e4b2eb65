package sync

import (
	"fmt"
	"strings"

	"github.com/klauern/notionsync/internal/diff"
)

// Action represents what happened, or would happen, to a candidate file.
type Action string

const (
	// ActionCreated indicates a new file was written.
	ActionCreated Action = "created"

	// ActionUpdated indicates an existing file was overwritten. Identical
	// content still counts as updated.
	ActionUpdated Action = "updated"

	// ActionUnchanged indicates an existing file was left alone because the
	// item did not allow overwriting.
	ActionUnchanged Action = "unchanged"
)

// Update records an overwritten file.
type Update struct {
	Filename   string
	Path       string
	OldContent string
	NewContent string
}

// Changed reports whether the overwrite altered the file content.
func (u Update) Changed() bool {
	return u.OldContent != u.NewContent
}

// Diff returns the line comparison of the old and new content.
func (u Update) Diff() []diff.Line {
	return diff.Lines(u.OldContent, u.NewContent)
}

// Result contains the outcome of an executed plan.
type Result struct {
	// Created holds the filenames, without extension, of new files.
	Created []string

	// Updated holds every overwritten file with its before/after content.
	Updated []Update

	// UnchangedCount counts approved items whose file existed and whose
	// Overwrite flag was false.
	UnchangedCount int

	// SkippedCount counts records rejected by the rules plus candidates the
	// caller did not approve.
	SkippedCount int

	// Warnings collects non-fatal notices raised while executing.
	Warnings []string
}

// TotalChanged returns the number of files created or whose content changed.
func (r *Result) TotalChanged() int {
	n := len(r.Created)
	for _, u := range r.Updated {
		if u.Changed() {
			n++
		}
	}
	return n
}

// Applied returns the number of writes performed.
func (r *Result) Applied() int {
	return len(r.Created) + len(r.Updated)
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  Created:   %d\n", len(r.Created)))
	sb.WriteString(fmt.Sprintf("  Updated:   %d\n", len(r.Updated)))
	sb.WriteString(fmt.Sprintf("  Unchanged: %d\n", r.UnchangedCount))
	sb.WriteString(fmt.Sprintf("  Skipped:   %d\n", r.SkippedCount))

	if len(r.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}

	return sb.String()
}

// ExecutionError reports the item that stopped an executing plan. Applied
// writes made before it are not rolled back.
type ExecutionError struct {
	Filename string
	Path     string
	Applied  int
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to sync %s (%s) after %d applied write(s): %v",
		e.Filename, e.Path, e.Applied, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
