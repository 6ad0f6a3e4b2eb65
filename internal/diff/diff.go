// Package diff computes a line-level comparison between two texts.
//
// The alignment is greedy: a single forward pass that prefers emitting a
// removal whenever the current new line still appears later in the old text.
// It is not a minimal edit script and can misalign around repeated lines.
package diff

import (
	"fmt"
	"slices"
	"strings"
)

// Tag classifies a line in the comparison.
type Tag string

const (
	// Unchanged is present in both texts.
	Unchanged Tag = " "

	// Added is present only in the new text.
	Added Tag = "+"

	// Removed is present only in the old text.
	Removed Tag = "-"
)

// Line is a single line of the comparison.
type Line struct {
	Tag   Tag
	Value string
}

// String returns the line prefixed with its tag marker.
func (l Line) String() string {
	return string(l.Tag) + l.Value
}

// Lines compares oldText against newText line by line.
func Lines(oldText, newText string) []Line {
	a, b := split(oldText), split(newText)
	out := make([]Line, 0, max(len(a), len(b)))

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, Line{Tag: Unchanged, Value: a[i]})
			i++
			j++
		case !slices.Contains(a[i:], b[j]):
			out = append(out, Line{Tag: Added, Value: b[j]})
			j++
		default:
			out = append(out, Line{Tag: Removed, Value: a[i]})
			i++
		}
	}

	for ; i < len(a); i++ {
		out = append(out, Line{Tag: Removed, Value: a[i]})
	}
	for ; j < len(b); j++ {
		out = append(out, Line{Tag: Added, Value: b[j]})
	}

	return out
}

// split treats the empty text as having no lines.
func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Stats counts added and removed lines.
func Stats(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Tag {
		case Added:
			added++
		case Removed:
			removed++
		}
	}
	return added, removed
}

// Changed reports whether any line was added or removed.
func Changed(lines []Line) bool {
	added, removed := Stats(lines)
	return added+removed > 0
}

// Summary returns a short "+n/-m lines" description.
func Summary(lines []Line) string {
	added, removed := Stats(lines)
	return fmt.Sprintf("+%d/-%d lines", added, removed)
}

// Format renders lines one per row with their tag markers.
func Format(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
