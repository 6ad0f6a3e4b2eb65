// Package tui provides interactive terminal UI components using BubbleTea:
// the file selection list shown before a sync writes anything and a diff
// viewer for reviewing changes.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts a BubbleTea program with the given model.
func Run(model tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	p := tea.NewProgram(model, opts...)
	return p.Run()
}
