package sync

// Strategy sets the default overwrite decision for files that already exist.
type Strategy string

const (
	// StrategyOverwrite replaces existing files with freshly rendered content.
	StrategyOverwrite Strategy = "overwrite"

	// StrategySkip leaves existing files untouched.
	StrategySkip Strategy = "skip"
)

// IsValid returns true if the strategy is recognized.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyOverwrite, StrategySkip:
		return true
	default:
		return false
	}
}

// AllStrategies returns all supported strategies.
func AllStrategies() []Strategy {
	return []Strategy{StrategyOverwrite, StrategySkip}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// Overwrite reports the default Overwrite flag the strategy gives a
// candidate. An empty strategy behaves like StrategyOverwrite.
func (s Strategy) Overwrite() bool {
	return s != StrategySkip
}

// Description returns a human-readable description of the strategy.
func (s Strategy) Description() string {
	switch s {
	case StrategyOverwrite:
		return "Replace existing files with the remote version"
	case StrategySkip:
		return "Leave existing files untouched"
	default:
		return "Unknown strategy"
	}
}
