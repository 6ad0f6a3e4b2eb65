package sync

// Stage is a step of a sync run.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageFetching          Stage = "fetching"
	StageRuleFiltering     Stage = "rule_filtering"
	StageAwaitingSelection Stage = "awaiting_selection"
	StageExecuting         Stage = "executing"
	StageReported          Stage = "reported"
	StageFailed            Stage = "failed"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Terminal reports whether no further transition follows s.
func (s Stage) Terminal() bool {
	return s == StageReported || s == StageFailed
}
