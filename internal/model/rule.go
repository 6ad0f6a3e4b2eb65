package model

import "fmt"

// Condition is the predicate a SyncRule applies to one property.
type Condition string

const (
	// ConditionEquals matches a case-insensitive string comparison.
	ConditionEquals Condition = "equals"

	// ConditionNotEmpty matches any value other than null or "".
	ConditionNotEmpty Condition = "notEmpty"

	// ConditionIsTrue matches true, "true", or "yes".
	ConditionIsTrue Condition = "isTrue"

	// ConditionIsFalse matches false, "false", or "no".
	ConditionIsFalse Condition = "isFalse"
)

// IsValid returns true if the condition is recognized.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionEquals, ConditionNotEmpty, ConditionIsTrue, ConditionIsFalse:
		return true
	default:
		return false
	}
}

// AllConditions returns all supported conditions.
func AllConditions() []Condition {
	return []Condition{ConditionEquals, ConditionNotEmpty, ConditionIsTrue, ConditionIsFalse}
}

// SyncRule is a predicate over one record property. A record is synced only
// when it satisfies every configured rule.
type SyncRule struct {
	Property  string    `yaml:"property" toml:"property" json:"property"`
	Condition Condition `yaml:"condition" toml:"condition" json:"condition"`
	Value     string    `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`
}

// String returns a human-readable form such as `Status equals "done"`.
func (r SyncRule) String() string {
	if r.Condition == ConditionEquals {
		return fmt.Sprintf("%s %s %q", r.Property, r.Condition, r.Value)
	}
	return fmt.Sprintf("%s %s", r.Property, r.Condition)
}
