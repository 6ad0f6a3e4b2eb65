// Package rules decides which remote records are eligible for sync.
package rules

import (
	"log/slog"
	"strings"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/property"
)

// Evaluate reports whether props satisfy every rule. An empty rule set
// includes every record.
func Evaluate(rules []model.SyncRule, props map[string]model.PropertyValue) bool {
	for _, rule := range rules {
		if !Match(rule, props) {
			return false
		}
	}
	return true
}

// Match evaluates a single rule. A property missing from the record fails
// the rule before its value is looked at, whatever the condition.
func Match(rule model.SyncRule, props map[string]model.PropertyValue) bool {
	pv, ok := props[rule.Property]
	if !ok {
		logging.Debug("rule property missing on record",
			slog.String("rule", rule.String()),
		)
		return false
	}

	value := property.Extract(pv)

	switch rule.Condition {
	case model.ConditionEquals:
		return strings.EqualFold(property.String(value), rule.Value)
	case model.ConditionNotEmpty:
		return !property.IsEmpty(value)
	case model.ConditionIsTrue:
		return isTrue(value)
	case model.ConditionIsFalse:
		return isFalse(value)
	default:
		// Unknown conditions are permissive.
		return true
	}
}

func isTrue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "yes"
	default:
		return false
	}
}

func isFalse(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case string:
		return val == "false" || val == "no"
	default:
		return false
	}
}
