// Package property normalizes typed remote field values into plain Go values
// suitable for textual rendering.
//
// Extraction is total: malformed or unknown payloads degrade to an empty
// value instead of failing, because filename derivation, rule evaluation and
// rendering all depend on it.
//
// Extract returns one of:
//   - nil (a number property without a value)
//   - string
//   - float64
//   - bool
//   - []string (multi_select names, relation ids, raw rollup elements)
package property

import (
	"sort"
	"strconv"
	"strings"

	"github.com/klauern/notionsync/internal/model"
)

// Extract returns the plain value carried by v.
func Extract(v model.PropertyValue) any {
	switch v.Type {
	case model.KindTitle:
		return joinText(v.Title)
	case model.KindRichText:
		return joinText(v.RichText)
	case model.KindNumber:
		if v.Number == nil {
			return nil
		}
		return *v.Number
	case model.KindSelect:
		return optionName(v.Select)
	case model.KindStatus:
		return optionName(v.Status)
	case model.KindMultiSelect:
		names := make([]string, 0, len(v.MultiSelect))
		for _, opt := range v.MultiSelect {
			names = append(names, opt.Name)
		}
		return names
	case model.KindCheckbox:
		return v.Checkbox
	case model.KindURL:
		return deref(v.URL)
	case model.KindEmail:
		return deref(v.Email)
	case model.KindPhoneNumber:
		return deref(v.PhoneNumber)
	case model.KindDate:
		if v.Date == nil {
			return ""
		}
		return v.Date.Start
	case model.KindFormula:
		return extractFormula(v.Formula)
	case model.KindRollup:
		return rollupArray(v.Rollup)
	case model.KindRelation:
		ids := make([]string, 0, len(v.Relation))
		for _, ref := range v.Relation {
			ids = append(ids, ref.ID)
		}
		return ids
	case model.KindCreatedTime:
		return v.CreatedTime
	case model.KindLastEditedTime:
		return v.LastEditedTime
	case model.KindCreatedBy:
		return userName(v.CreatedBy)
	case model.KindLastEditedBy:
		return userName(v.LastEditedBy)
	default:
		return ""
	}
}

// extractFormula unwraps one level using the formula's declared result type.
func extractFormula(f *model.FormulaValue) any {
	if f == nil {
		return ""
	}
	switch f.Type {
	case "string":
		return deref(f.String)
	case "boolean":
		if f.Boolean == nil {
			return ""
		}
		return *f.Boolean
	case string(model.KindNumber):
		return Extract(model.PropertyValue{Type: model.KindNumber, Number: f.Number})
	case string(model.KindDate):
		return Extract(model.PropertyValue{Type: model.KindDate, Date: f.Date})
	default:
		return ""
	}
}

func rollupArray(r *model.RollupValue) []string {
	if r == nil {
		return []string{}
	}
	out := make([]string, 0, len(r.Array))
	for _, raw := range r.Array {
		out = append(out, string(raw))
	}
	return out
}

func joinText(fragments []model.RichText) string {
	var sb strings.Builder
	for _, f := range fragments {
		sb.WriteString(f.PlainText)
	}
	return sb.String()
}

func optionName(opt *model.SelectOption) string {
	if opt == nil {
		return ""
	}
	return opt.Name
}

func userName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsEmpty reports whether an extracted value is null or the empty string.
// Empty lists and false are not empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// String coerces an extracted value to text. Lists are comma-joined, numbers
// use the shortest decimal form, and nil becomes the empty string.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, ",")
	default:
		return ""
	}
}

// Title derives a record title from its title-kind property, falling back to
// model.UntitledTitle when there is none or it is empty.
func Title(props map[string]model.PropertyValue) string {
	names := make([]string, 0, len(props))
	for name, v := range props {
		if v.Type == model.KindTitle {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return model.UntitledTitle
	}
	sort.Strings(names)
	if title := String(Extract(props[names[0]])); title != "" {
		return title
	}
	return model.UntitledTitle
}
