package render

import (
	"strconv"
	"strings"

	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/property"
)

// Synthetic frontmatter keys appended to every rendered block. They anchor a
// local file to its remote record and are not controlled by mappings.
const (
	KeyRecordID   = "notion_id"
	KeyLastEdited = "notion_last_edited"
)

// quoteTriggers force a scalar into double quotes.
const quoteTriggers = ":#[]{}|>&*!\n"

// Frontmatter renders the metadata lines for record, one "field: value" line
// per enabled mapping in configured order, followed by the record id and
// last-edited anchors. The delimiters are not included.
func Frontmatter(record model.Record, mappings []model.PropertyMapping) string {
	lines := make([]string, 0, len(mappings)+2)

	for _, m := range mappings {
		if !m.SyncEnabled {
			continue
		}
		pv, ok := record.Properties[m.RemoteProperty]
		if !ok {
			continue
		}
		value := property.Extract(pv)
		if property.IsEmpty(value) {
			continue
		}
		lines = append(lines, m.LocalField+": "+FormatValue(value))
	}

	lines = append(lines,
		KeyRecordID+": "+record.ID,
		KeyLastEdited+": "+record.LastEditedTime,
	)
	return strings.Join(lines, "\n")
}

// FormatValue renders an extracted value as a frontmatter scalar or inline
// sequence.
func FormatValue(v any) string {
	switch val := v.(type) {
	case []string:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = quote(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case bool:
		return strconv.FormatBool(val)
	default:
		s := property.String(val)
		if strings.ContainsAny(s, quoteTriggers) {
			return quote(s)
		}
		return s
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
