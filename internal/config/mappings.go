package config

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/klauern/notionsync/internal/model"
)

var lower = cases.Lower(language.Und)

// FieldName derives the default frontmatter key for a remote property name:
// lower-cased, with runs of whitespace collapsed to '_'.
func FieldName(property string) string {
	return strings.Join(strings.FieldsFunc(lower.String(property), unicode.IsSpace), "_")
}

// RebuildMappings reconciles existing mappings with schema. Properties that
// are still present keep their mapping and position, using the last entry
// when one property is mapped more than once. New properties are appended in
// name order with a default field name and syncing enabled. Mappings for
// properties the schema no longer has are dropped.
func RebuildMappings(schema *model.Schema, existing []model.PropertyMapping) []model.PropertyMapping {
	rebuilt := make([]model.PropertyMapping, 0, len(schema.Properties))
	seen := make(map[string]bool, len(schema.Properties))

	for _, m := range existing {
		prop, ok := schema.Properties[m.RemoteProperty]
		if !ok || seen[m.RemoteProperty] {
			continue
		}
		seen[m.RemoteProperty] = true

		latest, _ := model.FindMapping(existing, m.RemoteProperty)
		latest.RemoteKind = prop.Type
		rebuilt = append(rebuilt, latest)
	}

	for _, name := range schema.PropertyNames() {
		if seen[name] {
			continue
		}
		rebuilt = append(rebuilt, model.PropertyMapping{
			RemoteProperty: name,
			RemoteKind:     schema.Properties[name].Type,
			LocalField:     FieldName(name),
			SyncEnabled:    true,
		})
	}

	return rebuilt
}
