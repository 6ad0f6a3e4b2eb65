// Package template renders the local file body for a remote record.
//
// Templates use literal {{name}} tokens rather than an expression language.
// Three placeholders are built in: {{frontmatter}}, {{title}} and
// {{content}}. Each is replaced at its first occurrence only. Every mapping
// that is both sync-enabled and template-eligible also contributes a
// {{localField}} placeholder, replaced at every occurrence.
package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/property"
	"github.com/klauern/notionsync/internal/render"
)

// Built-in placeholders.
const (
	FrontmatterPlaceholder = "{{frontmatter}}"
	TitlePlaceholder       = "{{title}}"
	ContentPlaceholder     = "{{content}}"
)

// Name identifies a built-in template.
type Name string

// Built-in template names.
const (
	Default         Name = "default"
	Minimal         Name = "minimal"
	FrontmatterOnly Name = "frontmatter-only"
)

var builtins = map[Name]string{
	Default:         defaultTemplate,
	Minimal:         minimalTemplate,
	FrontmatterOnly: frontmatterOnlyTemplate,
}

// ErrUnknownTemplate is returned for a built-in name that does not exist.
var ErrUnknownTemplate = errors.New("unknown template")

// Render produces the file content for record from tmpl.
func Render(record model.Record, tmpl string, mappings []model.PropertyMapping) string {
	out := strings.Replace(tmpl, FrontmatterPlaceholder, render.Frontmatter(record, mappings), 1)
	out = strings.Replace(out, TitlePlaceholder, record.Title, 1)
	// {{content}} belongs to the user; a fresh render always leaves it empty.
	out = strings.Replace(out, ContentPlaceholder, "", 1)

	for _, m := range mappings {
		if !m.TemplateEligible || !m.SyncEnabled {
			continue
		}
		var value string
		if pv, ok := record.Properties[m.RemoteProperty]; ok {
			value = property.String(property.Extract(pv))
		}
		out = strings.ReplaceAll(out, m.Placeholder(), value)
	}

	return out
}

// Builtin returns the text of a built-in template.
func Builtin(name Name) (string, error) {
	tmpl, ok := builtins[Name(strings.ToLower(strings.TrimSpace(string(name))))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return tmpl, nil
}

// ListBuiltins returns the built-in template names in sorted order.
func ListBuiltins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Reader reads a vault-relative file.
type Reader interface {
	Read(path string) (string, error)
}

// Source describes where a template comes from. The first non-empty field
// wins, in the order Path, Inline, Name.
type Source struct {
	Path   string
	Inline string
	Name   Name
}

// Resolve returns the template text described by src. An external file is
// read through r; an empty source yields the default template.
func Resolve(r Reader, src Source) (string, error) {
	switch {
	case src.Path != "":
		if r == nil {
			return "", fmt.Errorf("cannot read template %s: no storage", src.Path)
		}
		text, err := r.Read(src.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		logging.Debug("loaded template file", logging.Path(src.Path))
		return text, nil
	case src.Inline != "":
		return src.Inline, nil
	case src.Name != "":
		return Builtin(src.Name)
	default:
		return defaultTemplate, nil
	}
}
