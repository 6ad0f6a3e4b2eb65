// Package render derives local file names and frontmatter blocks from remote
// records.
package render

import (
	"path"
	"strings"
	"unicode"

	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/property"
)

// DefaultExtension is appended to every derived filename.
const DefaultExtension = ".md"

// illegalChars are replaced with '_' when deriving a filename.
const illegalChars = `<>:"/\|?*`

// Filename derives the file-safe base name (no extension) for record. When a
// mapping exists for filenameProperty its value is used, otherwise the record
// title.
func Filename(record model.Record, mappings []model.PropertyMapping, filenameProperty string) string {
	raw := record.Title
	if filenameProperty != "" {
		if _, ok := model.FindMapping(mappings, filenameProperty); ok {
			raw = property.String(property.Extract(record.Properties[filenameProperty]))
		}
	}
	return Sanitize(raw)
}

// Sanitize replaces every character in <>:"/\|?* with '_' and trims
// surrounding whitespace. A name with no usable character left becomes
// model.UntitledTitle.
func Sanitize(name string) string {
	usable := false
	replaced := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalChars, r) {
			return '_'
		}
		if !unicode.IsSpace(r) {
			usable = true
		}
		return r
	}, name)

	replaced = strings.TrimSpace(replaced)
	if replaced == "" || !usable {
		return model.UntitledTitle
	}
	return replaced
}

// TargetPath joins folder, name and extension into a vault-relative,
// '/'-separated path.
func TargetPath(folder, name, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	folder = strings.Trim(strings.ReplaceAll(folder, `\`, "/"), "/")
	if folder == "" {
		return name + ext
	}
	return path.Join(folder, name+ext)
}
