package render

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a local file split into its frontmatter and body.
type Document struct {
	// Frontmatter holds the raw text between the --- delimiters.
	Frontmatter string
	// Body is everything after the closing delimiter.
	Body string
	// HasFrontmatter is false when no complete delimiter pair was found.
	HasFrontmatter bool
}

// Split extracts a leading ----delimited frontmatter block from content.
// Windows line endings are accepted.
func Split(content string) Document {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return Document{Body: content}
	}

	rest := normalized[len("---\n"):]
	var fm, body string
	switch {
	case strings.HasPrefix(rest, "---"):
		// Empty block: ---\n---
		body = rest[len("---"):]
	default:
		idx := strings.Index(rest, "\n---")
		if idx == -1 {
			return Document{Body: content}
		}
		fm = rest[:idx]
		body = rest[idx+len("\n---"):]
	}

	body = strings.TrimPrefix(body, "\n")
	return Document{Frontmatter: fm, Body: body, HasFrontmatter: true}
}

// Fields parses the frontmatter as YAML.
func (d Document) Fields() (map[string]any, error) {
	fields := make(map[string]any)
	if strings.TrimSpace(d.Frontmatter) == "" {
		return fields, nil
	}
	if err := yaml.Unmarshal([]byte(d.Frontmatter), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fields, nil
}

// RecordID returns the record id anchor stored in content's frontmatter, or
// "" when the file has none or it cannot be parsed.
func RecordID(content string) string {
	return Anchor(content, KeyRecordID)
}

// LastEdited returns the last-edited anchor stored in content's frontmatter.
func LastEdited(content string) string {
	return Anchor(content, KeyLastEdited)
}

// Anchor returns the scalar text of key in content's frontmatter, or "".
func Anchor(content, key string) string {
	doc := Split(content)
	if !doc.HasFrontmatter {
		return ""
	}
	// Decode into nodes so an id that looks numeric keeps its exact text.
	var fields map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(doc.Frontmatter), &fields); err != nil {
		return ""
	}
	node, ok := fields[key]
	if !ok || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}
