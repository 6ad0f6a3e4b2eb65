package template

// defaultTemplate places the metadata block first, then a heading and an
// empty body reserved for local edits.
const defaultTemplate = `---
{{frontmatter}}
---

# {{title}}

{{content}}`

// minimalTemplate omits the heading.
const minimalTemplate = `---
{{frontmatter}}
---

{{content}}`

// frontmatterOnlyTemplate writes nothing but the metadata block.
const frontmatterOnlyTemplate = `---
{{frontmatter}}
---
`
