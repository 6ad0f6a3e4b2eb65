package model

// PropertyMapping connects a remote property to a local frontmatter field.
type PropertyMapping struct {
	RemoteProperty   string       `yaml:"remote_property" toml:"remote_property" json:"remote_property"`
	RemoteKind       PropertyKind `yaml:"remote_kind" toml:"remote_kind" json:"remote_kind"`
	LocalField       string       `yaml:"local_field" toml:"local_field" json:"local_field"`
	SyncEnabled      bool         `yaml:"sync_enabled" toml:"sync_enabled" json:"sync_enabled"`
	TemplateEligible bool         `yaml:"template_eligible" toml:"template_eligible" json:"template_eligible"`
}

// Placeholder returns the template token substituted with this mapping's value.
func (m PropertyMapping) Placeholder() string {
	return "{{" + m.LocalField + "}}"
}

// FindMapping returns the last mapping whose RemoteProperty equals name.
// Last-wins matches how duplicate keys collapse during a mapping rebuild.
func FindMapping(mappings []PropertyMapping, name string) (PropertyMapping, bool) {
	var (
		found PropertyMapping
		ok    bool
	)
	for _, m := range mappings {
		if m.RemoteProperty == name {
			found, ok = m, true
		}
	}
	return found, ok
}
