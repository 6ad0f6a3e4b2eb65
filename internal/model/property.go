package model

import "encoding/json"

// PropertyKind is the discriminator of a typed remote field value.
type PropertyKind string

// Property kinds understood by the extractor. Anything else is carried
// through decoding untouched and extracts to an empty string.
const (
	KindTitle          PropertyKind = "title"
	KindRichText       PropertyKind = "rich_text"
	KindNumber         PropertyKind = "number"
	KindSelect         PropertyKind = "select"
	KindMultiSelect    PropertyKind = "multi_select"
	KindCheckbox       PropertyKind = "checkbox"
	KindURL            PropertyKind = "url"
	KindEmail          PropertyKind = "email"
	KindPhoneNumber    PropertyKind = "phone_number"
	KindDate           PropertyKind = "date"
	KindStatus         PropertyKind = "status"
	KindFormula        PropertyKind = "formula"
	KindRollup         PropertyKind = "rollup"
	KindRelation       PropertyKind = "relation"
	KindCreatedTime    PropertyKind = "created_time"
	KindLastEditedTime PropertyKind = "last_edited_time"
	KindCreatedBy      PropertyKind = "created_by"
	KindLastEditedBy   PropertyKind = "last_edited_by"
)

// AllKinds returns every property kind with a dedicated extraction rule.
func AllKinds() []PropertyKind {
	return []PropertyKind{
		KindTitle, KindRichText, KindNumber, KindSelect, KindMultiSelect,
		KindCheckbox, KindURL, KindEmail, KindPhoneNumber, KindDate,
		KindStatus, KindFormula, KindRollup, KindRelation, KindCreatedTime,
		KindLastEditedTime, KindCreatedBy, KindLastEditedBy,
	}
}

// IsKnown reports whether k has a dedicated extraction rule.
func (k PropertyKind) IsKnown() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// PropertyValue is a tagged union keyed by Type. Only the payload field
// matching Type is meaningful; the JSON shape mirrors the Notion API so a
// page's "properties" object decodes into map[string]PropertyValue directly.
type PropertyValue struct {
	ID   string       `json:"id,omitempty"`
	Type PropertyKind `json:"type"`

	Title          []RichText     `json:"title,omitempty"`
	RichText       []RichText     `json:"rich_text,omitempty"`
	Number         *float64       `json:"number,omitempty"`
	Select         *SelectOption  `json:"select,omitempty"`
	Status         *SelectOption  `json:"status,omitempty"`
	MultiSelect    []SelectOption `json:"multi_select,omitempty"`
	Checkbox       bool           `json:"checkbox,omitempty"`
	URL            *string        `json:"url,omitempty"`
	Email          *string        `json:"email,omitempty"`
	PhoneNumber    *string        `json:"phone_number,omitempty"`
	Date           *DateValue     `json:"date,omitempty"`
	Formula        *FormulaValue  `json:"formula,omitempty"`
	Rollup         *RollupValue   `json:"rollup,omitempty"`
	Relation       []RelationRef  `json:"relation,omitempty"`
	CreatedTime    string         `json:"created_time,omitempty"`
	LastEditedTime string         `json:"last_edited_time,omitempty"`
	CreatedBy      *User          `json:"created_by,omitempty"`
	LastEditedBy   *User          `json:"last_edited_by,omitempty"`
}

// RichText is one fragment of a title or rich_text payload.
type RichText struct {
	PlainText string `json:"plain_text"`
	Href      string `json:"href,omitempty"`
}

// SelectOption is a select, status, or multi_select option.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is a date payload. Only Start participates in extraction.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// FormulaValue carries the computed result of a formula, discriminated by Type
// (string, number, boolean, date).
type FormulaValue struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// RollupValue carries an aggregated relation payload. Array elements are kept
// raw; they are not re-extracted.
type RollupValue struct {
	Type   string            `json:"type"`
	Number *float64          `json:"number,omitempty"`
	Date   *DateValue        `json:"date,omitempty"`
	Array  []json.RawMessage `json:"array,omitempty"`
}

// RelationRef points at a related record.
type RelationRef struct {
	ID string `json:"id"`
}

// User is the actor payload of created_by / last_edited_by.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
