package model

// UntitledTitle is used wherever a record has no usable title.
const UntitledTitle = "Untitled"

// Record is an immutable snapshot of one remote database row, fetched per
// sync run.
type Record struct {
	ID             string                   `json:"id"`
	LastEditedTime string                   `json:"last_edited_time"`
	Properties     map[string]PropertyValue `json:"properties"`

	// Title is derived from the record's title property at decode time and
	// is never empty.
	Title string `json:"-"`
}

// Property returns the named property and whether the record carries it.
func (r Record) Property(name string) (PropertyValue, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// RecordPage is one page of a cursor-paginated database query.
type RecordPage struct {
	Records []Record
	// NextCursor is empty when there are no more pages.
	NextCursor string
}

// HasMore reports whether another page can be requested.
func (p RecordPage) HasMore() bool {
	return p.NextCursor != ""
}
