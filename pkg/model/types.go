package model

import "strings"

// FieldType is the closed set of widget kinds a Config row can request.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDate     FieldType = "date"
)

var fieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeDropdown,
	FieldTypeNumber,
	FieldTypeCheckbox,
	FieldTypeDate,
}

// FieldTypes returns the supported field types in declaration order.
func FieldTypes() []FieldType {
	return append([]FieldType(nil), fieldTypes...)
}

// ParseFieldType matches a raw Type cell against the supported set. Matching is
// exact: "Text" is not "text".
func ParseFieldType(raw string) (FieldType, bool) {
	for _, candidate := range fieldTypes {
		if string(candidate) == raw {
			return candidate, true
		}
	}
	return "", false
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	_, ok := ParseFieldType(string(t))
	return ok
}

// Well-known worksheet and column names.
const (
	TableData   = "Data"
	TableConfig = "Config"

	ColumnToken    = "Token"
	ColumnClient   = "Client"
	ColumnRevision = "Revision"

	ConfigColumnTab     = "Tab"
	ConfigColumnName    = "Column Name"
	ConfigColumnLabel   = "Label"
	ConfigColumnType    = "Type"
	ConfigColumnOptions = "Options"
)

// ConfigColumns lists the Config worksheet header in canonical order.
func ConfigColumns() []string {
	return []string{
		ConfigColumnTab,
		ConfigColumnName,
		ConfigColumnLabel,
		ConfigColumnType,
		ConfigColumnOptions,
	}
}

// FieldDefinition describes one editable attribute, read from a Config row.
// Column is the join key into the Data worksheet; the binding is a naming
// convention only and is not enforced.
type FieldDefinition struct {
	Tab     string    `json:"tab"`
	Column  string    `json:"column"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
	// Position is the zero-based Config row the definition came from.
	Position int `json:"position"`
}

// SplitOptions splits a comma separated choice list and trims every entry. An
// empty cell yields a single empty option, so a dropdown always has an index 0.
func SplitOptions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
