package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formportal/pkg/model"
)

// IssueKind classifies problems found while interpreting the Config worksheet.
type IssueKind string

const (
	IssueUnknownType     IssueKind = "unknown_type"
	IssueMissingName     IssueKind = "missing_column_name"
	IssueMissingTab      IssueKind = "missing_tab"
	IssueDuplicateColumn IssueKind = "duplicate_column"
	IssueMissingColumn   IssueKind = "missing_data_column"
	IssueMissingIdentity IssueKind = "missing_identity_column"
)

// Issue is a non-fatal schema problem. Rows with issues of the first three kinds
// are not rendered; the rest only degrade pre-population.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Position int       `json:"position"`
	Column   string    `json:"column,omitempty"`
	Message  string    `json:"message"`
}

func (i Issue) String() string {
	if i.Position < 0 {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("config row %d: %s: %s", i.Position+1, i.Kind, i.Message)
}

// Schema is the interpreted Config worksheet: renderable field definitions in
// row order plus the navigation tabs in first-seen order.
type Schema struct {
	Fields []model.FieldDefinition `json:"fields"`
	Tabs   []string                `json:"tabs"`
	Issues []Issue                 `json:"issues,omitempty"`
}

// Option customises Build.
type Option func(*builder)

// WithLabeler overrides how a blank Label cell is filled. Defaults to the
// column name.
func WithLabeler(labeler func(column string) string) Option {
	return func(b *builder) {
		if labeler != nil {
			b.labeler = labeler
		}
	}
}

type builder struct {
	labeler func(string) string
}

// Build interprets the Config table. It never fails: malformed rows are skipped
// and reported through Schema.Issues.
func Build(config model.Table, options ...Option) Schema {
	b := builder{labeler: func(column string) string { return column }}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&b)
	}

	out := Schema{
		Tabs: config.Distinct(model.ConfigColumnTab),
	}
	seen := make(map[string]int)

	for idx, row := range config.Rows {
		tab := model.Stringify(row[model.ConfigColumnTab])
		column := model.Stringify(row[model.ConfigColumnName])
		rawType := model.Stringify(row[model.ConfigColumnType])

		if tab == "" {
			out.Issues = append(out.Issues, Issue{
				Kind:     IssueMissingTab,
				Position: idx,
				Column:   column,
				Message:  "row has no Tab and is never shown",
			})
			continue
		}
		if strings.TrimSpace(column) == "" {
			out.Issues = append(out.Issues, Issue{
				Kind:     IssueMissingName,
				Position: idx,
				Message:  "row has no Column Name",
			})
			continue
		}
		fieldType, ok := model.ParseFieldType(rawType)
		if !ok {
			out.Issues = append(out.Issues, Issue{
				Kind:     IssueUnknownType,
				Position: idx,
				Column:   column,
				Message:  fmt.Sprintf("type %q is not one of %s", rawType, typeList()),
			})
			continue
		}

		key := tab + "\x00" + column
		if first, dup := seen[key]; dup {
			out.Issues = append(out.Issues, Issue{
				Kind:     IssueDuplicateColumn,
				Position: idx,
				Column:   column,
				Message:  fmt.Sprintf("column already bound on tab %q by row %d; the later widget wins on save", tab, first+1),
			})
		} else {
			seen[key] = idx
		}

		label := model.Stringify(row[model.ConfigColumnLabel])
		if strings.TrimSpace(label) == "" {
			label = b.labeler(column)
		}

		field := model.FieldDefinition{
			Tab:      tab,
			Column:   column,
			Label:    label,
			Type:     fieldType,
			Position: idx,
		}
		if fieldType == model.FieldTypeDropdown {
			field.Options = model.SplitOptions(model.Stringify(row[model.ConfigColumnOptions]))
		}
		out.Fields = append(out.Fields, field)
	}

	return out
}

// HasTab reports whether tab is one of the navigation tabs.
func (s Schema) HasTab(tab string) bool {
	for _, candidate := range s.Tabs {
		if candidate == tab {
			return true
		}
	}
	return false
}

// ResolveTab returns the requested tab when it exists, otherwise the first tab.
// The boolean is false only when the schema has no tabs at all.
func (s Schema) ResolveTab(requested string) (string, bool) {
	if len(s.Tabs) == 0 {
		return "", false
	}
	if s.HasTab(requested) {
		return requested, true
	}
	return s.Tabs[0], true
}

// FieldsForTab returns the renderable fields of tab in Config row order.
func (s Schema) FieldsForTab(tab string) []model.FieldDefinition {
	var out []model.FieldDefinition
	for _, field := range s.Fields {
		if field.Tab == tab {
			out = append(out, field)
		}
	}
	return out
}

func typeList() string {
	types := model.FieldTypes()
	names := make([]string, len(types))
	for idx, ft := range types {
		names[idx] = string(ft)
	}
	return strings.Join(names, ", ")
}
