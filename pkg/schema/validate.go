package schema

import (
	"fmt"

	"github.com/goliatone/go-formportal/pkg/model"
)

// Validate checks the schema-to-data bindings. Fields whose column is missing
// from the Data header still render (blank) and are added to the header on the
// first save; the issues exist so operators can fix the sheet.
func Validate(s Schema, data model.Table) []Issue {
	var issues []Issue
	for _, identity := range []string{model.ColumnToken, model.ColumnClient} {
		if !data.HasColumn(identity) {
			issues = append(issues, Issue{
				Kind:     IssueMissingIdentity,
				Position: -1,
				Column:   identity,
				Message:  fmt.Sprintf("%s worksheet has no %q column", data.Name, identity),
			})
		}
	}
	for _, field := range s.Fields {
		if data.HasColumn(field.Column) {
			continue
		}
		issues = append(issues, Issue{
			Kind:     IssueMissingColumn,
			Position: field.Position,
			Column:   field.Column,
			Message:  fmt.Sprintf("%s worksheet has no %q column; the field renders blank", data.Name, field.Column),
		})
	}
	return issues
}
