package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/schema"
)

// Report summarises how well the Config table binds to the Data table.
type Report struct {
	Tabs    []string       `json:"tabs"`
	Fields  int            `json:"fields"`
	Records int            `json:"records"`
	Issues  []schema.Issue `json:"issues,omitempty"`
	// BlankTokens lists zero-based Data rows without a token; they can never
	// be opened.
	BlankTokens []int `json:"blank_tokens,omitempty"`
	// DuplicateTokens lists groups of zero-based Data rows sharing a token.
	DuplicateTokens [][]int `json:"duplicate_tokens,omitempty"`
}

// OK reports whether the check found nothing to fix.
func (r Report) OK() bool {
	return len(r.Issues) == 0 && len(r.BlankTokens) == 0 && len(r.DuplicateTokens) == 0
}

// Check reads both tables and reports schema issues, missing columns and
// token problems. Token values are never included.
func (p *Portal) Check(ctx context.Context) (Report, error) {
	data, err := p.gateway.ReadTable(ctx, p.dataTable)
	if err != nil {
		return Report{}, backendError("read", p.dataTable, err)
	}
	config, err := p.gateway.ReadTable(ctx, p.configTable)
	if err != nil {
		return Report{}, backendError("read", p.configTable, err)
	}

	built := schema.Build(config, p.schemaOptions...)
	report := Report{
		Tabs:    built.Tabs,
		Fields:  len(built.Fields),
		Records: data.Len(),
		Issues:  append(append([]schema.Issue(nil), built.Issues...), schema.Validate(built, data)...),
	}

	groups := make(map[string][]int)
	var order []string
	for idx := range data.Rows {
		token := model.Stringify(data.Value(idx, model.ColumnToken))
		if strings.TrimSpace(token) == "" {
			report.BlankTokens = append(report.BlankTokens, idx)
			continue
		}
		if _, seen := groups[token]; !seen {
			order = append(order, token)
		}
		groups[token] = append(groups[token], idx)
	}
	for _, token := range order {
		if rows := groups[token]; len(rows) > 1 {
			report.DuplicateTokens = append(report.DuplicateTokens, rows)
		}
	}
	return report, nil
}

// Summary renders the report as human readable lines.
func (r Report) Summary() []string {
	lines := []string{
		fmt.Sprintf("%d tabs, %d fields, %d records", len(r.Tabs), r.Fields, r.Records),
	}
	for _, issue := range r.Issues {
		lines = append(lines, issue.String())
	}
	for _, row := range r.BlankTokens {
		lines = append(lines, fmt.Sprintf("data row %d: blank token", row+1))
	}
	for _, rows := range r.DuplicateTokens {
		numbers := make([]string, len(rows))
		for idx, row := range rows {
			numbers[idx] = fmt.Sprint(row + 1)
		}
		lines = append(lines, fmt.Sprintf("data rows %s share a token", strings.Join(numbers, ", ")))
	}
	return lines
}
