package model

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Row maps a column name to a scalar cell value (nil, string, float64, int64 or
// bool). Missing keys read as absent.
type Row map[string]any

// Table is one worksheet: an ordered header plus rows in worksheet order. Row
// indexes are stable for the lifetime of a loaded table and are used as the
// write-back address.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable builds a table, appending any column found in rows but missing from
// the header so writes never drop data.
func NewTable(name string, columns []string, rows ...Row) Table {
	table := Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([]Row, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, cloneRow(row))
	}
	for _, row := range table.Rows {
		for _, column := range sortedKeys(row) {
			table.EnsureColumn(column)
		}
	}
	return table
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the header contains name.
func (t Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends name to the header when missing.
func (t *Table) EnsureColumn(name string) {
	if name == "" || t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
}

// Value returns the cell at (idx, column), nil when the row or the cell is
// missing.
func (t Table) Value(idx int, column string) any {
	if idx < 0 || idx >= len(t.Rows) {
		return nil
	}
	return t.Rows[idx][column]
}

// Set overwrites one cell in place. Unknown columns are added to the header;
// other rows keep reading them as absent.
func (t *Table) Set(idx int, column string, value any) error {
	if idx < 0 || idx >= len(t.Rows) {
		return fmt.Errorf("model: row %d out of range for table %q (%d rows)", idx, t.Name, len(t.Rows))
	}
	if strings.TrimSpace(column) == "" {
		return fmt.Errorf("model: column name is required")
	}
	if t.Rows[idx] == nil {
		t.Rows[idx] = make(Row)
	}
	t.EnsureColumn(column)
	t.Rows[idx][column] = value
	return nil
}

// FindAll returns the indexes of rows whose stringified column equals value
// exactly, in table order.
func (t Table) FindAll(column, value string) []int {
	var out []int
	for idx, row := range t.Rows {
		cell, ok := row[column]
		if !ok || cell == nil {
			continue
		}
		if Stringify(cell) == value {
			out = append(out, idx)
		}
	}
	return out
}

// Distinct returns the non-absent stringified values of column in first-seen
// order.
func (t Table) Distinct(column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range t.Rows {
		cell := row[column]
		if IsAbsent(cell) {
			continue
		}
		value := Stringify(cell)
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// Clone returns a deep copy safe to mutate independently.
func (t Table) Clone() Table {
	out := Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for idx, row := range t.Rows {
		out.Rows[idx] = cloneRow(row)
	}
	return out
}

// IsAbsent reports whether a cell carries no value: nil, the empty string, or
// a NaN float.
func IsAbsent(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// Stringify renders a cell the way it is shown in text widgets and compared
// against tokens and dropdown options. Absent values render as "".
func Stringify(value any) string {
	if IsAbsent(value) {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(v float64) string {
	if math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func cloneRow(row Row) Row {
	if row == nil {
		return make(Row)
	}
	out := make(Row, len(row))
	for key, value := range row {
		out[key] = value
	}
	return out
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
