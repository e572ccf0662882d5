package memory

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formportal/pkg/model"
)

// fixture is the YAML layout accepted by Load:
//
//	tables:
//	  Data:
//	    columns: [Token, Client, Revenue]
//	    rows:
//	      - {Token: abc, Client: Acme, Revenue: 12}
type fixture struct {
	Tables map[string]fixtureTable `yaml:"tables"`
}

type fixtureTable struct {
	Columns []string         `yaml:"columns"`
	Rows    []map[string]any `yaml:"rows"`
}

// Load decodes a YAML fixture into a new Store. Integers are stored as
// float64, matching what spreadsheet backends return.
func Load(r io.Reader) (*Store, error) {
	var doc fixture
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return New(), nil
		}
		return nil, fmt.Errorf("memory: decode fixture: %w", err)
	}

	names := make([]string, 0, len(doc.Tables))
	for name := range doc.Tables {
		names = append(names, name)
	}
	slices.Sort(names)

	tables := make([]model.Table, 0, len(names))
	for _, name := range names {
		raw := doc.Tables[name]
		rows := make([]model.Row, 0, len(raw.Rows))
		for _, row := range raw.Rows {
			rows = append(rows, normalizeRow(row))
		}
		tables = append(tables, model.NewTable(name, raw.Columns, rows...))
	}
	return New(tables...), nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memory: open fixture: %w", err)
	}
	defer file.Close()
	return Load(file)
}

func normalizeRow(in map[string]any) model.Row {
	out := make(model.Row, len(in))
	for key, value := range in {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case nil, string, float64, bool:
		return v
	default:
		return fmt.Sprint(v)
	}
}
