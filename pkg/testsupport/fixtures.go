package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/store"
	"github.com/goliatone/go-formportal/pkg/store/memory"
)

// Tokens used by SampleTables.
const (
	TokenAcme   = "abc123"
	TokenGlobex = "9001"
)

// SampleTables returns a small Data/Config pair: two tabs, all six field types
// and a numeric token.
func SampleTables() (model.Table, model.Table) {
	data := model.NewTable(model.TableData,
		[]string{model.ColumnToken, model.ColumnClient, "Frequency", "Revenue", "Approved", "Notes", "Start", "Region"},
		model.Row{
			model.ColumnToken: TokenAcme, model.ColumnClient: "Acme Corp",
			"Frequency": "Yearly", "Revenue": float64(42), "Approved": "TRUE",
			"Notes": nil, "Start": "2024-01-01", "Region": "North",
		},
		model.Row{
			model.ColumnToken: float64(9001), model.ColumnClient: "Globex",
			"Frequency": "Weekly", "Revenue": nil, "Approved": false,
			"Notes": "call back", "Start": nil, "Region": nil,
		},
	)
	config := model.NewTable(model.TableConfig, model.ConfigColumns(),
		model.Row{"Tab": "Finance", "Column Name": "Frequency", "Label": "Reporting Frequency", "Type": "dropdown", "Options": "Monthly, Yearly"},
		model.Row{"Tab": "Finance", "Column Name": "Revenue", "Label": "Annual Revenue", "Type": "number"},
		model.Row{"Tab": "Finance", "Column Name": "Start", "Label": "Start Date", "Type": "date"},
		model.Row{"Tab": "Operations", "Column Name": "Approved", "Label": "Approved", "Type": "checkbox"},
		model.Row{"Tab": "Operations", "Column Name": "Notes", "Label": "Notes", "Type": "textarea"},
		model.Row{"Tab": "Operations", "Column Name": "Region", "Label": "Region", "Type": "text"},
	)
	return data, config
}

// SampleStore returns a memory store seeded with SampleTables.
func SampleStore() *memory.Store {
	data, config := SampleTables()
	return memory.New(data, config)
}

// CountingGateway wraps a gateway and counts calls. ReadErr and WriteErr,
// when set, are returned instead of delegating.
type CountingGateway struct {
	Next     store.Gateway
	ReadErr  error
	WriteErr error

	mu     sync.Mutex
	reads  int
	writes int
}

// NewCountingGateway wraps next.
func NewCountingGateway(next store.Gateway) *CountingGateway {
	return &CountingGateway{Next: next}
}

// ReadTable implements store.Gateway.
func (g *CountingGateway) ReadTable(ctx context.Context, name string) (model.Table, error) {
	g.mu.Lock()
	g.reads++
	err := g.ReadErr
	g.mu.Unlock()
	if err != nil {
		return model.Table{}, err
	}
	return g.Next.ReadTable(ctx, name)
}

// WriteTable implements store.Gateway.
func (g *CountingGateway) WriteTable(ctx context.Context, name string, table model.Table) error {
	g.mu.Lock()
	g.writes++
	err := g.WriteErr
	g.mu.Unlock()
	if err != nil {
		return err
	}
	return g.Next.WriteTable(ctx, name, table)
}

// Reads returns the number of ReadTable calls.
func (g *CountingGateway) Reads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reads
}

// Writes returns the number of WriteTable calls.
func (g *CountingGateway) Writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

// MustReadTable reads name or fails the test.
func MustReadTable(t *testing.T, gw store.Gateway, name string) model.Table {
	t.Helper()
	table, err := gw.ReadTable(context.Background(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return table
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
