package pongo_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formportal/pkg/render/template/pongo"
	"github.com/goliatone/go-formportal/pkg/testsupport"
)

//go:embed testdata/templates/*.tmpl
var embeddedTemplates embed.FS

func newEngine(t *testing.T, opts ...pongo.Option) *pongo.Engine {
	t.Helper()
	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := pongo.New(append([]pongo.Option{pongo.WithFS(templatesFS)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func assertGolden(t *testing.T, name, got string) {
	t.Helper()
	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", name+".golden"))
	if got != want {
		t.Fatalf("%s mismatch\nwant: %q\n got: %q", name, want, got)
	}
}

func TestRenderTemplateWritesAndReturns(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	assertGolden(t, "hello", result)
	if written != result {
		t.Fatalf("writer got %q, want %q", written, result)
	}
}

func TestRenderTemplateAcceptsExtension(t *testing.T) {
	engine := newEngine(t)
	result, err := engine.RenderTemplate("hello.tmpl", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertGolden(t, "hello", result)
}

func TestGlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertGolden(t, "use-global", result)
}

func TestRegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) { return input, nil }); err == nil {
		t.Fatalf("expected duplicate filter to fail")
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertGolden(t, "use-filter", result)
}

func TestFieldIDFilterEscapesLabels(t *testing.T) {
	engine := newEngine(t)
	result, err := engine.RenderTemplate("field-id", map[string]any{
		"column": "Annual Revenue (2024)",
		"label":  "Revenue <b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertGolden(t, "field-id", result)
}

func TestStructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)
	type client struct {
		Name string `json:"name"`
	}
	result, err := engine.RenderString("{{ client.name }}", map[string]any{"client": client{Name: "Globex"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Globex" {
		t.Fatalf("got %q", result)
	}
}

func TestWithFuncCallableFromTemplates(t *testing.T) {
	engine := newEngine(t, pongo.WithFunc("greet", func(name string) string { return "hi " + name }))
	result, err := engine.Render(`{{ greet("Ada") }}`, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "hi Ada" {
		t.Fatalf("got %q", result)
	}
}

func TestWithFuncRejectsValues(t *testing.T) {
	_, err := pongo.New(pongo.WithFS(embeddedTemplates), pongo.WithFunc("greet", "hi"))
	if err == nil {
		t.Fatalf("expected error for non-function")
	}
}

func TestDirOverridesFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.tmpl"), []byte("Howdy {{ name }}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	engine := newEngine(t, pongo.WithDir(dir))
	result, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Howdy Ada" {
		t.Fatalf("got %q", result)
	}
}

func TestNewRequiresTemplates(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without templates")
	}
}

func TestFieldID(t *testing.T) {
	cases := map[string]string{
		"Revenue":          "revenue",
		"  Client Name ":   "client-name",
		"Q1/Q2 -- totals!": "q1-q2-totals",
		"Net %":            "net",
	}
	for raw, want := range cases {
		if got := pongo.FieldID(raw); got != want {
			t.Fatalf("FieldID(%q) = %q, want %q", raw, got, want)
		}
	}
}
