package components

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formportal/pkg/widgets"
)

func noop(io.Writer, widgets.Control, Context) error { return nil }

func TestLookupReturnsCopy(t *testing.T) {
	reg := New()
	if err := reg.Register("Input", Component{Render: noop, Stylesheets: []string{"/a.css"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	component, ok := reg.Lookup(" input ")
	if !ok {
		t.Fatalf("component not found")
	}
	component.Stylesheets[0] = "/mutated.css"

	again, _ := reg.Lookup("input")
	if diff := cmp.Diff([]string{"/a.css"}, again.Stylesheets); diff != "" {
		t.Fatalf("registry mutated (-want +got):\n%s", diff)
	}
}

func TestRegisterRejectsIncompleteComponents(t *testing.T) {
	reg := New()
	if err := reg.Register(" ", Component{Render: noop}); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
	if err := reg.Register("input", Component{}); err == nil {
		t.Fatalf("expected missing render func to be rejected")
	}
}

func TestAssetsDeduplicateInOrder(t *testing.T) {
	reg := New()
	reg.MustRegister("input", Component{
		Render:      noop,
		Stylesheets: []string{"/shared.css", "/input.css"},
		Scripts:     []Script{{Src: "/shared.js"}},
	})
	reg.MustRegister("select", Component{
		Render:      noop,
		Stylesheets: []string{"/shared.css", "/select.css"},
		Scripts:     []Script{{Src: "/shared.js", Defer: true}, {Src: "/select.js"}, {}},
	})

	styles, scripts := reg.Assets([]string{"input", "select", "missing"})
	if diff := cmp.Diff([]string{"/shared.css", "/input.css", "/select.css"}, styles); diff != "" {
		t.Fatalf("stylesheets (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Script{{Src: "/shared.js"}, {Src: "/select.js"}}, scripts); diff != "" {
		t.Fatalf("scripts (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistryCoversWidgets(t *testing.T) {
	want := []string{NameCheckbox, NameDate, NameInput, NameNumber, NameSelect, NameTextarea}
	if diff := cmp.Diff(want, NewDefaultRegistry().Names()); diff != "" {
		t.Fatalf("component names (-want +got):\n%s", diff)
	}
	partials := DefaultPartials()
	if len(partials) != len(want) || partials[PartialSelect] != "templates/components/select.tmpl" {
		t.Fatalf("unexpected partials %v", partials)
	}
}

type stubTemplates struct {
	name string
	data any
}

func (s *stubTemplates) Render(name string, data any, out ...io.Writer) (string, error) {
	return s.RenderTemplate(name, data, out...)
}

func (s *stubTemplates) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	s.name = name
	s.data = data
	for _, w := range out {
		_, _ = io.WriteString(w, "<ok>")
	}
	return "<ok>", nil
}

func (s *stubTemplates) RenderString(string, any, ...io.Writer) (string, error) { return "", nil }

func (s *stubTemplates) RegisterFilter(string, func(any, any) (any, error)) error { return nil }

func (s *stubTemplates) GlobalContext(any) error { return nil }

func TestFromTemplatePrefersThemePartial(t *testing.T) {
	templates := &stubTemplates{}
	render := FromTemplate(PartialInput, "templates/components/input.tmpl")

	var out strings.Builder
	err := render(&out, widgets.Control{Column: "Region"}, Context{
		Templates: templates,
		ID:        "fp-region",
		Partials:  map[string]string{PartialInput: "themes/acme/input.tmpl"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if templates.name != "themes/acme/input.tmpl" {
		t.Fatalf("expected theme partial, got %q", templates.name)
	}
	if out.String() != "<ok>" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if data := templates.data.(map[string]any); data["id"] != "fp-region" {
		t.Fatalf("expected id in template data, got %v", data)
	}

	if err := render(&out, widgets.Control{}, Context{}); err == nil {
		t.Fatalf("expected missing template renderer to fail")
	}
}
