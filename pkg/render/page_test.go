package render_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

func samplePage() render.Page {
	return render.Page{
		Client: "Acme <b>Corp</b>",
		Tab:    "Finance",
		Tabs: []render.TabLink{
			{Name: "Finance", Active: true},
			{Name: "Operations"},
		},
		Controls: []widgets.Control{
			{Column: "Revenue", Label: "Revenue <script>x()</script>", Widget: widgets.WidgetNumber},
		},
		Revision: "rev-1",
	}
}

func TestPrepare_AppliesOptionsWithoutMutatingInput(t *testing.T) {
	page := samplePage()

	got := render.Prepare(page, render.RenderOptions{
		Action: "/?token=abc&tab=Finance",
		Errors: map[string][]string{
			"Revenue": {"must be a number"},
			"Other":   {"boom"},
		},
	})

	if got.Client != "Acme Corp" {
		t.Fatalf("expected sanitised client, got %q", got.Client)
	}
	if got.Controls[0].Label != "Revenue" {
		t.Fatalf("expected sanitised label, got %q", got.Controls[0].Label)
	}
	if diff := cmp.Diff([]string{"must be a number"}, got.Controls[0].Errors); diff != "" {
		t.Fatalf("control errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"boom"}, got.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]render.HiddenField{{Name: "_revision", Value: "rev-1"}}, got.Hidden); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
	if got.Heading != "Finance Reporting" {
		t.Fatalf("expected localized heading, got %q", got.Heading)
	}

	if page.Controls[0].Errors != nil || page.Controls[0].Label != "Revenue <script>x()</script>" {
		t.Fatalf("input page was mutated: %+v", page.Controls[0])
	}
}

func TestPage_LinkTabs(t *testing.T) {
	page := samplePage()
	page.LinkTabs(func(tab string) string { return "/?tab=" + tab })

	want := []render.TabLink{
		{Name: "Finance", URL: "/?tab=Finance", Active: true},
		{Name: "Operations", URL: "/?tab=Operations"},
	}
	if diff := cmp.Diff(want, page.Tabs); diff != "" {
		t.Fatalf("tabs mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRenderer(t *testing.T) {
	out, err := render.JSONRenderer{}.Render(context.Background(), samplePage(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["heading"] != "Finance Reporting" {
		t.Fatalf("unexpected heading %v", decoded["heading"])
	}
}

type namedRenderer struct {
	name, contentType string
}

func (r namedRenderer) Name() string        { return r.name }
func (r namedRenderer) ContentType() string { return r.contentType }
func (r namedRenderer) Render(context.Context, render.Page, render.RenderOptions) ([]byte, error) {
	return []byte(r.name), nil
}

func TestRegistry_Negotiate(t *testing.T) {
	reg := render.NewRegistry()
	reg.MustRegister(namedRenderer{name: "vanilla", contentType: "text/html; charset=utf-8"})
	reg.MustRegister(render.JSONRenderer{})

	if err := reg.Register(namedRenderer{name: "vanilla"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	cases := map[string]string{
		"application/json":                  "json",
		"text/html,application/xhtml+xml":   "vanilla",
		"":                                  "vanilla",
		"image/png, application/json;q=0.9": "json",
	}
	for accept, want := range cases {
		renderer, err := reg.Negotiate(accept)
		if err != nil {
			t.Fatalf("negotiate %q: %v", accept, err)
		}
		if renderer.Name() != want {
			t.Fatalf("negotiate %q: expected %s, got %s", accept, want, renderer.Name())
		}
	}
	if diff := cmp.Diff([]string{"json", "vanilla"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}
