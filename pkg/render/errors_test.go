package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

func TestMapErrorPayload_MatchesColumnsAndPointers(t *testing.T) {
	page := render.Page{
		Controls: []widgets.Control{
			{Column: "Annual Revenue"},
			{Column: "Notes"},
			{Column: "a/b"},
		},
	}

	payload := map[string][]string{
		"Annual Revenue":   {"must be a number"},
		"/body/Notes":      {"too long"},
		"/a~1b":            {"escaped"},
		"non_field_errors": {"Form level error"},
		"/Unknown":         {"Should fall back to form errors"},
		"":                 {"Unscoped form error", " "},
	}

	mapped := render.MapErrorPayload(page, payload)

	wantFields := map[string][]string{
		"Annual Revenue": {"must be a number"},
		"Notes":          {"too long"},
		"a/b":            {"escaped"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
