package components

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-formportal/pkg/widgets"
)

const templateDir = "templates/components/"

var builtin = []struct {
	name, partial, file string
}{
	{NameInput, PartialInput, "input.tmpl"},
	{NameTextarea, PartialTextarea, "textarea.tmpl"},
	{NameDate, PartialDate, "date.tmpl"},
	{NameSelect, PartialSelect, "select.tmpl"},
	{NameNumber, PartialNumber, "number.tmpl"},
	{NameCheckbox, PartialCheckbox, "checkbox.tmpl"},
}

// NewDefaultRegistry returns a registry with one template component per
// built-in widget.
func NewDefaultRegistry() *Registry {
	registry := New()
	for _, entry := range builtin {
		registry.MustRegister(entry.name, Component{
			Render: FromTemplate(entry.partial, templateDir+entry.file),
		})
	}
	return registry
}

// DefaultPartials maps every partial key to its built-in template. Themes
// override individual entries.
func DefaultPartials() map[string]string {
	out := make(map[string]string, len(builtin))
	for _, entry := range builtin {
		out[entry.partial] = templateDir + entry.file
	}
	return out
}

// FromTemplate renders a control with the template named by the partial key
// in Context.Partials, falling back to fallback.
func FromTemplate(partial, fallback string) Func {
	return func(w io.Writer, control widgets.Control, ctx Context) error {
		if ctx.Templates == nil {
			return fmt.Errorf("components: no template renderer for %q", partial)
		}
		name := fallback
		if override := strings.TrimSpace(ctx.Partials[partial]); override != "" {
			name = override
		}
		_, err := ctx.Templates.RenderTemplate(name, map[string]any{
			"control": control,
			"id":      ctx.ID,
		}, w)
		if err != nil {
			return fmt.Errorf("components: %s: %w", name, err)
		}
		return nil
	}
}
