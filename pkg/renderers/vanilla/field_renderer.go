package vanilla

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formportal/pkg/render/template"
	"github.com/goliatone/go-formportal/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	partials  map[string]string

	usedComponents []string
	seenComponents map[string]struct{}
	seenIDs        map[string]int
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, partials map[string]string) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates:      templates,
		registry:       registry,
		partials:       partials,
		seenComponents: make(map[string]struct{}),
		seenIDs:        make(map[string]int),
	}
}

// render writes one control. Controls without a widget use the plain input.
func (r *componentRenderer) render(control widgets.Control) (string, error) {
	name := control.Widget
	if name == "" {
		name = components.NameInput
	}

	component, ok := r.registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("component %q not registered for column %q", name, control.Column)
	}

	var buf bytes.Buffer
	err := component.Render(&buf, control, components.Context{
		Templates: r.templates,
		ID:        r.controlID(control),
		Partials:  r.partials,
	})
	if err != nil {
		return "", fmt.Errorf("render column %q: %w", control.Column, err)
	}

	if _, seen := r.seenComponents[name]; !seen {
		r.seenComponents[name] = struct{}{}
		r.usedComponents = append(r.usedComponents, name)
	}
	return buf.String(), nil
}

// controlID derives a unique element id. A column configured twice gets a
// numeric suffix on its later controls.
func (r *componentRenderer) controlID(control widgets.Control) string {
	id := componentControlID(control.Column)
	if id == "" {
		id = "fp-field-" + strconv.Itoa(control.Position)
	}
	r.seenIDs[id]++
	if count := r.seenIDs[id]; count > 1 {
		return id + "-" + strconv.Itoa(count)
	}
	return id
}

func (r *componentRenderer) assets() ([]string, []components.Script) {
	return r.registry.Assets(r.usedComponents)
}
