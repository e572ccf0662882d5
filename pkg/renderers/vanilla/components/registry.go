package components

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	rendertemplate "github.com/goliatone/go-formportal/pkg/render/template"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

// Func writes the HTML for one control.
type Func func(w io.Writer, control widgets.Control, ctx Context) error

// Context carries what a component needs besides the control.
type Context struct {
	Templates rendertemplate.TemplateRenderer
	// ID is the unique HTML id of the control element on the page.
	ID string
	// Partials maps theme partial keys to template names.
	Partials map[string]string
}

// Script is a JavaScript file a component depends on.
type Script struct {
	Src   string
	Defer bool
}

// Component is a control renderer plus the assets a page needs once it uses
// the component.
type Component struct {
	Render      Func
	Stylesheets []string
	Scripts     []Script
}

// Registry maps widget names to components. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Component
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Component)}
}

// Register adds or replaces the component for name.
func (r *Registry) Register(name string, component Component) error {
	name = key(name)
	if name == "" {
		return fmt.Errorf("components: name is required")
	}
	if component.Render == nil {
		return fmt.Errorf("components: %q has no render func", name)
	}
	r.mu.Lock()
	r.entries[name] = copyComponent(component)
	r.mu.Unlock()
	return nil
}

// MustRegister is Register for static setup; it panics on error.
func (r *Registry) MustRegister(name string, component Component) {
	if err := r.Register(name, component); err != nil {
		panic(err)
	}
}

// Lookup returns a copy of the component registered under name.
func (r *Registry) Lookup(name string) (Component, bool) {
	r.mu.RLock()
	component, ok := r.entries[key(name)]
	r.mu.RUnlock()
	if !ok {
		return Component{}, false
	}
	return copyComponent(component), true
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Assets collects the stylesheets and scripts of the named components in
// order, each once. Unknown names are skipped.
func (r *Registry) Assets(names []string) ([]string, []Script) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		stylesheets []string
		scripts     []Script
	)
	for _, name := range names {
		component, ok := r.entries[key(name)]
		if !ok {
			continue
		}
		for _, href := range component.Stylesheets {
			if href != "" && !slices.Contains(stylesheets, href) {
				stylesheets = append(stylesheets, href)
			}
		}
		for _, script := range component.Scripts {
			if script.Src == "" || slices.ContainsFunc(scripts, func(s Script) bool { return s.Src == script.Src }) {
				continue
			}
			scripts = append(scripts, script)
		}
	}
	return stylesheets, scripts
}

func copyComponent(c Component) Component {
	return Component{
		Render:      c.Render,
		Stylesheets: slices.Clone(c.Stylesheets),
		Scripts:     slices.Clone(c.Scripts),
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
