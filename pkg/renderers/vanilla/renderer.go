package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formportal/pkg/render"
	rendertemplate "github.com/goliatone/go-formportal/pkg/render/template"
	"github.com/goliatone/go-formportal/pkg/render/template/pongo"
	"github.com/goliatone/go-formportal/pkg/renderers/vanilla/components"
)

const (
	pageTemplate   = "templates/page.tmpl"
	deniedTemplate = "templates/denied.tmpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	themes           theme.ThemeSelector
	stylesheetURL    string
	chrome           map[string]string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers a directory on disk over the template bundle.
// Files found there (e.g. templates/page.tmpl) replace the bundled ones.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the built-in components.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithThemeSelector resolves RenderOptions.Theme and Variant into partials,
// CSS variables and assets.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(cfg *config) {
		cfg.themes = selector
	}
}

// WithStylesheetURL links the stylesheet at url instead of inlining the
// built-in one.
func WithStylesheetURL(url string) Option {
	return func(cfg *config) {
		cfg.stylesheetURL = strings.TrimSpace(url)
	}
}

// WithChromeClasses appends classes to chrome slots (body, sidebar, form,
// and so on).
func WithChromeClasses(classes map[string]string) Option {
	return func(cfg *config) {
		cfg.chrome = classes
	}
}

// Renderer produces the portal HTML page: the client sidebar, tab navigation
// and the form for the active tab.
type Renderer struct {
	templates     rendertemplate.TemplateRenderer
	components    *components.Registry
	themes        theme.ThemeSelector
	stylesheet    string
	stylesheetURL string
	classes       map[string]string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithDir(cfg.templateDir),
			pongo.WithFS(cfg.templateFS),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	registry := cfg.components
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}

	out := &Renderer{
		templates:     renderer,
		components:    registry,
		themes:        cfg.themes,
		stylesheetURL: cfg.stylesheetURL,
		classes:       chromeClasses(cfg.chrome),
	}
	if out.stylesheetURL == "" {
		out.stylesheet = defaultStylesheet()
	}
	return out, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer. Pages without a form (denials, or a
// schema with no tabs) render the message page.
func (r *Renderer) Render(ctx context.Context, page render.Page, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	themeConfig, err := r.resolveTheme(options)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}

	prepared := render.Prepare(page, options)
	locale := options.Locale
	if locale == "" {
		locale = "en"
	}
	data := map[string]any{
		"page":       prepared,
		"locale":     locale,
		"theme":      buildThemeContext(themeConfig),
		"stylesheet": r.stylesheet,
		"classes":    r.classes,
	}
	for name, fn := range render.TemplateFuncs(options) {
		data[name] = fn
	}

	if !prepared.HasForm() {
		result, err := r.templates.RenderTemplate(deniedTemplate, data)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
		}
		return []byte(result), nil
	}

	controls := newComponentRenderer(r.templates, r.components, themePartials(themeConfig))
	fields := make([]string, 0, len(prepared.Controls))
	for _, control := range prepared.Controls {
		html, err := controls.render(control)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: %w", err)
		}
		fields = append(fields, html)
	}

	stylesheets, scripts := controls.assets()
	if r.stylesheetURL != "" {
		stylesheets = append([]string{r.stylesheetURL}, stylesheets...)
	}
	if themeConfig != nil && themeConfig.AssetURL != nil {
		if href := themeConfig.AssetURL(ThemeStylesheetAsset); href != "" {
			stylesheets = append(stylesheets, href)
		}
	}

	data["fields"] = fields
	data["stylesheets"] = stylesheets
	data["scripts"] = scriptContext(scripts)

	result, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) resolveTheme(options render.RenderOptions) (*theme.RendererConfig, error) {
	if r.themes == nil {
		return nil, nil
	}
	selection, err := r.themes.Select(options.Theme, options.Variant)
	if err != nil {
		return nil, fmt.Errorf("select theme: %w", err)
	}
	return RendererConfig(selection, defaultThemeFallbacks()), nil
}

func scriptContext(scripts []components.Script) []map[string]any {
	out := make([]map[string]any, 0, len(scripts))
	for _, script := range scripts {
		if script.Src == "" {
			continue
		}
		out = append(out, map[string]any{
			"src":   script.Src,
			"defer": script.Defer,
		})
	}
	return out
}
