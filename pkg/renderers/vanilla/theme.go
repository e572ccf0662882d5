package vanilla

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formportal/pkg/renderers/vanilla/components"
)

// Asset key of a theme stylesheet, resolved through the manifest assets.
const ThemeStylesheetAsset = "vanilla.stylesheet"

// ThemeSet is a theme.ThemeSelector over manifests held in memory. An empty
// name selects the default theme.
type ThemeSet struct {
	mu        sync.RWMutex
	manifests map[string]*theme.Manifest
	fallback  string
}

var _ theme.ThemeSelector = (*ThemeSet)(nil)

// NewThemeSet registers manifests. The first one becomes the default.
func NewThemeSet(manifests ...*theme.Manifest) (*ThemeSet, error) {
	set := &ThemeSet{manifests: make(map[string]*theme.Manifest)}
	for _, manifest := range manifests {
		if err := set.Register(manifest); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Register adds or replaces a manifest by name.
func (s *ThemeSet) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return fmt.Errorf("vanilla: theme manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[manifest.Name] = manifest
	if s.fallback == "" {
		s.fallback = manifest.Name
	}
	return nil
}

// Names lists the registered themes.
func (s *ThemeSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.manifests))
}

// Select implements theme.ThemeSelector. Unknown variants are rejected.
func (s *ThemeSet) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if strings.TrimSpace(name) == "" {
		name = s.fallback
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("vanilla: theme %q not registered", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("vanilla: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

type themeFile struct {
	Name      string                      `yaml:"name"`
	Version   string                      `yaml:"version"`
	Tokens    map[string]string           `yaml:"tokens"`
	Templates map[string]string           `yaml:"templates"`
	Assets    themeFileAssets             `yaml:"assets"`
	Variants  map[string]themeFileVariant `yaml:"variants"`
}

type themeFileAssets struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

type themeFileVariant struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    themeFileAssets   `yaml:"assets"`
}

// ParseTheme decodes a YAML theme manifest.
func ParseTheme(data []byte) (*theme.Manifest, error) {
	var file themeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("vanilla: decode theme: %w", err)
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, fmt.Errorf("vanilla: theme name is required")
	}
	manifest := &theme.Manifest{
		Name:      file.Name,
		Version:   file.Version,
		Tokens:    file.Tokens,
		Templates: file.Templates,
		Assets:    theme.Assets{Prefix: file.Assets.Prefix, Files: file.Assets.Files},
	}
	if len(file.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(file.Variants))
		for name, variant := range file.Variants {
			manifest.Variants[name] = theme.Variant{
				Tokens:    variant.Tokens,
				Templates: variant.Templates,
				Assets:    theme.Assets{Prefix: variant.Assets.Prefix, Files: variant.Assets.Files},
			}
		}
	}
	return manifest, nil
}

// LoadThemeFile reads a YAML theme manifest from disk.
func LoadThemeFile(path string) (*theme.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vanilla: read theme %s: %w", path, err)
	}
	return ParseTheme(data)
}

// RendererConfig flattens a selection into the partials, tokens and assets a
// renderer consumes. Variant entries override the base manifest; partials
// missing from both come from fallbacks. Every token is also exposed as a
// "--token" CSS variable.
func RendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant := manifest.Variants[selection.Variant]

	partials := maps.Clone(fallbacks)
	if partials == nil {
		partials = make(map[string]string)
	}
	maps.Copy(partials, manifest.Templates)
	maps.Copy(partials, variant.Templates)

	tokens := make(map[string]string, len(manifest.Tokens))
	maps.Copy(tokens, manifest.Tokens)
	maps.Copy(tokens, variant.Tokens)

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	files := make(map[string]string)
	maps.Copy(files, manifest.Assets.Files)
	maps.Copy(files, variant.Assets.Files)
	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if prefix == "" || strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
				return file
			}
			return strings.TrimSuffix(prefix, "/") + "/" + file
		},
	}
}

type rendererTheme struct {
	Name         string `json:"name,omitempty"`
	Variant      string `json:"variant,omitempty"`
	CSSVarsStyle string `json:"css_vars_style,omitempty"`
}

func buildThemeContext(cfg *theme.RendererConfig) rendererTheme {
	if cfg == nil {
		return rendererTheme{}
	}
	return rendererTheme{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		CSSVarsStyle: cssVarsStyle(cfg.CSSVars),
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		value := vars[key]
		if strings.ContainsAny(key+value, "<>{};") {
			continue
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func themePartials(cfg *theme.RendererConfig) map[string]string {
	if cfg == nil {
		return nil
	}
	return cfg.Partials
}

func defaultThemeFallbacks() map[string]string {
	return components.DefaultPartials()
}
