package theme

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/benvon/calendar-todo/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultTheme is the theme selected on cold start and the fallback for unknown names
const DefaultTheme = "default"

//go:embed themes.yaml
var builtinThemes []byte

// Registry is a read-only mapping from theme name to palette
type Registry struct {
	palettes map[string]models.Palette
	names    []string
}

// NewRegistry parses a YAML document of name -> palette.
// The document must define the default theme.
func NewRegistry(data []byte) (*Registry, error) {
	palettes := make(map[string]models.Palette)
	if err := yaml.Unmarshal(data, &palettes); err != nil {
		return nil, fmt.Errorf("failed to parse themes: %w", err)
	}
	if _, ok := palettes[DefaultTheme]; !ok {
		return nil, fmt.Errorf("themes must define %q", DefaultTheme)
	}

	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{palettes: palettes, names: names}, nil
}

// BuiltinRegistry returns the registry of palettes shipped with the binary
func BuiltinRegistry() *Registry {
	r, err := NewRegistry(builtinThemes)
	if err != nil {
		panic(fmt.Sprintf("invalid builtin themes: %v", err))
	}
	return r
}

// Lookup returns the palette for name and whether it exists
func (r *Registry) Lookup(name string) (models.Palette, bool) {
	p, ok := r.palettes[name]
	return p, ok
}

// Palette returns the palette for name, falling back to the default theme
func (r *Registry) Palette(name string) models.Palette {
	if p, ok := r.palettes[name]; ok {
		return p
	}
	return r.palettes[DefaultTheme]
}

// Has reports whether name is a registered theme
func (r *Registry) Has(name string) bool {
	_, ok := r.palettes[name]
	return ok
}

// Names returns the registered theme names in sorted order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
