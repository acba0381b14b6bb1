package config

import "fmt"

// Theme holds the visual tokens grouped by section. Each section is merged
// independently: an override section replaces only the leaves it names, and
// unset leaves fall back to the defaults.
type Theme struct {
	Colors  map[string]string `yaml:"colors"`
	Fonts   map[string]string `yaml:"fonts"`
	Radii   map[string]string `yaml:"radii"`
	Spacing map[string]string `yaml:"spacing"`
}

// DefaultTheme returns the built-in visual tokens.
func DefaultTheme() *Theme {
	return &Theme{
		Colors: map[string]string{
			"primary":    "#1a1a2e",
			"secondary":  "#16213e",
			"accent":     "#e94560",
			"background": "#ffffff",
			"surface":    "#f5f5f5",
			"text":       "#111111",
			"muted":      "#6b7280",
			"error":      "#dc2626",
		},
		Fonts: map[string]string{
			"body":    "system-ui, sans-serif",
			"heading": "system-ui, sans-serif",
			"mono":    "ui-monospace, monospace",
		},
		Radii: map[string]string{
			"sm": "4px",
			"md": "8px",
			"lg": "16px",
		},
		Spacing: map[string]string{
			"xs": "4px",
			"sm": "8px",
			"md": "16px",
			"lg": "24px",
			"xl": "40px",
		},
	}
}

// Merge returns a new Theme with the override applied shallowly per section.
// A nil override returns a copy of the receiver.
func (t *Theme) Merge(override *Theme) *Theme {
	merged := &Theme{
		Colors:  mergeSection(t.Colors, nil),
		Fonts:   mergeSection(t.Fonts, nil),
		Radii:   mergeSection(t.Radii, nil),
		Spacing: mergeSection(t.Spacing, nil),
	}
	if override == nil {
		return merged
	}
	merged.Colors = mergeSection(merged.Colors, override.Colors)
	merged.Fonts = mergeSection(merged.Fonts, override.Fonts)
	merged.Radii = mergeSection(merged.Radii, override.Radii)
	merged.Spacing = mergeSection(merged.Spacing, override.Spacing)
	return merged
}

// mergeSection copies base and overlays the override leaves onto it.
func mergeSection(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Tokens flattens the theme into the "color.*" / "font.*" / "radius.*" /
// "spacing.*" variable namespace consumed by styling integrations.
func (t *Theme) Tokens() map[string]string {
	tokens := make(map[string]string, len(t.Colors)+len(t.Fonts)+len(t.Radii)+len(t.Spacing))
	for k, v := range t.Colors {
		tokens[fmt.Sprintf("color.%s", k)] = v
	}
	for k, v := range t.Fonts {
		tokens[fmt.Sprintf("font.%s", k)] = v
	}
	for k, v := range t.Radii {
		tokens[fmt.Sprintf("radius.%s", k)] = v
	}
	for k, v := range t.Spacing {
		tokens[fmt.Sprintf("spacing.%s", k)] = v
	}
	return tokens
}
