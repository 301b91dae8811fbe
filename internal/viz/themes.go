package viz

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/llmvis/internal/netsim"
)

// Theme is the terminal color scheme. Layer colors come from the model;
// Tint decides how strongly they are pulled toward the theme.
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Running    lipgloss.Color
	Paused     lipgloss.Color
	Recording  lipgloss.Color
	Tint       float64
}

var (
	ThemeDefault = Theme{
		Name:       "default",
		Primary:    "#00ffff",
		Secondary:  "#ff88ff",
		Accent:     "#ffd94d",
		Background: "#0a0a12",
		Text:       "#ffffff",
		Muted:      "#666688",
		Running:    "#00ff88",
		Paused:     "#ffaa00",
		Recording:  "#ff4444",
	}

	ThemeRetro = Theme{
		Name:       "retro",
		Primary:    "#00ff00",
		Secondary:  "#00cc00",
		Accent:     "#88ff88",
		Background: "#001100",
		Text:       "#00ff00",
		Muted:      "#005500",
		Running:    "#88ff88",
		Paused:     "#ffff00",
		Recording:  "#ff0000",
		Tint:       1,
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Primary:    "#ffffff",
		Secondary:  "#cccccc",
		Accent:     "#0088ff",
		Background: "#000000",
		Text:       "#ffffff",
		Muted:      "#888888",
		Running:    "#00ff00",
		Paused:     "#ffaa00",
		Recording:  "#ff0000",
		Tint:       0.6,
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Primary:    "#0077be",
		Secondary:  "#00a8cc",
		Accent:     "#ffd700",
		Background: "#001a33",
		Text:       "#e0f0ff",
		Muted:      "#4488aa",
		Running:    "#00ff88",
		Paused:     "#ffcc00",
		Recording:  "#ff4444",
		Tint:       0.35,
	}

	CurrentTheme = ThemeDefault

	Themes = []Theme{ThemeDefault, ThemeRetro, ThemeMinimal, ThemeOcean}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDefault
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, other := range Themes {
		if other.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDefault
}

// Color maps a model color to a terminal color. Alpha darkens the color
// since the terminal has no blending, and Tint mixes in the primary color.
func (t Theme) Color(c netsim.Color) lipgloss.Color {
	r, g, b := c.R, c.G, c.B
	if t.Tint > 0 {
		pr, pg, pb := parseHex(string(t.Primary))
		r = lerp(r, float64(pr)/255, t.Tint)
		g = lerp(g, float64(pg)/255, t.Tint)
		b = lerp(b, float64(pb)/255, t.Tint)
	}
	a := c.A
	if a <= 0 {
		a = 0.15
	}
	return hexColor(to8(r*a), to8(g*a), to8(b*a))
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func to8(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func hexColor(r, g, b int) lipgloss.Color {
	clamp := func(v int) int { return max(0, min(255, v)) }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", clamp(r), clamp(g), clamp(b)))
}

func parseHex(hex string) (r, g, b int) {
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return 255, 255, 255
	}
	return r, g, b
}
