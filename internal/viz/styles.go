package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title     lipgloss.Style
	Panel     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	KeyHint   lipgloss.Style
	Running   lipgloss.Style
	Paused    lipgloss.Style
	Recording lipgloss.Style
	Prompt    lipgloss.Style
	Graph     lipgloss.Style
	Selected  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(sidebarWidth - 2),
		Label:     lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		Value:     lipgloss.NewStyle().Foreground(t.Text),
		Muted:     lipgloss.NewStyle().Foreground(t.Muted),
		KeyHint:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Running:   lipgloss.NewStyle().Bold(true).Foreground(t.Running),
		Paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Paused),
		Recording: lipgloss.NewStyle().Bold(true).Foreground(t.Recording).Blink(true),
		Prompt:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Graph:     lipgloss.NewStyle().Foreground(t.Secondary),
		Selected:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
	}
}

// GradientText colors each rune of text along a gradient.
func GradientText(text string, start, end lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	sr, sg, sb := parseHex(string(start))
	er, eg, eb := parseHex(string(end))

	var b strings.Builder
	n := len(runes)
	for i, c := range runes {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		col := hexColor(
			int(float64(sr)+t*float64(er-sr)),
			int(float64(sg)+t*float64(eg-sg)),
			int(float64(sb)+t*float64(eb-sb)),
		)
		b.WriteString(lipgloss.NewStyle().Foreground(col).Render(string(c)))
	}
	return b.String()
}

func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// ProgressBar is a plain bar of width cells, filled to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// LayerBars renders one block per layer whose height follows its activation.
func LayerBars(values []float64, color func(i int) lipgloss.Color) string {
	chars := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for i, v := range values {
		idx := int(v * float64(len(chars)-1))
		idx = max(0, min(len(chars)-1, idx))
		s := string(chars[idx])
		if color != nil {
			s = lipgloss.NewStyle().Foreground(color(i)).Render(s)
		}
		b.WriteString(s)
	}
	return b.String()
}

func Separator(width int) string {
	if width < 8 {
		return strings.Repeat("─", max(width, 0))
	}
	mid := width / 2
	return strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3)
}
