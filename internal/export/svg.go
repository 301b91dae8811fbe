// Package export renders canvases and activation series as SVG.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/llmvis/internal/viz"
)

const (
	background   = "#0a0a0a"
	defaultColor = "#00ff00"
)

// CanvasToSVG draws every lit braille dot as a circle. Dots are grouped by
// their cell color.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.SubWidth()) * scale
	height := float64(canvas.SubHeight()) * scale

	groups := map[string][]string{}
	dotRadius := scale * 0.4
	for y := 0; y < canvas.SubHeight(); y++ {
		for x := 0; x < canvas.SubWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			c := string(canvas.Colors[y/4][x/2])
			if c == "" {
				c = defaultColor
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			groups[c] = append(groups[c], fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`, cx, cy, dotRadius))
		}
	}

	colors := make([]string, 0, len(groups))
	for c := range groups {
		colors = append(colors, c)
	}
	sort.Strings(colors)

	var sb strings.Builder
	sb.WriteString(header(width, height))
	for _, c := range colors {
		sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", c))
		for _, dot := range groups[c] {
			sb.WriteString(dot + "\n")
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</svg>")
	return sb.String()
}

func header(w, h float64) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}

// Series is one named line of a chart.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

// SeriesToSVG plots series against xs. The y axis is fixed to [0, 1] since
// activations never leave that range.
func SeriesToSVG(xs []float64, series []Series, width, height int) string {
	if len(xs) < 2 || len(series) == 0 {
		return ""
	}

	minX, maxX := xs[0], xs[len(xs)-1]
	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}
	const pad = 0.05
	w, h := float64(width), float64(height)
	px := func(x float64) float64 { return (pad + (1-2*pad)*(x-minX)/rangeX) * w }
	py := func(y float64) float64 { return h - (pad+(1-2*pad)*y)*h }

	var sb strings.Builder
	sb.WriteString(header(w, h))
	for i, s := range series {
		stroke := s.Color
		if stroke == "" {
			stroke = defaultColor
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke))
		n := min(len(xs), len(s.Values))
		for j := 0; j < n; j++ {
			cmd := " L"
			if j == 0 {
				cmd = "M"
			}
			sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, px(xs[j]), py(s.Values[j])))
		}
		sb.WriteString("\"/>\n")
		if s.Name != "" {
			sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="%s" font-family="monospace" font-size="12">%s</text>`+"\n",
				w*pad, h*pad+float64(i+1)*14, stroke, s.Name))
		}
	}
	sb.WriteString("</svg>")
	return sb.String()
}
