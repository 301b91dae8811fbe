package netsim

import (
	"math"

	"github.com/san-kum/llmvis/internal/geom"
)

// Renderer is the set of drawing primitives a graphics backend offers. World
// positions are transformed by the backend's camera; text and rectangles use
// screen coordinates.
type Renderer interface {
	RenderPanel(l *Layer, c Color)
	RenderNeuron(pos geom.Vec3, size float64, c Color)
	RenderConnection(from, to geom.Vec3, strength float64, c Color)
	RenderDataFlow(start, end geom.Vec3, progress float64, c Color)
	RenderText(text string, x, y, scale float64, c Color)
	RenderRect(x, y, w, h float64, c Color)
}

const (
	headSize       = 0.2
	neuronSize     = 0.05
	neuronSpacing  = 0.2
	maxNeurons     = 100
	connectionBase = 0.5
)

var flowColor = Color{1, 0.85, 0.3, 1}

// DisplayColor is the layer's palette color with highlight and activation
// applied: highlighted layers are white, alpha runs 0.3 -> 1.0 with activation.
func (l *Layer) DisplayColor() Color {
	c := PaletteColor(l.typ)
	if l.highlighted {
		c = White
	}
	c.A = 0.3 + l.activation*0.7
	return c
}

// PanelCorners returns the corners of the layer's square panel in the XY
// plane, counter-clockwise from bottom-left. The half extent is Scale.
func (l *Layer) PanelCorners() [4]geom.Vec3 {
	s := l.Scale()
	p := l.position
	return [4]geom.Vec3{
		{X: p.X - s, Y: p.Y - s, Z: p.Z},
		{X: p.X + s, Y: p.Y - s, Z: p.Z},
		{X: p.X + s, Y: p.Y + s, Z: p.Z},
		{X: p.X - s, Y: p.Y + s, Z: p.Z},
	}
}

func (l *Layer) Render(r Renderer) {
	c := l.DisplayColor()

	switch l.typ {
	case Embedding, Normalization, Output:
		r.RenderPanel(l, c)

	case Attention:
		for i, h := range l.heads {
			hc := c
			if h.Highlighted() {
				hc = White
			}
			r.RenderNeuron(h.Position(), headSize, hc)
			if i > 0 {
				r.RenderConnection(l.heads[i-1].Position(), h.Position(), connectionBase, c)
			}
		}

	case FeedForward:
		n := min(maxNeurons, l.size)
		perRow := int(math.Sqrt(float64(n)))
		if perRow == 0 {
			return
		}
		for i := 0; i < n; i++ {
			row, col := i/perRow, i%perRow
			pos := l.position.Add(geom.Vec3{
				X: float64(col-perRow/2) * neuronSpacing,
				Y: float64(row-perRow/2) * neuronSpacing,
			})
			r.RenderNeuron(pos, neuronSize, c)
		}
	}
}

// Render draws every layer and a data-flow marker leaving the active layer.
func (m *Model) Render(r Renderer) {
	for _, l := range m.layers {
		l.Render(r)
	}
	i, p, ok := m.ActiveLayer()
	if !ok || !m.animateFlow || m.currentInput == "" || i+1 >= len(m.layers) {
		return
	}
	r.RenderDataFlow(m.layers[i].position, m.layers[i+1].position, p, flowColor)
}
