package netsim

import (
	"math"
	"math/rand"

	"github.com/san-kum/llmvis/internal/geom"
	"gonum.org/v1/gonum/floats"
)

const (
	// HeadsPerLayer is the fixed number of heads of every attention layer.
	HeadsPerLayer = 8

	headRadius = 1.0
)

// Layer is one typed stage of the model.
type Layer struct {
	typ         LayerType
	size        int
	input       []float64
	output      []float64
	highlighted bool
	activation  float64
	position    geom.Vec3
	heads       []*AttentionHead
}

// NewLayer builds a layer. Attention layers own HeadsPerLayer heads of
// dimension size/HeadsPerLayer; other types own none.
func NewLayer(t LayerType, size int, rng *rand.Rand, scorer Scorer) *Layer {
	l := &Layer{
		typ:    t,
		size:   size,
		input:  make([]float64, size),
		output: make([]float64, size),
	}
	if t == Attention {
		l.heads = make([]*AttentionHead, HeadsPerLayer)
		for i := range l.heads {
			l.heads[i] = NewAttentionHead(i, size/HeadsPerLayer, rng, scorer)
		}
		l.layoutHeads()
	}
	return l
}

func (l *Layer) Type() LayerType     { return l.typ }
func (l *Layer) Size() int           { return l.size }
func (l *Layer) Highlighted() bool   { return l.highlighted }
func (l *Layer) Highlight(on bool)   { l.highlighted = on }
func (l *Layer) Activation() float64 { return l.activation }
func (l *Layer) Position() geom.Vec3 { return l.position }
func (l *Layer) Input() []float64    { return append([]float64(nil), l.input...) }
func (l *Layer) Output() []float64   { return append([]float64(nil), l.output...) }

// Scale is the visual size factor derived from the declared size.
func (l *Layer) Scale() float64 {
	if l.size <= 0 {
		return 0
	}
	return math.Log10(float64(l.size)) * 0.2
}

// SetActivation stores the sweep progress, clamped to [0, 1].
func (l *Layer) SetActivation(p float64) {
	if math.IsNaN(p) {
		p = 0
	}
	l.activation = geom.Clamp(p, 0, 1)
}

func (l *Layer) SetPosition(p geom.Vec3) {
	l.position = p
	l.layoutHeads()
}

// layoutHeads places heads on a circle around the layer position.
func (l *Layer) layoutHeads() {
	n := len(l.heads)
	for i, h := range l.heads {
		angle := float64(i) / float64(n) * 2 * math.Pi
		h.SetPosition(l.position.Add(geom.Vec3{
			X: math.Cos(angle) * headRadius,
			Y: math.Sin(angle) * headRadius,
		}))
	}
}

func (l *Layer) AttentionHeadCount() int { return len(l.heads) }

func (l *Layer) AttentionHead(i int) (*AttentionHead, bool) {
	if l.typ != Attention || i < 0 || i >= len(l.heads) {
		return nil, false
	}
	return l.heads[i], true
}

// HighlightAttentionHead clears every head and highlights head i. It is a
// no-op on non-attention layers and for out-of-range indices.
func (l *Layer) HighlightAttentionHead(i int) {
	if l.typ != Attention || i < 0 || i >= len(l.heads) {
		return
	}
	for _, h := range l.heads {
		h.SetHighlighted(false)
	}
	l.heads[i].SetHighlighted(true)
}

func (l *Layer) clearHeadHighlights() {
	for _, h := range l.heads {
		h.SetHighlighted(false)
	}
}

func (l *Layer) Update(dt float64) {
	for _, h := range l.heads {
		h.Update(dt)
	}
}

// ProcessInput stores input and applies the type's transform.
func (l *Layer) ProcessInput(input []float64) {
	l.input = append(l.input[:0], input...)

	switch l.typ {
	case Embedding:
		l.output = append(l.output[:0], input...)

	case Attention:
		// placeholder transform, not a real attention output
		l.output = resize(l.output, l.size)
		for i := range l.output {
			l.output[i] = math.Sin(float64(i)*0.1)*0.5 + 0.5
		}
		for _, h := range l.heads {
			if h.Dimensions() > 0 && len(input) >= h.Dimensions() {
				h.ComputeAttention(input, input, input)
			}
		}

	case FeedForward:
		l.output = resize(l.output, len(input))
		for i, v := range input {
			l.output[i] = math.Max(0, v)
		}

	case Normalization:
		l.output = resize(l.output, len(input))
		if len(input) == 0 {
			return
		}
		mean := floats.Sum(input) / float64(len(input))
		for i, v := range input {
			l.output[i] = v - mean
		}

	case Output:
		l.output = resize(l.output, len(input))
		if len(input) == 0 {
			return
		}
		m := floats.Max(input)
		for i, v := range input {
			l.output[i] = math.Exp(v - m)
		}
		floats.Scale(1/floats.Sum(l.output), l.output)
	}
}

func resize(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}
