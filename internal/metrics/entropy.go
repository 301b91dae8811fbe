package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/llmvis/internal/netsim"
)

// Entropy is the Shannon entropy in nats of the non-negative entries of p,
// normalized to sum to one. Empty or all-zero input has zero entropy.
func Entropy(p []float64) float64 {
	q := make([]float64, 0, len(p))
	for _, v := range p {
		if v > 0 {
			q = append(q, v)
		}
	}
	sum := floats.Sum(q)
	if sum == 0 {
		return 0
	}
	floats.Scale(1/sum, q)
	return stat.Entropy(q)
}

// OutputEntropy tracks the entropy of the last layer's output distribution.
// Value reports the most recent observation.
type OutputEntropy struct {
	name    string
	last    float64
	samples int
}

func NewOutputEntropy() *OutputEntropy {
	return &OutputEntropy{name: "output_entropy"}
}

func (o *OutputEntropy) Name() string { return o.name }

func (o *OutputEntropy) Observe(m *netsim.Model, t float64) {
	l, ok := m.Layer(m.LayerCount() - 1)
	if !ok {
		return
	}
	o.last = Entropy(l.Output())
	o.samples++
}

func (o *OutputEntropy) Value() float64 { return o.last }

func (o *OutputEntropy) Reset() {
	o.last = 0
	o.samples = 0
}

// AttentionEntropy is the mean row entropy over every head's weight matrix.
// Uniform rows over n positions give log(n).
type AttentionEntropy struct {
	name string
	last float64
}

func NewAttentionEntropy() *AttentionEntropy {
	return &AttentionEntropy{name: "attention_entropy"}
}

func (a *AttentionEntropy) Name() string { return a.name }

func (a *AttentionEntropy) Observe(m *netsim.Model, t float64) {
	total, rows := 0.0, 0
	for _, l := range m.Layers() {
		for i := 0; i < l.AttentionHeadCount(); i++ {
			h, _ := l.AttentionHead(i)
			for _, row := range h.Weights() {
				total += Entropy(row)
				rows++
			}
		}
	}
	if rows == 0 {
		a.last = 0
		return
	}
	a.last = total / float64(rows)
}

func (a *AttentionEntropy) Value() float64 { return a.last }

func (a *AttentionEntropy) Reset() { a.last = 0 }
