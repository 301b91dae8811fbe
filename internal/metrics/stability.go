package metrics

import (
	"math"

	"github.com/san-kum/llmvis/internal/netsim"
)

// Stability is the fraction of frames in which every layer output stays
// finite and within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(m *netsim.Model, t float64) {
	s.samples++
	for _, l := range m.Layers() {
		if !withinBounds(l.Output(), s.threshold) {
			s.violations++
			return
		}
	}
}

func withinBounds(out []float64, threshold float64) bool {
	for _, v := range out {
		if math.IsNaN(v) || math.Abs(v) > threshold {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
