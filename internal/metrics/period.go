package metrics

import (
	"github.com/san-kum/llmvis/internal/analysis"
	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

// SweepPeriod estimates, in seconds, how long one activation sweep through
// the model takes, from the spectrum of the mean activation trace.
type SweepPeriod struct {
	name  string
	trace []float64
	first float64
	last  float64
}

func NewSweepPeriod() *SweepPeriod {
	return &SweepPeriod{name: "sweep_period"}
}

func (s *SweepPeriod) Name() string { return s.name }

func (s *SweepPeriod) Observe(m *netsim.Model, t float64) {
	if len(s.trace) == 0 {
		s.first = t
	}
	s.last = t
	s.trace = append(s.trace, sim.Snapshot(m).Mean())
}

// Value is zero while the trace is too short or flat.
func (s *SweepPeriod) Value() float64 {
	n := len(s.trace)
	if n < 2 {
		return 0
	}
	period, ok := analysis.DominantPeriod(s.trace)
	if !ok {
		return 0
	}
	dt := (s.last - s.first) / float64(n-1)
	return period * dt
}

func (s *SweepPeriod) Reset() {
	s.trace = s.trace[:0]
	s.first, s.last = 0, 0
}
