package metrics

import (
	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

// MeanActivation averages the per-layer activation progress over all frames.
type MeanActivation struct {
	name    string
	total   float64
	samples int
}

func NewMeanActivation() *MeanActivation {
	return &MeanActivation{name: "mean_activation"}
}

func (a *MeanActivation) Name() string { return a.name }

func (a *MeanActivation) Observe(m *netsim.Model, t float64) {
	a.total += sim.Snapshot(m).Mean()
	a.samples++
}

func (a *MeanActivation) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.total / float64(a.samples)
}

func (a *MeanActivation) Reset() {
	a.total = 0
	a.samples = 0
}
