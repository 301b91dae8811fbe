package metrics

import "github.com/san-kum/llmvis/internal/sim"

// DefaultStabilityThreshold bounds layer outputs for the default stability
// metric.
const DefaultStabilityThreshold = 1e6

// Defaults returns a fresh set of the metrics recorded by headless runs.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewMeanActivation(),
		NewOutputEntropy(),
		NewAttentionEntropy(),
		NewSweepPeriod(),
		NewStability(DefaultStabilityThreshold),
	}
}
