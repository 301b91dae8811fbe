package app

import (
	"log/slog"

	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/sim"
)

// RunnerFactory builds headless runners from cfg with the seed replaced.
// The configured prompt is not injected; callers decide when to send it.
func RunnerFactory(cfg *config.Config, logger *slog.Logger, withMetrics func() []sim.Metric) sim.Factory {
	return func(seed int64) (*sim.Runner, error) {
		c := *cfg
		c.Seed = seed
		c.Prompt = ""
		s, err := NewSession(&c, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		r := sim.NewRunner(s.Model, s.Controller)
		if withMetrics != nil {
			for _, m := range withMetrics() {
				r.AddMetric(m)
			}
		}
		return r, nil
	}
}
