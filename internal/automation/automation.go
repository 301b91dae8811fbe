package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/llmvis/internal/experiment"
	"github.com/san-kum/llmvis/internal/metrics"
	"github.com/san-kum/llmvis/internal/sim"
)

const defaultDt = 1.0 / 60.0

// Scenario scripts a headless session: prompts, experiments and playback
// controls interleaved with frame runs.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Dt          float64 `yaml:"dt"`
	Steps       []Step  `yaml:"steps"`
}

// Step is one scripted action. Which fields matter depends on Action:
//
//	prompt          text
//	experiment      experiment
//	pause, resume, clear, step_forward, step_backward
//	speed           value
//	highlight_layer layer
//	highlight_head  layer, head
//	run             frames or duration
type Step struct {
	Action     string  `yaml:"action"`
	Text       string  `yaml:"text,omitempty"`
	Experiment string  `yaml:"experiment,omitempty"`
	Value      float64 `yaml:"value,omitempty"`
	Layer      int     `yaml:"layer,omitempty"`
	Head       int     `yaml:"head,omitempty"`
	Frames     int     `yaml:"frames,omitempty"`
	Duration   float64 `yaml:"duration,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &scenario, nil
}

func (s Step) validate() error {
	switch s.action() {
	case "prompt", "pause", "resume", "clear", "step_forward", "step_backward", "highlight_layer", "highlight_head":
		return nil
	case "experiment":
		_, err := experiment.ParseID(s.Experiment)
		return err
	case "speed":
		if s.Value <= 0 {
			return fmt.Errorf("speed must be positive, got %f", s.Value)
		}
		return nil
	case "run":
		if s.Frames <= 0 && s.Duration <= 0 {
			return fmt.Errorf("run needs frames or duration")
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
}

func (s Step) action() string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s.Action), "-", "_"))
}

// Result summarizes a scenario run.
type Result struct {
	Frames      []sim.Frame
	Experiments int
	Failures    int
}

// RunScenario applies each step to the runner's controller and model. A
// failed experiment is logged and counted; it does not stop the scenario.
func RunScenario(ctx context.Context, scenario *Scenario, r *sim.Runner, logger *slog.Logger) (*Result, error) {
	dt := scenario.Dt
	if dt <= 0 {
		dt = defaultDt
	}
	ctrl := r.Controller()
	model := r.Model()
	result := &Result{}

	for i, step := range scenario.Steps {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		logger.Debug("scenario step", "index", i+1, "action", step.action())

		switch step.action() {
		case "prompt":
			ctrl.InjectPrompt(step.Text)
		case "experiment":
			id, err := experiment.ParseID(step.Experiment)
			if err != nil {
				return result, fmt.Errorf("step %d: %w", i+1, err)
			}
			result.Experiments++
			if err := ctrl.RunExperiment(id); err != nil {
				result.Failures++
			}
		case "pause":
			ctrl.Pause()
		case "resume":
			ctrl.Resume()
		case "clear":
			model.ClearHighlights()
		case "step_forward":
			ctrl.StepForward()
		case "step_backward":
			ctrl.StepBackward()
		case "speed":
			ctrl.SetSpeed(step.Value)
			model.SetSimulationSpeed(step.Value)
		case "highlight_layer":
			model.HighlightLayer(step.Layer)
		case "highlight_head":
			model.HighlightAttentionHead(step.Layer, step.Head)
		case "run":
			frames := step.Frames
			if frames <= 0 {
				frames = int(step.Duration / dt)
			}
			for n := 0; n < frames; n++ {
				if err := ctx.Err(); err != nil {
					return result, err
				}
				result.Frames = append(result.Frames, r.Frame(dt))
			}
		default:
			return result, fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
	}

	return result, nil
}

// SpeedSweep runs the same prompt at evenly spaced speeds.
type SpeedSweep struct {
	Prompt   string
	MinSpeed float64
	MaxSpeed float64
	NumSteps int
	Duration float64
	Dt       float64
	Seed     int64
}

type SweepResult struct {
	Speed          float64
	Period         float64
	MeanActivation float64
}

func RunSweep(ctx context.Context, sweep *SpeedSweep, factory sim.Factory, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.MaxSpeed - sweep.MinSpeed) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		speed := sweep.MinSpeed + float64(i)*step
		if speed <= 0 {
			return nil, fmt.Errorf("sweep speed must be positive, got %f", speed)
		}

		r, err := factory(sweep.Seed)
		if err != nil {
			return nil, err
		}
		period := metrics.NewSweepPeriod()
		mean := metrics.NewMeanActivation()
		r.AddMetric(period)
		r.AddMetric(mean)

		r.Controller().SetSpeed(speed)
		r.Model().SetSimulationSpeed(speed)
		r.Controller().InjectPrompt(sweep.Prompt)

		res, err := r.Run(ctx, sim.Config{Dt: sweep.Dt, Duration: sweep.Duration, Seed: sweep.Seed})
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			Speed:          speed,
			Period:         res.Metrics[period.Name()],
			MeanActivation: res.Metrics[mean.Name()],
		})
		logger.Info("sweep point", "index", i+1, "of", sweep.NumSteps, "speed", speed)
	}

	return results, nil
}

// TrialConfig runs one prompt across consecutive seeds.
type TrialConfig struct {
	Prompt    string
	NumTrials int
	Duration  float64
	Dt        float64
	Seed      int64
	Threshold float64
}

type TrialResult struct {
	TrialID       int
	Seed          int64
	OutputEntropy float64
	Stable        bool
}

func RunTrials(ctx context.Context, cfg *TrialConfig, factory sim.Factory, logger *slog.Logger) ([]TrialResult, error) {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 1e6
	}
	results := make([]TrialResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		seed := cfg.Seed + int64(trial)
		r, err := factory(seed)
		if err != nil {
			return nil, err
		}
		entropy := metrics.NewOutputEntropy()
		stability := metrics.NewStability(threshold)
		r.AddMetric(entropy)
		r.AddMetric(stability)

		r.Controller().InjectPrompt(cfg.Prompt)
		res, err := r.Run(ctx, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: seed})
		if err != nil {
			return nil, err
		}

		results = append(results, TrialResult{
			TrialID:       trial,
			Seed:          seed,
			OutputEntropy: res.Metrics[entropy.Name()],
			Stable:        res.Metrics[stability.Name()] == 1,
		})

		if (trial+1)%10 == 0 {
			logger.Info("trials complete", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

func TrialStats(results []TrialResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
