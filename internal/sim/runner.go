package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/llmvis/internal/netsim"
)

// Runner advances a controller and its model without a frontend, in the
// same order as the interactive loop: controller first, then the model
// unless paused.
type Runner struct {
	model     *netsim.Model
	ctrl      *Controller
	metrics   []Metric
	observers []Observer
	frame     int
	t         float64
}

func NewRunner(model *netsim.Model, ctrl *Controller) *Runner {
	return &Runner{
		model:     model,
		ctrl:      ctrl,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Model() *netsim.Model    { return r.model }
func (r *Runner) Controller() *Controller { return r.ctrl }
func (r *Runner) Time() float64           { return r.t }

// Frame runs one update and notifies metrics and observers.
func (r *Runner) Frame(dt float64) Frame {
	r.ctrl.Update(dt)
	paused := r.ctrl.IsPaused()
	if !paused {
		r.model.Update(dt)
	}

	active, _, ok := r.model.ActiveLayer()
	if !ok {
		active = -1
	}
	f := Frame{
		Index:       r.frame,
		Time:        r.t,
		Paused:      paused,
		Input:       r.model.CurrentInput(),
		ActiveLayer: active,
		Activations: Snapshot(r.model),
	}

	for _, m := range r.metrics {
		m.Observe(r.model, r.t)
	}
	for _, o := range r.observers {
		o.OnFrame(f)
	}

	r.frame++
	r.t += dt
	return f
}

// Run steps Duration/Dt frames and collects activations and metric values.
// On cancellation the partial result is returned with the context error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:       make([]float64, 0, steps),
		Activations: make([]Activations, 0, steps),
		Metrics:     make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.collect(result)
			return result, ctx.Err()
		default:
		}

		f := r.Frame(cfg.Dt)
		if !f.Activations.IsValid() {
			r.collect(result)
			return result, fmt.Errorf("invalid activation at frame %d", f.Index)
		}
		result.Times = append(result.Times, f.Time)
		result.Activations = append(result.Activations, f.Activations)
		result.Frames++
	}

	r.collect(result)
	return result, nil
}

// RunWithCallback steps frames until the duration elapses or fn returns false.
func (r *Runner) RunWithCallback(ctx context.Context, cfg Config, fn func(Frame) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	end := r.t + cfg.Duration
	for r.t < end {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !fn(r.Frame(cfg.Dt)) {
			return nil
		}
	}
	return nil
}

func (r *Runner) collect(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
