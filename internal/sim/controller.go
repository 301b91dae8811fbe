package sim

import (
	"errors"
	"log/slog"

	"github.com/san-kum/llmvis/internal/experiment"
	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/netsim"
)

var ErrNotImplemented = errors.New("not implemented")

// MaxStep bounds the controller's step counter.
const MaxStep = 100

type State int

const (
	Running State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "PAUSED"
	}
	return "RUNNING"
}

// Controller drives playback of a model it does not own. The model must
// outlive the controller.
//
// The controller's step counter is independent of the model's sweep step:
// StepForward and StepBackward move a bounded cursor for the UI and never
// touch the animation.
type Controller struct {
	model       *netsim.Model
	state       State
	speed       float64
	step        int
	elapsed     float64
	experiments *experiment.Registry
	logger      *slog.Logger
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithRegistry replaces the experiment registry. Defaults fill the IDs
// it does not already have.
func WithRegistry(r *experiment.Registry) Option { return func(c *Controller) { c.experiments = r } }

func New(model *netsim.Model, opts ...Option) *Controller {
	c := &Controller{
		model: model,
		state: Running,
		speed: 1.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.experiments == nil {
		c.experiments = experiment.NewRegistry(experiment.NewRandomSelector(model.Rand().Int63()))
	}
	experiment.RegisterDefaults(c.experiments)
	return c
}

// Update accumulates running time. The model updates itself.
func (c *Controller) Update(dt float64) {
	if c.state == Running {
		c.elapsed += dt * c.speed
	}
}

func (c *Controller) Pause() {
	c.state = Paused
	c.logger.Debug("simulation paused")
}

func (c *Controller) Resume() {
	c.state = Running
	c.logger.Debug("simulation resumed")
}

func (c *Controller) TogglePause() {
	if c.state == Paused {
		c.Resume()
		return
	}
	c.Pause()
}

func (c *Controller) IsPaused() bool   { return c.state == Paused }
func (c *Controller) State() State     { return c.state }
func (c *Controller) Step() int        { return c.step }
func (c *Controller) Speed() float64   { return c.speed }
func (c *Controller) Elapsed() float64 { return c.elapsed }

// SetSpeed stores the playback multiplier. speed should be > 0; other
// values are stored as given and their effect is unspecified.
func (c *Controller) SetSpeed(speed float64) {
	c.speed = speed
}

func (c *Controller) StepForward() {
	if c.step >= MaxStep {
		return
	}
	c.step++
	c.logger.Info("advancing to step", "step", c.step)
}

func (c *Controller) StepBackward() {
	if c.step <= 0 {
		return
	}
	c.step--
	c.logger.Info("going back to step", "step", c.step)
}

func (c *Controller) RegisterExperiment(id experiment.ID, fn experiment.Mutator) {
	c.experiments.Register(id, fn)
}

func (c *Controller) Experiments() *experiment.Registry { return c.experiments }

// RunExperiment runs a registered experiment. A missing registration is
// logged and returned wrapping experiment.ErrNotFound.
func (c *Controller) RunExperiment(id experiment.ID) error {
	if err := c.experiments.Run(id, c.model); err != nil {
		if errors.Is(err, experiment.ErrNotFound) {
			c.logger.Warn("experiment not found", "experiment", id.String())
		} else {
			c.logger.Error("experiment failed", "experiment", id.String(), "err", err)
		}
		return err
	}
	c.logger.Info("ran experiment", "experiment", id.String())
	return nil
}

func (c *Controller) InjectPrompt(text string) {
	c.logger.Info("injecting prompt", "prompt", text)
	c.model.ProcessInput(text)
}

func (c *Controller) SaveCurrentState(path string) error {
	c.logger.Debug("save requested", "path", path)
	return ErrNotImplemented
}

func (c *Controller) LoadState(path string) error {
	c.logger.Debug("load requested", "path", path)
	return ErrNotImplemented
}
