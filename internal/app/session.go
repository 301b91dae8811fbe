// Package app ties the model, controller and camera into one session and
// runs the per-frame order shared by every frontend: input, update, render.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/san-kum/llmvis/internal/camera"
	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/geom"
	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

var ErrInit = errors.New("initialization failed")

// FrameHook runs after each update with the session's model.
type FrameHook func(m *netsim.Model)

type Session struct {
	Model      *netsim.Model
	Controller *sim.Controller
	Camera     *camera.Camera

	logger    *slog.Logger
	events    *logging.EventLog
	hooks     []FrameHook
	selection *netsim.Selection
	showHelp  bool
	quit      bool
	frames    int
	lastErr   error
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option        { return func(s *Session) { s.logger = l } }
func WithEventLog(e *logging.EventLog) Option { return func(s *Session) { s.events = e } }
func WithFrameHook(h FrameHook) Option        { return func(s *Session) { s.hooks = append(s.hooks, h) } }

// NewSession builds the model from cfg and wires the controller and camera
// to it. A description that cannot be used falls back to the default one.
func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	modelOpts, err := cfg.ModelOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	model := netsim.NewModel(modelOpts...)

	desc := cfg.ResolveDescription(s.logger)
	if err := model.InitializeFrom(desc); err != nil {
		s.logger.Warn("model description rejected, using default", "model", desc.Name, "err", err)
		if err := model.InitializeFrom(netsim.DefaultDescription()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInit, err)
		}
	}

	s.Model = model
	s.Controller = sim.New(model, sim.WithLogger(s.logger))
	s.Camera = newCamera(cfg.Camera, model)
	s.SetSpeed(cfg.Speed)

	s.logger.Info("session ready", "model", model.Name(), "layers", model.LayerCount())
	if cfg.Prompt != "" {
		s.InjectPrompt(cfg.Prompt)
	}
	return s, nil
}

func newCamera(cc config.CameraConfig, m *netsim.Model) *camera.Camera {
	pos := geom.Vec3{X: cc.Position[0], Y: cc.Position[1], Z: cc.Position[2]}
	if cc.AutoFrame && m.LayerCount() > 0 {
		last, _ := m.Layer(m.LayerCount() - 1)
		pos = geom.Vec3{X: 0, Y: 0.5, Z: last.Position().Z + 5}
	}
	c := camera.New(pos)
	if cc.Speed > 0 {
		c.MovementSpeed = cc.Speed
	}
	if cc.Sensitivity > 0 {
		c.MouseSensitivity = cc.Sensitivity
	}
	return c
}

// SetSpeed keeps the controller and the model sweep at the same multiplier.
// Non-positive values are ignored.
func (s *Session) SetSpeed(v float64) {
	if v <= 0 {
		return
	}
	s.Controller.SetSpeed(v)
	s.Model.SetSimulationSpeed(v)
}

func (s *Session) InjectPrompt(text string) {
	s.Controller.InjectPrompt(text)
	s.events.Log("prompt", map[string]any{"text": text, "tokens": s.Model.TokenIDs()})
}

func (s *Session) Done() bool                   { return s.quit }
func (s *Session) ShowHelp() bool               { return s.showHelp }
func (s *Session) Frames() int                  { return s.frames }
func (s *Session) LastError() error             { return s.lastErr }
func (s *Session) Selection() *netsim.Selection { return s.selection }

// Frame runs input handling, update and, when r is non-nil, rendering. A
// panic inside the frame is recovered, logged and returned as an error so
// the caller's loop can keep going or exit cleanly.
func (s *Session) Frame(in Input, dt float64, r netsim.Renderer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("frame %d: %v", s.frames, rec)
			s.lastErr = err
			s.logger.Error("frame failed", "frame", s.frames, "panic", rec)
		}
		s.frames++
	}()

	s.HandleInput(in, dt)
	s.Update(dt)
	if r != nil {
		s.Render(r, in.Width, in.Height)
	}
	return nil
}

func (s *Session) HandleInput(in Input, dt float64) {
	for _, a := range in.Actions {
		s.apply(a)
	}
	for _, d := range in.Move {
		s.Camera.ProcessKeyboard(d, dt)
	}
	if in.LookDX != 0 || in.LookDY != 0 {
		s.Camera.ProcessMouseMovement(in.LookDX, in.LookDY, true)
	}
	if in.Scroll != 0 {
		s.Camera.ProcessMouseScroll(in.Scroll)
	}
	if in.Click != nil && in.Width > 0 && in.Height > 0 {
		s.pick(in.Click.X, in.Click.Y, in.Width, in.Height)
	}
	if p := strings.TrimSpace(in.Prompt); p != "" {
		s.InjectPrompt(p)
	}
	for _, id := range in.Experiments {
		err := s.Controller.RunExperiment(id)
		s.events.Log("experiment", map[string]any{"id": id.String(), "ok": err == nil})
	}
}

func (s *Session) apply(a Action) {
	switch a {
	case ActionTogglePause:
		s.Controller.TogglePause()
	case ActionStepForward:
		s.Controller.StepForward()
	case ActionStepBackward:
		s.Controller.StepBackward()
	case ActionSpeedUp:
		s.SetSpeed(s.Controller.Speed() * speedUpFactor)
	case ActionSpeedDown:
		s.SetSpeed(s.Controller.Speed() * speedDownFactor)
	case ActionToggleHelp:
		s.showHelp = !s.showHelp
	case ActionToggleFlow:
		s.Model.SetAnimateDataFlow(!s.Model.AnimateDataFlow())
	case ActionClearHighlights:
		s.Model.ClearHighlights()
		s.selection = nil
	case ActionQuit:
		s.quit = true
	}
}

func (s *Session) pick(x, y float64, w, h int) {
	dir := s.Camera.RayDirection(x, y, w, h)
	sel, ok := s.Model.Pick(s.Camera.Position, dir)
	if !ok {
		s.Model.ClearHighlights()
		s.selection = nil
		return
	}
	sel.Apply(s.Model)
	s.selection = &sel
	s.logger.Debug("picked", "layer", sel.Layer, "head", sel.Head)
	s.events.Log("pick", map[string]any{"layer": sel.Layer, "head": sel.Head})
}

// Update advances the camera and controller, and the model unless paused.
func (s *Session) Update(dt float64) {
	s.Camera.Update(dt)
	s.Controller.Update(dt)
	if !s.Controller.IsPaused() {
		s.Model.Update(dt)
	}
	for _, h := range s.hooks {
		h(s.Model)
	}
	s.logger.Log(context.Background(), logging.LevelTrace, "frame", "n", s.frames, "step", s.Model.Step())
}

func (s *Session) Close() {
	s.events.Close()
}
