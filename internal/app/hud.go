package app

import (
	"fmt"

	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

const (
	hudMargin     = 10.0
	hudLineHeight = 20.0
	hudTextScale  = 1.0
)

var (
	hudBackground = netsim.Color{R: 0, G: 0, B: 0, A: 0.6}
	hudText       = netsim.White
	hudAccent     = netsim.Color{R: 1, G: 0.85, B: 0.3, A: 1}
)

// Status is the one-line summary shown in the HUD and the TUI status bar.
func (s *Session) Status() string {
	return fmt.Sprintf("%s | %s | step %d/%d | speed %.2fx | %s",
		s.Model.Name(),
		s.Controller.State(),
		s.Controller.Step(), sim.MaxStep,
		s.Controller.Speed(),
		s.Model.CurrentActivation(),
	)
}

// HUDLines returns the overlay text in draw order.
func (s *Session) HUDLines() []string {
	lines := []string{s.Status()}
	if in := s.Model.CurrentInput(); in != "" {
		lines = append(lines, "input: "+in)
	}
	if sel := s.selection; sel != nil {
		if sel.Head >= 0 {
			lines = append(lines, fmt.Sprintf("selected: layer %d head %d", sel.Layer, sel.Head))
		} else {
			lines = append(lines, fmt.Sprintf("selected: layer %d", sel.Layer))
		}
	}
	if !s.showHelp {
		lines = append(lines, "h for help")
	}
	return lines
}

// Render draws the model followed by the HUD and, when toggled, the help
// overlay.
func (s *Session) Render(r netsim.Renderer, width, height int) {
	s.Model.Render(r)

	lines := s.HUDLines()
	r.RenderRect(0, 0, float64(width), hudMargin*2+hudLineHeight*float64(len(lines)), hudBackground)
	for i, line := range lines {
		c := hudText
		if i == 0 {
			c = hudAccent
		}
		r.RenderText(line, hudMargin, hudMargin+hudLineHeight*float64(i), hudTextScale, c)
	}

	if !s.showHelp {
		return
	}
	h := hudMargin*2 + hudLineHeight*float64(len(HelpLines))
	top := float64(height) - h
	r.RenderRect(0, top, float64(width), h, hudBackground)
	for i, line := range HelpLines {
		r.RenderText(line, hudMargin, top+hudMargin+hudLineHeight*float64(i), hudTextScale, hudText)
	}
}
