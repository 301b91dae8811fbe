// Package tui prints a plain ANSI view of a headless run for terminals
// where the full Bubble Tea interface is not wanted.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

const (
	barWidth    = 40
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim.Observer that redraws one bar per layer at most
// frameRate times per second.
type LiveRenderer struct {
	w         io.Writer
	model     string
	labels    []string
	frameRate int
	lastFrame time.Time
	now       func() time.Time
}

var _ sim.Observer = (*LiveRenderer)(nil)

func NewLiveRenderer(w io.Writer, m *netsim.Model, frameRate int) *LiveRenderer {
	labels := make([]string, m.LayerCount())
	for i, l := range m.Layers() {
		labels[i] = fmt.Sprintf("%2d %-13s", i, l.Type())
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{w: w, model: m.Name(), labels: labels, frameRate: frameRate, now: time.Now}
}

func (r *LiveRenderer) OnFrame(f sim.Frame) {
	now := r.now()
	if !r.lastFrame.IsZero() && now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now
	fmt.Fprint(r.w, r.Render(f))
}

// Render formats a frame without the rate limit.
func (r *LiveRenderer) Render(f sim.Frame) string {
	var b strings.Builder
	b.WriteString(clearScreen)
	state := "RUNNING"
	if f.Paused {
		state = "PAUSED"
	}
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs  frame %d  %s\n", r.model, f.Time, f.Index, state))
	if f.Input != "" {
		b.WriteString(fmt.Sprintf("  input: %q\n", f.Input))
	}
	b.WriteString("  " + strings.Repeat("-", barWidth+20) + "\n")

	for i, v := range f.Activations {
		label := fmt.Sprintf("%2d", i)
		if i < len(r.labels) {
			label = r.labels[i]
		}
		n := max(0, min(barWidth, int(v*barWidth+0.5)))
		marker := " "
		if i == f.ActiveLayer && v < 1 {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("  %s%s |%s%s| %3.0f%%\n", marker, label,
			strings.Repeat("#", n), strings.Repeat(" ", barWidth-n), v*100))
	}
	b.WriteString("  " + strings.Repeat("-", barWidth+20) + "\n")
	return b.String()
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.w, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.w, showCursor) }
