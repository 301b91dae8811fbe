package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

func TestRender(t *testing.T) {
	m := netsim.NewModel(netsim.WithSeed(1))
	if err := m.InitializeFrom(netsim.DefaultDescription()); err != nil {
		t.Fatal(err)
	}
	r := NewLiveRenderer(&bytes.Buffer{}, m, 30)

	act := make(sim.Activations, m.LayerCount())
	act[0], act[1] = 1, 0.5
	out := r.Render(sim.Frame{Index: 3, Time: 0.05, Input: "Hello", ActiveLayer: 1, Activations: act})

	if !strings.Contains(out, "default") || !strings.Contains(out, `"Hello"`) {
		t.Error("header missing")
	}
	if got := strings.Count(out, "|"); got != 2*m.LayerCount() {
		t.Errorf("bars = %d, want %d", got/2, m.LayerCount())
	}
	if !strings.Contains(out, strings.Repeat("#", barWidth)+"| 100%") {
		t.Error("full bar missing")
	}
	if !strings.Contains(out, "> 1 ATTENTION") {
		t.Errorf("active marker missing:\n%s", out)
	}
}

func TestRateLimit(t *testing.T) {
	m := netsim.NewModel()
	if err := m.InitializeFrom(netsim.DefaultDescription()); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, m, 10)
	now := time.Unix(0, 0)
	r.now = func() time.Time { return now }

	r.OnFrame(sim.Frame{})
	first := buf.Len()
	now = now.Add(50 * time.Millisecond)
	r.OnFrame(sim.Frame{})
	if buf.Len() != first {
		t.Error("frame inside the rate limit should be skipped")
	}
	now = now.Add(60 * time.Millisecond)
	r.OnFrame(sim.Frame{})
	if buf.Len() == first {
		t.Error("frame after the interval should be drawn")
	}
}
