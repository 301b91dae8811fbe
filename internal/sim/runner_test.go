package sim

import (
	"context"
	"testing"

	"github.com/san-kum/llmvis/internal/netsim"
)

type countMetric struct {
	count int
	sum   float64
}

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(m *netsim.Model, _ float64) {
	c.count++
	c.sum += Snapshot(m).Mean()
}
func (c *countMetric) Value() float64 { return float64(c.count) }
func (c *countMetric) Reset()         { c.count, c.sum = 0, 0 }

func TestRunnerRun(t *testing.T) {
	m := newModel(t)
	c := New(m)
	r := NewRunner(m, c)
	metric := &countMetric{}
	r.AddMetric(metric)

	c.InjectPrompt("Hello world")
	result, err := r.Run(context.Background(), Config{Dt: 1, Duration: 20})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Frames != 20 || len(result.Activations) != 20 || len(result.Times) != 20 {
		t.Errorf("frames = %d, activations = %d", result.Frames, len(result.Activations))
	}
	if result.Metrics["count"] != 20 {
		t.Errorf("metric = %v, want 20", result.Metrics["count"])
	}
	if m.Step() != 20 {
		t.Errorf("model step = %d, want 20", m.Step())
	}
	last := result.Activations[len(result.Activations)-1]
	if len(last) != m.LayerCount() {
		t.Errorf("snapshot has %d values, want %d", len(last), m.LayerCount())
	}
}

func TestRunnerPausedSkipsModel(t *testing.T) {
	m := newModel(t)
	c := New(m)
	r := NewRunner(m, c)
	c.InjectPrompt("Hello world")
	c.Pause()

	var frames []Frame
	r.AddObserver(ObserverFunc(func(f Frame) { frames = append(frames, f) }))
	for i := 0; i < 5; i++ {
		r.Frame(1)
	}
	if m.Step() != 0 {
		t.Errorf("model advanced while paused: %d", m.Step())
	}
	if len(frames) != 5 || !frames[0].Paused || frames[0].ActiveLayer != -1 {
		t.Errorf("unexpected frames %+v", frames)
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	m := newModel(t)
	r := NewRunner(m, New(m))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}},
		{"negative dt", Config{Dt: -0.1, Duration: 1}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Run(context.Background(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRunnerCancel(t *testing.T) {
	m := newModel(t)
	r := NewRunner(m, New(m))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, Config{Dt: 1, Duration: 10})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result == nil || result.Frames != 0 {
		t.Errorf("unexpected partial result %+v", result)
	}
}

func TestRunnerCallbackStops(t *testing.T) {
	m := newModel(t)
	r := NewRunner(m, New(m))
	n := 0
	err := r.RunWithCallback(context.Background(), Config{Dt: 1, Duration: 100}, func(Frame) bool {
		n++
		return n < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("callback ran %d times, want 3", n)
	}
}

func TestEnsemble(t *testing.T) {
	factory := func(seed int64) (*Runner, error) {
		m := netsim.NewModel(netsim.WithSeed(seed))
		if err := m.InitializeFrom(netsim.DefaultDescription()); err != nil {
			return nil, err
		}
		return NewRunner(m, New(m)), nil
	}
	results, err := NewEnsemble(factory, 3, 10).Run(context.Background(), Config{Dt: 1, Duration: 5}, "Hello world")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res.Frames != 5 {
			t.Errorf("run %d: %d frames", i, res.Frames)
		}
	}
}
