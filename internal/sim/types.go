package sim

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/llmvis/internal/netsim"
)

// Activations holds one activation progress value per layer.
type Activations []float64

func (a Activations) Clone() Activations {
	c := make(Activations, len(a))
	copy(c, a)
	return c
}

func (a Activations) IsValid() bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (a Activations) Mean() float64 {
	if len(a) == 0 {
		return 0
	}
	return stat.Mean(a, nil)
}

// Completed counts layers the sweep has fully passed.
func (a Activations) Completed() int {
	n := 0
	for _, v := range a {
		if v >= 1 {
			n++
		}
	}
	return n
}

// Snapshot reads the per-layer activation progress of m.
func Snapshot(m *netsim.Model) Activations {
	layers := m.Layers()
	a := make(Activations, len(layers))
	for i, l := range layers {
		a[i] = l.Activation()
	}
	return a
}

type Metric interface {
	Name() string
	Observe(m *netsim.Model, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

// Frame is what a headless run records after each update.
type Frame struct {
	Index       int
	Time        float64
	Paused      bool
	Input       string
	ActiveLayer int
	Activations Activations
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
}

type Result struct {
	Times       []float64
	Activations []Activations
	Metrics     map[string]float64
	Frames      int
}
