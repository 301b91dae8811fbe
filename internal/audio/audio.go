// Package audio sonifies the activation sweep: a soft pad whose filter opens
// with mean activation and whose voicing follows the active layer.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

const (
	SampleRate = 44100
	BufferSize = 1024

	baseCutoff  = 300.0
	cutoffRange = 900.0
	volume      = 0.25
)

// G2, Bb2, D3, F3, A3
var chord = []float64{98.00, 116.54, 146.83, 174.61, 220.00}

type Sonifier struct {
	stream *portaudio.Stream
	logger *slog.Logger

	mu         sync.Mutex
	activation float64
	layer      int
	sweeping   bool

	smooth float64
	time   float64
	filter [2]float64
	delay  [2][]float64
	head   int

	levels  [3]float64
	scratch []float64
	active  bool
}

func NewSonifier(logger *slog.Logger) *Sonifier {
	if logger == nil {
		logger = logging.Discard()
	}
	delayLen := int(float64(SampleRate) * 0.6)
	return &Sonifier{
		logger:  logger,
		delay:   [2][]float64{make([]float64, delayLen), make([]float64, delayLen)},
		scratch: make([]float64, BufferSize),
	}
}

// Start opens the default output device.
func (s *Sonifier) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("audio open: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("audio start: %w", err)
	}
	s.stream = stream
	s.active = true
	s.logger.Info("audio started", "rate", SampleRate, "buffer", BufferSize)
	return nil
}

func (s *Sonifier) Stop() {
	if !s.active {
		return
	}
	s.stream.Stop()
	s.stream.Close()
	portaudio.Terminate()
	s.active = false
	s.logger.Info("audio stopped")
}

func (s *Sonifier) Active() bool { return s.active }

// Observe reads the sweep state from m. It matches the session frame hook
// signature and is safe to call while the stream is running.
func (s *Sonifier) Observe(m *netsim.Model) {
	mean := sim.Snapshot(m).Mean()
	layer, _, ok := m.ActiveLayer()

	s.mu.Lock()
	s.activation = mean
	s.layer = layer
	s.sweeping = ok && m.CurrentInput() != ""
	s.mu.Unlock()
}

// Levels are smoothed low, mid and high band levels of the output in [0, 1].
func (s *Sonifier) Levels() (low, mid, high float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[0], s.levels[1], s.levels[2]
}

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4.0*math.Abs(p-0.5) - 1.0
}

// lpf is a one-pole low pass filter.
func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// Process is the stream callback. in is unused; out holds one slice per
// channel.
func (s *Sonifier) Process(_ []float32, out [][]float32) {
	s.mu.Lock()
	target, layer, sweeping := s.activation, s.layer, s.sweeping
	s.mu.Unlock()

	s.smooth = s.smooth*0.995 + target*0.005
	cutoff := baseCutoff + cutoffRange*math.Min(s.smooth, 1)
	dt := 1.0 / float64(SampleRate)
	lead := -1
	if sweeping {
		lead = layer % len(chord)
	}

	n := len(out[0])
	for i := 0; i < n; i++ {
		var l, r float64
		for j, f := range chord {
			g := 1.0 / float64(len(chord))
			if j == lead {
				g *= 2
			}
			lfo := math.Sin(s.time*0.2 + float64(j))
			l += triangle(s.time*f*0.999) * g * (0.7 + 0.3*lfo)
			r += triangle(s.time*f*1.001) * g * (0.7 + 0.3*lfo)
		}

		s.filter[0] = lpf(l, cutoff, dt, s.filter[0])
		s.filter[1] = lpf(r, cutoff, dt, s.filter[1])

		dl, dr := s.delay[0][s.head], s.delay[1][s.head]
		mixL := s.filter[0] + dl*0.3 + dr*0.1
		mixR := s.filter[1] + dr*0.3 + dl*0.1
		s.delay[0][s.head] = mixL * 0.7
		s.delay[1][s.head] = mixR * 0.7
		s.head = (s.head + 1) % len(s.delay[0])

		out[0][i] = float32(mixL * volume)
		if len(out) > 1 {
			out[1][i] = float32(mixR * volume)
		}
		if i < len(s.scratch) {
			s.scratch[i] = mixL * volume
		}
		s.time += dt
	}
	s.analyze(min(n, len(s.scratch)))
}

// analyze buckets the spectrum of the last output block into three bands.
func (s *Sonifier) analyze(n int) {
	if n < 8 {
		return
	}
	buf := make([]float64, n)
	for i := range buf {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		buf[i] = s.scratch[i] * window
	}
	spectrum := fft.FFTReal(buf)

	binHz := float64(SampleRate) / float64(n)
	var bands [3]float64
	for i := 1; i < n/2; i++ {
		mag := cmplx.Abs(spectrum[i]) / float64(n)
		switch f := float64(i) * binHz; {
		case f < 150:
			bands[0] += mag
		case f < 600:
			bands[1] += mag
		default:
			bands[2] += mag
		}
	}

	s.mu.Lock()
	for i, b := range bands {
		s.levels[i] = s.levels[i]*0.9 + math.Min(b*4, 1)*0.1
	}
	s.mu.Unlock()
}
