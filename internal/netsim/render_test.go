package netsim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/llmvis/internal/geom"
	"github.com/san-kum/llmvis/internal/netsim"
)

type neuronCall struct {
	pos   geom.Vec3
	size  float64
	color netsim.Color
}

type recorder struct {
	panels      []*netsim.Layer
	neurons     []neuronCall
	connections int
	flows       []float64
	texts       []string
	rects       int
}

func (r *recorder) RenderPanel(l *netsim.Layer, _ netsim.Color) { r.panels = append(r.panels, l) }
func (r *recorder) RenderNeuron(p geom.Vec3, s float64, c netsim.Color) {
	r.neurons = append(r.neurons, neuronCall{p, s, c})
}
func (r *recorder) RenderConnection(_, _ geom.Vec3, _ float64, _ netsim.Color) { r.connections++ }
func (r *recorder) RenderDataFlow(_, _ geom.Vec3, p float64, _ netsim.Color) {
	r.flows = append(r.flows, p)
}
func (r *recorder) RenderText(t string, _, _, _ float64, _ netsim.Color) { r.texts = append(r.texts, t) }
func (r *recorder) RenderRect(_, _, _, _ float64, _ netsim.Color)       { r.rects++ }

var _ = Describe("Render", func() {
	var m *netsim.Model

	BeforeEach(func() {
		m = netsim.NewModel(netsim.WithSeed(5))
		Expect(m.InitializeFrom(netsim.DefaultDescription())).To(Succeed())
	})

	It("requests one primitive set per layer type", func() {
		r := &recorder{}
		m.Render(r)
		// 1 embedding + 8 normalization + 1 output
		Expect(r.panels).To(HaveLen(10))
		// 4 attention layers x 8 heads + 4 feedforward layers x 100 neurons
		Expect(r.neurons).To(HaveLen(4*8 + 4*100))
		Expect(r.connections).To(Equal(4 * 7))
		Expect(r.flows).To(BeEmpty())
	})

	It("places heads on a unit circle around the layer", func() {
		l, _ := m.Layer(1)
		r := &recorder{}
		l.Render(r)
		Expect(r.neurons).To(HaveLen(8))
		for i, n := range r.neurons {
			angle := 2 * math.Pi * float64(i) / 8
			want := l.Position().Add(geom.Vec3{X: math.Cos(angle), Y: math.Sin(angle)})
			Expect(n.pos.Sub(want).Length()).To(BeNumerically("<", 1e-9))
			Expect(n.size).To(Equal(0.2))
		}
	})

	It("renders highlighted heads white", func() {
		m.HighlightAttentionHead(1, 3)
		l, _ := m.Layer(1)
		r := &recorder{}
		l.Render(r)
		Expect(r.neurons[3].color).To(Equal(netsim.White))
		Expect(r.neurons[2].color).NotTo(Equal(netsim.White))
	})

	It("caps feedforward neurons at 100 and handles small layers", func() {
		big := netsim.NewLayer(netsim.FeedForward, 5000, m.Rand(), nil)
		r := &recorder{}
		big.Render(r)
		Expect(r.neurons).To(HaveLen(100))

		small := netsim.NewLayer(netsim.FeedForward, 10, m.Rand(), nil)
		r = &recorder{}
		small.Render(r)
		Expect(r.neurons).To(HaveLen(10))
	})

	It("draws a data-flow marker while the sweep is active", func() {
		m.ProcessInput("Hello world")
		for i := 0; i < 5; i++ {
			m.Update(1)
		}
		r := &recorder{}
		m.Render(r)
		Expect(r.flows).To(HaveLen(1))
		Expect(r.flows[0]).To(And(BeNumerically(">=", 0), BeNumerically("<=", 1)))
	})

	It("draws no marker once flow animation is off", func() {
		m.ProcessInput("Hello world")
		for i := 0; i < 100; i++ {
			m.Update(1)
		}
		m.SetAnimateDataFlow(false)
		r := &recorder{}
		m.Render(r)
		Expect(r.flows).To(BeEmpty())
	})

	It("draws no marker for a prompt that has not started moving", func() {
		m.ProcessInput("Hello world")
		for i := 0; i < 100; i++ {
			m.Update(1)
		}
		m.ProcessInput("Hello")
		r := &recorder{}
		m.Render(r)
		Expect(r.flows).To(BeEmpty())
		Expect(m.CurrentActivation()).To(Equal("idle"))
	})
})

var _ = Describe("Pick", func() {
	var m *netsim.Model

	BeforeEach(func() {
		m = netsim.NewModel(netsim.WithSeed(5))
		Expect(m.InitializeFrom(netsim.DefaultDescription())).To(Succeed())
	})

	It("picks the nearest layer along the ray", func() {
		sel, ok := m.Pick(geom.Vec3{Z: -5}, geom.Vec3{Z: 1})
		Expect(ok).To(BeTrue())
		Expect(sel.Layer).To(Equal(0))
		Expect(sel.Head).To(Equal(-1))
		Expect(sel.Distance).To(BeNumerically("~", 4.4, 1e-9))
	})

	It("picks attention heads", func() {
		sel, ok := m.Pick(geom.Vec3{X: 1, Z: -5}, geom.Vec3{Z: 1})
		Expect(ok).To(BeTrue())
		Expect(sel.Layer).To(Equal(1))
		Expect(sel.Head).To(Equal(0))

		sel.Apply(m)
		l, _ := m.Layer(1)
		h, _ := l.AttentionHead(0)
		Expect(h.Highlighted()).To(BeTrue())
	})

	It("misses when nothing is in front of the ray", func() {
		_, ok := m.Pick(geom.Vec3{Z: -5}, geom.Vec3{Z: -1})
		Expect(ok).To(BeFalse())
		_, ok = m.Pick(geom.Vec3{X: 50}, geom.Vec3{Z: 1})
		Expect(ok).To(BeFalse())
		_, ok = m.Pick(geom.Vec3{}, geom.Vec3{})
		Expect(ok).To(BeFalse())
	})
})
