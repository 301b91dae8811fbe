package netsim_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/llmvis/internal/netsim"
)

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

var _ = Describe("Layer", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
	})

	Describe("construction", func() {
		It("gives attention layers eight heads of size/8 dimensions", func() {
			l := netsim.NewLayer(netsim.Attention, 512, rng, nil)
			Expect(l.AttentionHeadCount()).To(Equal(netsim.HeadsPerLayer))
			for i := 0; i < l.AttentionHeadCount(); i++ {
				h, ok := l.AttentionHead(i)
				Expect(ok).To(BeTrue())
				Expect(h.Dimensions()).To(Equal(64))
				Expect(h.ID()).To(Equal(i))
			}
		})

		DescribeTable("gives other layer types no heads",
			func(t netsim.LayerType) {
				l := netsim.NewLayer(t, 64, rng, nil)
				Expect(l.AttentionHeadCount()).To(Equal(0))
				_, ok := l.AttentionHead(0)
				Expect(ok).To(BeFalse())
			},
			Entry("embedding", netsim.Embedding),
			Entry("feedforward", netsim.FeedForward),
			Entry("normalization", netsim.Normalization),
			Entry("output", netsim.Output),
		)
	})

	Describe("ProcessInput", func() {
		It("passes embeddings through unchanged", func() {
			l := netsim.NewLayer(netsim.Embedding, 4, rng, nil)
			l.ProcessInput([]float64{1, -2, 3})
			Expect(l.Output()).To(Equal([]float64{1, -2, 3}))
			Expect(l.Input()).To(Equal([]float64{1, -2, 3}))
		})

		It("emits the placeholder wave at the declared size for attention", func() {
			l := netsim.NewLayer(netsim.Attention, 16, rng, nil)
			l.ProcessInput([]float64{1, 2, 3})
			out := l.Output()
			Expect(out).To(HaveLen(16))
			for i, v := range out {
				Expect(v).To(BeNumerically("~", math.Sin(float64(i)*0.1)*0.5+0.5, 1e-12))
			}
		})

		It("rectifies feedforward input", func() {
			l := netsim.NewLayer(netsim.FeedForward, 2048, rng, nil)
			l.ProcessInput([]float64{-1, 0, 2.5, -0.1})
			Expect(l.Output()).To(Equal([]float64{0, 0, 2.5, 0}))
		})

		It("subtracts the mean for normalization", func() {
			l := netsim.NewLayer(netsim.Normalization, 3, rng, nil)
			l.ProcessInput([]float64{1, 2, 6})
			out := l.Output()
			Expect(out).To(HaveLen(3))
			Expect(out[0]).To(BeNumerically("~", -2, 1e-12))
			Expect(out[1]).To(BeNumerically("~", -1, 1e-12))
			Expect(out[2]).To(BeNumerically("~", 3, 1e-12))
		})

		It("maps an all-zero vector to all zeros under normalization", func() {
			l := netsim.NewLayer(netsim.Normalization, 8, rng, nil)
			l.ProcessInput(make([]float64, 8))
			Expect(l.Output()).To(Equal(make([]float64, 8)))
		})

		It("produces a probability distribution at the output layer", func() {
			l := netsim.NewLayer(netsim.Output, 50, rng, nil)
			for trial := 0; trial < 20; trial++ {
				in := make([]float64, 1+rng.Intn(60))
				for i := range in {
					in[i] = (rng.Float64() - 0.5) * 200
				}
				l.ProcessInput(in)
				out := l.Output()
				Expect(out).To(HaveLen(len(in)))
				for _, v := range out {
					Expect(v).To(BeNumerically(">=", 0))
				}
				Expect(sum(out)).To(BeNumerically("~", 1, 1e-9))
			}
		})

		DescribeTable("guards empty input",
			func(t netsim.LayerType) {
				l := netsim.NewLayer(t, 8, rng, nil)
				Expect(func() { l.ProcessInput(nil) }).NotTo(Panic())
				Expect(l.Output()).To(BeEmpty())
			},
			Entry("normalization", netsim.Normalization),
			Entry("output", netsim.Output),
			Entry("feedforward", netsim.FeedForward),
			Entry("embedding", netsim.Embedding),
		)

		It("runs every head's attention on attention input", func() {
			l := netsim.NewLayer(netsim.Attention, 64, rng, nil)
			l.ProcessInput(make([]float64, 64))
			for i := 0; i < l.AttentionHeadCount(); i++ {
				h, _ := l.AttentionHead(i)
				Expect(h.SequenceLength()).To(Equal(8))
			}
		})
	})

	Describe("HighlightAttentionHead", func() {
		It("leaves exactly the target head highlighted", func() {
			l := netsim.NewLayer(netsim.Attention, 64, rng, nil)
			l.HighlightAttentionHead(2)
			l.HighlightAttentionHead(5)
			for i := 0; i < l.AttentionHeadCount(); i++ {
				h, _ := l.AttentionHead(i)
				Expect(h.Highlighted()).To(Equal(i == 5))
			}
		})

		It("ignores out-of-range indices", func() {
			l := netsim.NewLayer(netsim.Attention, 64, rng, nil)
			l.HighlightAttentionHead(3)
			l.HighlightAttentionHead(8)
			l.HighlightAttentionHead(-1)
			h, _ := l.AttentionHead(3)
			Expect(h.Highlighted()).To(BeTrue())
		})

		It("is a no-op on non-attention layers", func() {
			l := netsim.NewLayer(netsim.FeedForward, 64, rng, nil)
			Expect(func() { l.HighlightAttentionHead(0) }).NotTo(Panic())
		})
	})

	Describe("activation", func() {
		It("clamps to [0, 1]", func() {
			l := netsim.NewLayer(netsim.Output, 4, rng, nil)
			l.SetActivation(1.7)
			Expect(l.Activation()).To(Equal(1.0))
			l.SetActivation(-3)
			Expect(l.Activation()).To(Equal(0.0))
			l.SetActivation(math.NaN())
			Expect(l.Activation()).To(Equal(0.0))
		})

		It("blends display alpha from 0.3 to 1.0", func() {
			l := netsim.NewLayer(netsim.Embedding, 4, rng, nil)
			Expect(l.DisplayColor().A).To(BeNumerically("~", 0.3, 1e-12))
			l.SetActivation(1)
			Expect(l.DisplayColor().A).To(BeNumerically("~", 1.0, 1e-12))
			l.Highlight(true)
			c := l.DisplayColor()
			Expect([]float64{c.R, c.G, c.B}).To(Equal([]float64{1, 1, 1}))
		})
	})
})
