package netsim_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/llmvis/internal/geom"
	"github.com/san-kum/llmvis/internal/netsim"
)

func smallDescription() netsim.Description {
	return netsim.Description{
		Name: "small",
		Layers: []netsim.LayerSpec{
			{Type: netsim.Embedding, Size: 16},
			{Type: netsim.Attention, Size: 16},
			{Type: netsim.FeedForward, Size: 32},
			{Type: netsim.Output, Size: 16},
		},
		Vocabulary:     netsim.DefaultVocabulary(),
		EmbeddingWidth: 16,
	}
}

var _ = Describe("Model", func() {
	var m *netsim.Model

	BeforeEach(func() {
		m = netsim.NewModel(netsim.WithSeed(11))
		Expect(m.InitializeFrom(netsim.DefaultDescription())).To(Succeed())
	})

	Describe("InitializeFrom", func() {
		It("builds the default architecture", func() {
			Expect(m.LayerCount()).To(Equal(18))
			first, _ := m.Layer(0)
			last, _ := m.Layer(m.LayerCount() - 1)
			Expect(first.Type()).To(Equal(netsim.Embedding))
			Expect(last.Type()).To(Equal(netsim.Output))
			Expect(last.Size()).To(Equal(50000))
			Expect(m.VocabularySize()).To(Equal(10))
			Expect(m.EmbeddingWidth()).To(Equal(512))
		})

		It("lays layers out along z with a drifting y offset", func() {
			Expect(m.InitializeFrom(smallDescription())).To(Succeed())
			want := []geom.Vec3{
				{X: 0, Y: 0, Z: 0},
				{X: 0, Y: 0, Z: 1.5},
				{X: 0, Y: 0.5, Z: 3.0},
				{X: 0, Y: 0.0, Z: 4.5},
			}
			for i, w := range want {
				l, ok := m.Layer(i)
				Expect(ok).To(BeTrue())
				Expect(l.Position().Sub(w).Length()).To(BeNumerically("<", 1e-12))
			}
		})

		It("rejects invalid descriptions and keeps the current layers", func() {
			bad := []netsim.Description{
				{},
				{Layers: []netsim.LayerSpec{{Type: netsim.Attention, Size: 12}}},
				{Layers: []netsim.LayerSpec{{Type: netsim.Output, Size: 0}}},
				{Layers: []netsim.LayerSpec{{Type: netsim.LayerType(42), Size: 8}}},
				{Layers: []netsim.LayerSpec{{Type: netsim.Output, Size: 8}}, EmbeddingWidth: -1},
			}
			for _, d := range bad {
				err := m.InitializeFrom(d)
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, netsim.ErrInvalidDescription)).To(BeTrue())
				Expect(m.LayerCount()).To(Equal(18))
			}
		})

		It("defaults the embedding width to the first layer's size", func() {
			d := smallDescription()
			d.EmbeddingWidth = 0
			Expect(m.InitializeFrom(d)).To(Succeed())
			Expect(m.EmbeddingWidth()).To(Equal(16))
		})
	})

	Describe("Tokenize", func() {
		It("maps known tokens in order", func() {
			Expect(m.Tokenize("Hello world")).To(Equal([]int{1, 2}))
		})

		It("drops unknown tokens and keeps order", func() {
			Expect(m.Tokenize("Hello zzz world")).To(Equal([]int{1, 2}))
		})

		It("includes the trailing token", func() {
			Expect(m.Tokenize("AI is cool")).To(Equal([]int{3, 6, 7}))
		})

		It("returns no ids for unknown text", func() {
			Expect(m.Tokenize("")).To(BeEmpty())
			Expect(m.Tokenize("nothing here")).To(BeEmpty())
		})
	})

	Describe("ProcessInput", func() {
		It("embeds, feeds the first layer and propagates", func() {
			m.ProcessInput("Hello world")
			Expect(m.CurrentInput()).To(Equal("Hello world"))
			Expect(m.TokenIDs()).To(Equal([]int{1, 2}))
			Expect(m.Embedding()).To(HaveLen(512))

			first, _ := m.Layer(0)
			Expect(first.Output()).To(Equal(m.Embedding()))

			last, _ := m.Layer(m.LayerCount() - 1)
			Expect(sum(last.Output())).To(BeNumerically("~", 1, 1e-9))
		})

		It("still embeds a prompt with no recognized tokens", func() {
			m.ProcessInput("zzz qqq")
			Expect(m.TokenIDs()).To(BeEmpty())
			emb := m.Embedding()
			Expect(emb).To(HaveLen(512))
			for _, v := range emb {
				Expect(v).To(And(BeNumerically(">=", -1), BeNumerically("<", 1)))
			}
		})

		It("makes embeddings depend on the tokens", func() {
			m.ProcessInput("Hello world")
			a := m.Embedding()
			m.ProcessInput("AI model")
			Expect(m.Embedding()).NotTo(Equal(a))
		})

		It("resets the step counter", func() {
			m.ProcessInput("Hello")
			m.Update(0.1)
			m.Update(0.1)
			Expect(m.Step()).To(Equal(2))
			m.ProcessInput("world")
			Expect(m.Step()).To(Equal(0))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			Expect(m.InitializeFrom(smallDescription())).To(Succeed())
		})

		It("does not sweep without input", func() {
			m.Update(1)
			Expect(m.Step()).To(Equal(0))
			Expect(m.CurrentActivation()).To(Equal("idle"))
		})

		It("does not sweep when flow animation is off", func() {
			m.SetAnimateDataFlow(false)
			m.ProcessInput("Hello")
			m.Update(1)
			Expect(m.Step()).To(Equal(0))
		})

		It("sweeps activation from the first layer to the last", func() {
			m.ProcessInput("Hello")
			for i := 0; i < 16; i++ {
				m.Update(1)
			}
			Expect(m.Step()).To(Equal(16))
			want := []float64{1, 0.5, 0, 0}
			for i, w := range want {
				l, _ := m.Layer(i)
				Expect(l.Activation()).To(BeNumerically("~", w, 1e-9))
			}
			idx, p, ok := m.ActiveLayer()
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(1))
			Expect(p).To(BeNumerically("~", 0.5, 1e-9))
			Expect(m.CurrentActivation()).To(ContainSubstring("ATTENTION"))
		})

		It("scales the sweep by the simulation speed", func() {
			m.SetSimulationSpeed(2)
			m.ProcessInput("Hello")
			for i := 0; i < 11; i++ {
				m.Update(1)
			}
			// step 10 * dt 1 * speed 2 = 20 of 40 -> halfway, layer 2 at 0
			l1, _ := m.Layer(1)
			l2, _ := m.Layer(2)
			Expect(l1.Activation()).To(Equal(1.0))
			Expect(l2.Activation()).To(BeNumerically("~", 0, 1e-9))
		})

		It("restarts the sweep for a new prompt", func() {
			m.ProcessInput("Hello")
			for i := 0; i < 16; i++ {
				m.Update(1)
			}
			m.ProcessInput("world")
			_, _, ok := m.ActiveLayer()
			Expect(ok).To(BeFalse())
			for _, l := range m.Layers() {
				Expect(l.Activation()).To(Equal(0.0))
			}
			Expect(m.CurrentActivation()).To(Equal("idle"))
		})
	})

	Describe("highlighting", func() {
		It("highlights exactly one layer", func() {
			m.HighlightLayer(3)
			m.HighlightLayer(5)
			for i, l := range m.Layers() {
				Expect(l.Highlighted()).To(Equal(i == 5))
			}
		})

		It("ignores out-of-range layer indices", func() {
			m.HighlightLayer(2)
			for _, i := range []int{-1, m.LayerCount(), 1000} {
				Expect(func() { m.HighlightLayer(i) }).NotTo(Panic())
				_, ok := m.Layer(i)
				Expect(ok).To(BeFalse())
			}
			l, _ := m.Layer(2)
			Expect(l.Highlighted()).To(BeTrue())
		})

		It("highlights one head across all attention layers", func() {
			m.HighlightAttentionHead(1, 4)
			m.HighlightAttentionHead(5, 2)
			count := 0
			for li, l := range m.Layers() {
				for hi := 0; hi < l.AttentionHeadCount(); hi++ {
					h, _ := l.AttentionHead(hi)
					if h.Highlighted() {
						count++
						Expect(li).To(Equal(5))
						Expect(hi).To(Equal(2))
					}
				}
			}
			Expect(count).To(Equal(1))
		})

		It("ignores heads on non-attention layers", func() {
			Expect(func() {
				m.HighlightAttentionHead(0, 0)
				m.HighlightAttentionHead(1, 99)
				m.HighlightAttentionHead(-4, 0)
			}).NotTo(Panic())
		})

		It("clears all highlights", func() {
			m.HighlightLayer(1)
			m.HighlightAttentionHead(1, 1)
			m.ClearHighlights()
			for _, l := range m.Layers() {
				Expect(l.Highlighted()).To(BeFalse())
				for hi := 0; hi < l.AttentionHeadCount(); hi++ {
					h, _ := l.AttentionHead(hi)
					Expect(h.Highlighted()).To(BeFalse())
				}
			}
		})
	})
})

var _ = Describe("ParseLayerType", func() {
	DescribeTable("accepts names and aliases",
		func(in string, want netsim.LayerType) {
			got, err := netsim.ParseLayerType(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(got.String()).To(Equal(want.String()))
		},
		Entry("upper", "ATTENTION", netsim.Attention),
		Entry("lower", "embedding", netsim.Embedding),
		Entry("alias", "feed_forward", netsim.FeedForward),
		Entry("short", "norm", netsim.Normalization),
		Entry("spaced", " output ", netsim.Output),
	)

	It("rejects unknown names", func() {
		_, err := netsim.ParseLayerType("convolution")
		Expect(errors.Is(err, netsim.ErrUnknownLayerType)).To(BeTrue())
	})
})
