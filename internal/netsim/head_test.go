package netsim_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/llmvis/internal/netsim"
)

type zeroScorer struct{}

func (zeroScorer) Score(_ *netsim.AttentionHead, _, _ []float64, scores [][]float64) {
	for i := range scores {
		for j := range scores[i] {
			scores[i][j] = 0
		}
	}
}

func expectRowStochastic(w [][]float64) {
	for _, row := range w {
		Expect(row).To(HaveLen(len(w)))
		var s float64
		for _, v := range row {
			Expect(v).To(BeNumerically(">=", 0))
			s += v
		}
		Expect(s).To(BeNumerically("~", 1, 1e-9))
	}
}

var _ = Describe("AttentionHead", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(3))
	})

	randomVec := func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		return v
	}

	It("infers the sequence length and row-normalizes random scores", func() {
		h := netsim.NewAttentionHead(0, 8, rng, nil)
		in := randomVec(40)
		h.ComputeAttention(in, in, in)
		Expect(h.SequenceLength()).To(Equal(5))
		expectRowStochastic(h.Weights())
		Expect(h.Output()).To(HaveLen(8))
	})

	It("resizes the weight matrix on every call", func() {
		h := netsim.NewAttentionHead(0, 4, rng, nil)
		in := randomVec(24)
		h.ComputeAttention(in, in, in)
		Expect(h.Weights()).To(HaveLen(6))

		short := randomVec(8)
		h.ComputeAttention(short, short, short)
		Expect(h.Weights()).To(HaveLen(2))
		expectRowStochastic(h.Weights())
	})

	It("falls back to a uniform row when every score is zero", func() {
		h := netsim.NewAttentionHead(0, 2, rng, zeroScorer{})
		in := randomVec(8)
		h.ComputeAttention(in, in, in)
		for _, row := range h.Weights() {
			for _, v := range row {
				Expect(v).To(BeNumerically("~", 0.25, 1e-12))
			}
		}
	})

	It("row-normalizes dot-product scores", func() {
		h := netsim.NewAttentionHead(1, 16, rng, netsim.DotProductScorer{})
		in := randomVec(16 * 7)
		h.ComputeAttention(in, in, in)
		Expect(h.SequenceLength()).To(Equal(7))
		expectRowStochastic(h.Weights())
	})

	It("handles input shorter than one head", func() {
		h := netsim.NewAttentionHead(0, 8, rng, nil)
		h.ComputeAttention([]float64{1, 2}, []float64{1, 2}, []float64{1, 2})
		Expect(h.Weights()).To(BeEmpty())
		Expect(h.Output()).To(Equal(make([]float64, 8)))
	})

	It("pulses within [0, 1]", func() {
		h := netsim.NewAttentionHead(0, 8, rng, nil)
		for i := 0; i < 50; i++ {
			h.Update(0.037)
			Expect(h.Pulse()).To(And(BeNumerically(">=", 0), BeNumerically("<=", 1)))
		}
	})

	It("holds dim x dim projections", func() {
		h := netsim.NewAttentionHead(0, 6, rng, nil)
		for _, m := range []interface{ Dims() (int, int) }{h.Query, h.Key, h.Value} {
			r, c := m.Dims()
			Expect(r).To(Equal(6))
			Expect(c).To(Equal(6))
		}
	})
})
