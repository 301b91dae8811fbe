package netsim

import (
	"math"
	"math/rand"

	"github.com/san-kum/llmvis/internal/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scorer fills raw attention scores for one head. Every score written must be
// non-negative; the head row-normalizes afterwards.
type Scorer interface {
	Score(h *AttentionHead, query, key []float64, scores [][]float64)
}

// RandomScorer fills scores with uniform values in [0, 1). It stands in for
// real query/key scoring.
type RandomScorer struct {
	Rand *rand.Rand
}

func (s RandomScorer) Score(h *AttentionHead, query, key []float64, scores [][]float64) {
	for i := range scores {
		for j := range scores[i] {
			scores[i][j] = s.Rand.Float64()
		}
	}
}

// DotProductScorer scores exp(q_i·k_j/sqrt(d)) on the projected query and key
// slices, shifted by the row maximum before exponentiation.
type DotProductScorer struct{}

func (DotProductScorer) Score(h *AttentionHead, query, key []float64, scores [][]float64) {
	seq := len(scores)
	qs := h.project(h.Query, query, seq)
	ks := h.project(h.Key, key, seq)
	scale := 1 / math.Sqrt(float64(h.dim))
	for i := 0; i < seq; i++ {
		for j := 0; j < seq; j++ {
			scores[i][j] = mat.Dot(qs[i], ks[j]) * scale
		}
		m := floats.Max(scores[i])
		for j := range scores[i] {
			scores[i][j] = math.Exp(scores[i][j] - m)
		}
	}
}

// AttentionHead is one attention unit of an attention layer.
type AttentionHead struct {
	id  int
	dim int

	Query *mat.Dense
	Key   *mat.Dense
	Value *mat.Dense

	scorer      Scorer
	highlighted bool
	position    geom.Vec3
	phase       float64
	output      []float64
	weights     [][]float64
}

// NewAttentionHead creates a head with dim x dim projection matrices drawn
// uniformly from [-0.5, 0.5).
func NewAttentionHead(id, dim int, rng *rand.Rand, scorer Scorer) *AttentionHead {
	if scorer == nil {
		scorer = RandomScorer{Rand: rng}
	}
	return &AttentionHead{
		id:      id,
		dim:     dim,
		Query:   randomSquare(dim, rng),
		Key:     randomSquare(dim, rng),
		Value:   randomSquare(dim, rng),
		scorer:  scorer,
		output:  make([]float64, dim),
		weights: [][]float64{},
	}
}

func randomSquare(n int, rng *rand.Rand) *mat.Dense {
	if n <= 0 {
		return nil
	}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = rng.Float64() - 0.5
	}
	return mat.NewDense(n, n, data)
}

func (h *AttentionHead) ID() int                  { return h.id }
func (h *AttentionHead) Dimensions() int          { return h.dim }
func (h *AttentionHead) Highlighted() bool        { return h.highlighted }
func (h *AttentionHead) SetHighlighted(on bool)   { h.highlighted = on }
func (h *AttentionHead) Position() geom.Vec3      { return h.position }
func (h *AttentionHead) SetPosition(p geom.Vec3)  { h.position = p }
func (h *AttentionHead) Output() []float64        { return append([]float64(nil), h.output...) }
func (h *AttentionHead) Weights() [][]float64     { return h.weights }
func (h *AttentionHead) SequenceLength() int      { return len(h.weights) }
func (h *AttentionHead) SetScorer(s Scorer)       { h.scorer = s }

// Update advances the head's pulse phase.
func (h *AttentionHead) Update(dt float64) {
	h.phase = math.Mod(h.phase+dt, 1)
}

// Pulse oscillates in [0, 1] once per second of simulated time.
func (h *AttentionHead) Pulse() float64 {
	return 0.5 + 0.5*math.Sin(2*math.Pi*h.phase)
}

// ComputeAttention infers the sequence length as len(query)/dim, rebuilds the
// weight matrix, row-normalizes it and recomputes the output vector.
func (h *AttentionHead) ComputeAttention(query, key, value []float64) {
	seq := 0
	if h.dim > 0 {
		seq = len(query) / h.dim
	}
	if len(key) < seq*h.dim || len(value) < seq*h.dim {
		seq = min(len(key), len(value)) / max(h.dim, 1)
	}

	h.weights = make([][]float64, seq)
	for i := range h.weights {
		h.weights[i] = make([]float64, seq)
	}
	if seq > 0 {
		h.scorer.Score(h, query, key, h.weights)
	}
	for _, row := range h.weights {
		normalizeRow(row)
	}

	for i := range h.output {
		h.output[i] = 0
	}
	if seq == 0 {
		return
	}
	vs := h.project(h.Value, value, seq)
	for i := 0; i < seq; i++ {
		for j := 0; j < seq; j++ {
			w := h.weights[i][j] / float64(seq)
			for d := 0; d < h.dim; d++ {
				h.output[d] += w * vs[j].AtVec(d)
			}
		}
	}
}

// normalizeRow scales row to sum to 1. Negative or non-finite entries are
// treated as zero; an all-zero row becomes uniform.
func normalizeRow(row []float64) {
	if len(row) == 0 {
		return
	}
	for j, v := range row {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			row[j] = 0
		}
	}
	sum := floats.Sum(row)
	if sum <= 0 {
		for j := range row {
			row[j] = 1 / float64(len(row))
		}
		return
	}
	floats.Scale(1/sum, row)
}

// project multiplies each dim-wide slice of in by m.
func (h *AttentionHead) project(m *mat.Dense, in []float64, seq int) []*mat.VecDense {
	out := make([]*mat.VecDense, seq)
	for i := 0; i < seq; i++ {
		slice := mat.NewVecDense(h.dim, append([]float64(nil), in[i*h.dim:(i+1)*h.dim]...))
		v := mat.NewVecDense(h.dim, nil)
		v.MulVec(m, slice)
		out[i] = v
	}
	return out
}
