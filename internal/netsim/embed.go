package netsim

import (
	"math"
	"math/rand"
)

// Embedder turns recognized token ids into an embedding of the given width.
type Embedder interface {
	Embed(tokens []int, width int) []float64
}

// TokenEmbedder derives each element from the token ids:
//
//	e[i] = mean over t of sin(0.1*(i+1)*(id_t+1) + t)
//
// With no recognized tokens it emits placeholder values in [-1, 1).
type TokenEmbedder struct {
	Rand *rand.Rand
}

func (e TokenEmbedder) Embed(tokens []int, width int) []float64 {
	if len(tokens) == 0 {
		return PlaceholderEmbedder(e).Embed(nil, width)
	}
	out := make([]float64, width)
	for i := range out {
		var s float64
		for t, id := range tokens {
			s += math.Sin(0.1*float64(i+1)*float64(id+1) + float64(t))
		}
		out[i] = s / float64(len(tokens))
	}
	return out
}

// PlaceholderEmbedder ignores the tokens and fills uniform values in [-1, 1).
type PlaceholderEmbedder struct {
	Rand *rand.Rand
}

func (e PlaceholderEmbedder) Embed(_ []int, width int) []float64 {
	out := make([]float64, width)
	for i := range out {
		out[i] = e.Rand.Float64()*2 - 1
	}
	return out
}
