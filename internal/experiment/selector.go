package experiment

import "math/rand"

// Selector chooses an index in [0, n). n is always positive.
type Selector interface {
	Pick(n int) int
}

type RandomSelector struct {
	Rand *rand.Rand
}

func NewRandomSelector(seed int64) RandomSelector {
	return RandomSelector{Rand: rand.New(rand.NewSource(seed))}
}

func (s RandomSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	if s.Rand == nil {
		return rand.Intn(n)
	}
	return s.Rand.Intn(n)
}

type FirstSelector struct{}

func (FirstSelector) Pick(int) int { return 0 }
