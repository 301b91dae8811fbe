package sim

import (
	"context"
	"sync"
)

// Factory builds an independent runner for one ensemble member.
type Factory func(seed int64) (*Runner, error)

// Ensemble runs several seeded sessions concurrently. Each member owns its
// model, so nothing is shared between goroutines.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config, prompt string) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			r, err := e.factory(seed)
			if err != nil {
				errs[idx] = err
				return
			}
			if prompt != "" {
				r.Controller().InjectPrompt(prompt)
			}
			c := cfg
			c.Seed = seed
			results[idx], errs[idx] = r.Run(ctx, c)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
