package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/llmvis/internal/netsim"
)

type Registry struct {
	mutators map[ID]Mutator
	selector Selector
}

// NewRegistry returns an empty registry. A nil selector picks index 0.
func NewRegistry(sel Selector) *Registry {
	if sel == nil {
		sel = FirstSelector{}
	}
	return &Registry{
		mutators: make(map[ID]Mutator),
		selector: sel,
	}
}

// Register installs or overwrites the mutator for id.
func (r *Registry) Register(id ID, fn Mutator) {
	r.mutators[id] = fn
}

func (r *Registry) Has(id ID) bool {
	_, ok := r.mutators[id]
	return ok
}

func (r *Registry) Run(id ID, m *netsim.Model) error {
	fn, ok := r.mutators[id]
	if !ok || fn == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(m, r.selector); err != nil {
		return fmt.Errorf("experiment %s: %w", id, err)
	}
	return nil
}

func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.mutators))
	for id := range r.mutators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
