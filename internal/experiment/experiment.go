package experiment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/llmvis/internal/netsim"
)

var ErrNotFound = errors.New("experiment not found")

type ID int

const (
	ChangeAttentionWeights ID = iota
	ModifyLayerSizes
	AlterActivationFunctions
	InjectKnowledge
	TestRobustness
)

var idNames = [...]string{
	ChangeAttentionWeights:   "CHANGE_ATTENTION_WEIGHTS",
	ModifyLayerSizes:         "MODIFY_LAYER_SIZES",
	AlterActivationFunctions: "ALTER_ACTIVATION_FUNCTIONS",
	InjectKnowledge:          "INJECT_KNOWLEDGE",
	TestRobustness:           "TEST_ROBUSTNESS",
}

func (id ID) String() string {
	if id < 0 || int(id) >= len(idNames) {
		return fmt.Sprintf("EXPERIMENT(%d)", int(id))
	}
	return idNames[id]
}

// ParseID accepts the upper-case names, lower-case and dashed variants.
func ParseID(s string) (ID, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, n := range idNames {
		if n == name {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNotFound, s)
}

// All returns the built-in identifiers in declaration order.
func All() []ID {
	ids := make([]ID, len(idNames))
	for i := range idNames {
		ids[i] = ID(i)
	}
	return ids
}

// Mutator alters visualization state on the given model. It must not keep
// the model beyond the call.
type Mutator func(m *netsim.Model, sel Selector) error
