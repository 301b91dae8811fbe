package experiment

import "github.com/san-kum/llmvis/internal/netsim"

const (
	KnowledgePrompt  = "AI model visualization is cool!"
	RobustnessPrompt = "This is a test of model robustness!"
)

// RegisterDefaults installs the five built-in experiments. IDs that already
// have a mutator keep it.
func RegisterDefaults(r *Registry) {
	defaults := map[ID]Mutator{
		ChangeAttentionWeights:   changeAttentionWeights,
		ModifyLayerSizes:         modifyLayerSizes,
		AlterActivationFunctions: alterActivationFunctions,
		InjectKnowledge:          injectPrompt(KnowledgePrompt),
		TestRobustness:           injectPrompt(RobustnessPrompt),
	}
	for id, fn := range defaults {
		if !r.Has(id) {
			r.Register(id, fn)
		}
	}
}

// changeAttentionWeights highlights one head of the first attention layer.
func changeAttentionWeights(m *netsim.Model, sel Selector) error {
	for i, l := range m.Layers() {
		if l.Type() != netsim.Attention {
			continue
		}
		n := l.AttentionHeadCount()
		if n == 0 {
			return nil
		}
		m.HighlightAttentionHead(i, sel.Pick(n))
		return nil
	}
	return nil
}

func modifyLayerSizes(m *netsim.Model, sel Selector) error {
	n := m.LayerCount()
	if n == 0 {
		return nil
	}
	m.HighlightLayer(sel.Pick(n))
	return nil
}

func alterActivationFunctions(m *netsim.Model, _ Selector) error {
	for i, l := range m.Layers() {
		if l.Type() == netsim.FeedForward {
			m.HighlightLayer(i)
			return nil
		}
	}
	return nil
}

func injectPrompt(text string) Mutator {
	return func(m *netsim.Model, _ Selector) error {
		m.ProcessInput(text)
		return nil
	}
}
