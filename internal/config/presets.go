package config

import (
	"sort"

	"github.com/san-kum/llmvis/internal/netsim"
)

// block returns one attention/normalize/feedforward/normalize block.
func block(width, hidden int) []netsim.LayerSpec {
	return []netsim.LayerSpec{
		{Type: netsim.Attention, Size: width},
		{Type: netsim.Normalization, Size: width},
		{Type: netsim.FeedForward, Size: hidden},
		{Type: netsim.Normalization, Size: width},
	}
}

func stack(name string, width, hidden, blocks, vocab int) netsim.Description {
	layers := []netsim.LayerSpec{{Type: netsim.Embedding, Size: width}}
	for i := 0; i < blocks; i++ {
		layers = append(layers, block(width, hidden)...)
	}
	layers = append(layers, netsim.LayerSpec{Type: netsim.Output, Size: vocab})
	return netsim.Description{
		Name:           name,
		Layers:         layers,
		Vocabulary:     netsim.DefaultVocabulary(),
		EmbeddingWidth: width,
	}
}

var Presets = map[string]func() netsim.Description{
	"default":    netsim.DefaultDescription,
	"tiny":       func() netsim.Description { return stack("tiny", 64, 256, 1, 1000) },
	"small":      func() netsim.Description { return stack("small", 256, 1024, 2, 8000) },
	"gpt2-small": func() netsim.Description { return stack("gpt2-small", 768, 3072, 12, 50257) },
	"deep":       func() netsim.Description { return stack("deep", 128, 512, 8, 4000) },
}

func GetPreset(name string) (netsim.Description, bool) {
	fn, ok := Presets[name]
	if !ok {
		return netsim.Description{}, false
	}
	return fn(), true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
