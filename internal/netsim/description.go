package netsim

import "fmt"

// LayerSpec declares one layer of a model description.
type LayerSpec struct {
	Type LayerType
	Size int
}

// Description is the in-memory model description a Model initializes from.
type Description struct {
	Name           string
	Layers         []LayerSpec
	Vocabulary     []string
	EmbeddingWidth int
}

// Validate reports why d cannot be turned into a layer sequence.
func (d Description) Validate() error {
	if len(d.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidDescription)
	}
	for i, spec := range d.Layers {
		if _, ok := layerTypeNames[spec.Type]; !ok {
			return fmt.Errorf("%w: layer %d: %v", ErrInvalidDescription, i, spec.Type)
		}
		if spec.Size <= 0 {
			return fmt.Errorf("%w: layer %d: size must be positive, got %d", ErrInvalidDescription, i, spec.Size)
		}
		if spec.Type == Attention && spec.Size%HeadsPerLayer != 0 {
			return fmt.Errorf("%w: layer %d: attention size %d not divisible by %d heads",
				ErrInvalidDescription, i, spec.Size, HeadsPerLayer)
		}
	}
	if d.EmbeddingWidth < 0 {
		return fmt.Errorf("%w: negative embedding width %d", ErrInvalidDescription, d.EmbeddingWidth)
	}
	return nil
}

// embeddingWidth falls back to the first layer's size.
func (d Description) embeddingWidth() int {
	if d.EmbeddingWidth > 0 {
		return d.EmbeddingWidth
	}
	return d.Layers[0].Size
}

// DefaultVocabulary returns the demonstration vocabulary of the built-in model.
func DefaultVocabulary() []string {
	return []string{
		"[START]", "Hello", "world", "AI", "model", "visualization", "is", "cool", "!", "[END]",
	}
}

// DefaultDescription is the synthetic built-in architecture: one embedding
// layer, four attention/normalize/feedforward/normalize blocks and one output
// layer sized to a 50k vocabulary.
func DefaultDescription() Description {
	layers := []LayerSpec{{Embedding, 512}}
	for i := 0; i < 4; i++ {
		layers = append(layers,
			LayerSpec{Attention, 512},
			LayerSpec{Normalization, 512},
			LayerSpec{FeedForward, 2048},
			LayerSpec{Normalization, 512},
		)
	}
	layers = append(layers, LayerSpec{Output, 50000})

	return Description{
		Name:           "default",
		Layers:         layers,
		Vocabulary:     DefaultVocabulary(),
		EmbeddingWidth: 512,
	}
}
