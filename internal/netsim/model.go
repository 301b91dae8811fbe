package netsim

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/san-kum/llmvis/internal/geom"
)

const (
	LayerSpacing    = 1.5
	AttentionOffset = 0.5
	FeedFwdOffset   = -0.5

	// stepsPerLayer is how many sweep steps each layer spans.
	stepsPerLayer = 10.0
)

// Model owns the ordered layers and drives tokenization, embedding,
// propagation and the activation sweep.
type Model struct {
	name           string
	layers         []*Layer
	vocab          map[string]int
	currentInput   string
	tokens         []int
	embedding      []float64
	embeddingWidth int
	speed          float64
	step           int
	animateFlow    bool

	activeIndex    int
	activeProgress float64

	rng      *rand.Rand
	embedder Embedder
	scorer   Scorer
}

type Option func(*Model)

// WithSeed seeds the model's random source (matrices, placeholder values).
func WithSeed(seed int64) Option {
	return func(m *Model) { m.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand shares an existing random source with the model.
func WithRand(r *rand.Rand) Option { return func(m *Model) { m.rng = r } }

func WithEmbedder(e Embedder) Option { return func(m *Model) { m.embedder = e } }

// WithScorer sets the attention scorer used by heads created afterwards.
func WithScorer(s Scorer) Option { return func(m *Model) { m.scorer = s } }

// WithAnimateDataFlow sets the initial state of the sweep animation.
func WithAnimateDataFlow(on bool) Option { return func(m *Model) { m.animateFlow = on } }

func NewModel(opts ...Option) *Model {
	m := &Model{
		vocab:       make(map[string]int),
		speed:       1.0,
		animateFlow: true,
		activeIndex: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(1))
	}
	if m.embedder == nil {
		m.embedder = TokenEmbedder{Rand: m.rng}
	}
	if m.scorer == nil {
		m.scorer = RandomScorer{Rand: m.rng}
	}
	return m
}

// NewScorer maps a scorer name ("random" or "dot") to a Scorer.
func NewScorer(name string, rng *rand.Rand) (Scorer, error) {
	switch strings.ToLower(name) {
	case "", "random":
		return RandomScorer{Rand: rng}, nil
	case "dot", "dot_product":
		return DotProductScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer: %s", name)
	}
}

// NewEmbedder maps an embedder name ("token" or "placeholder") to an Embedder.
func NewEmbedder(name string, rng *rand.Rand) (Embedder, error) {
	switch strings.ToLower(name) {
	case "", "token":
		return TokenEmbedder{Rand: rng}, nil
	case "placeholder", "random":
		return PlaceholderEmbedder{Rand: rng}, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", name)
	}
}

// Rand exposes the model's random source for collaborators that need
// reproducible choices tied to the model seed.
func (m *Model) Rand() *rand.Rand { return m.rng }

// InitializeFrom replaces the layer sequence with the description's layers.
// An invalid description leaves the model unchanged.
func (m *Model) InitializeFrom(d Description) error {
	if err := d.Validate(); err != nil {
		return err
	}

	layers := make([]*Layer, len(d.Layers))
	yOffset := 0.0
	for i, spec := range d.Layers {
		l := NewLayer(spec.Type, spec.Size, m.rng, m.scorer)
		l.SetPosition(geom.Vec3{X: 0, Y: yOffset, Z: float64(i) * LayerSpacing})
		switch spec.Type {
		case Attention:
			yOffset += AttentionOffset
		case FeedForward:
			yOffset += FeedFwdOffset
		}
		layers[i] = l
	}

	vocab := make(map[string]int, len(d.Vocabulary))
	for i, tok := range d.Vocabulary {
		if _, ok := vocab[tok]; !ok {
			vocab[tok] = i
		}
	}

	m.name = d.Name
	m.layers = layers
	m.vocab = vocab
	m.embeddingWidth = d.embeddingWidth()
	m.currentInput = ""
	m.tokens = nil
	m.embedding = nil
	m.step = 0
	m.activeIndex = -1
	m.activeProgress = 0
	return nil
}

// Tokenize splits text on single spaces and maps the pieces through the
// vocabulary. Unknown pieces are dropped.
func (m *Model) Tokenize(text string) []int {
	ids := make([]int, 0)
	for _, piece := range strings.Split(text, " ") {
		if id, ok := m.vocab[piece]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ProcessInput tokenizes text, embeds it, feeds the first layer and
// propagates each layer's output into the next. The sweep restarts from
// the first layer.
func (m *Model) ProcessInput(text string) {
	m.currentInput = text
	m.step = 0
	m.activeIndex = -1
	m.activeProgress = 0
	for _, l := range m.layers {
		l.SetActivation(0)
	}
	m.tokens = m.Tokenize(text)
	m.embedding = m.embedder.Embed(m.tokens, m.embeddingWidth)

	if len(m.layers) == 0 {
		return
	}
	m.layers[0].ProcessInput(m.embedding)
	for i := 1; i < len(m.layers); i++ {
		m.layers[i].ProcessInput(m.layers[i-1].output)
	}
}

// Update advances layer animation and, while an input is active and flow
// animation is on, sweeps activation from the first layer to the last.
func (m *Model) Update(dt float64) {
	for _, l := range m.layers {
		l.Update(dt)
	}

	n := len(m.layers)
	if m.currentInput == "" || !m.animateFlow || n == 0 {
		return
	}

	total := float64(n) * stepsPerLayer
	progress := math.Mod(float64(m.step)*dt*m.speed, total) / total
	active := int(progress * float64(n))
	layerProgress := math.Mod(progress*float64(n), 1.0)

	for i, l := range m.layers {
		switch {
		case i < active:
			l.SetActivation(1.0)
		case i == active:
			l.SetActivation(layerProgress)
		default:
			l.SetActivation(0.0)
		}
	}
	m.activeIndex = active
	m.activeProgress = layerProgress
	m.step++
}

func (m *Model) Name() string               { return m.name }
func (m *Model) LayerCount() int            { return len(m.layers) }
func (m *Model) Step() int                  { return m.step }
func (m *Model) Speed() float64             { return m.speed }
func (m *Model) CurrentInput() string       { return m.currentInput }
func (m *Model) TokenIDs() []int            { return append([]int(nil), m.tokens...) }
func (m *Model) Embedding() []float64       { return append([]float64(nil), m.embedding...) }
func (m *Model) EmbeddingWidth() int        { return m.embeddingWidth }
func (m *Model) VocabularySize() int        { return len(m.vocab) }
func (m *Model) AnimateDataFlow() bool      { return m.animateFlow }
func (m *Model) SetAnimateDataFlow(on bool) { m.animateFlow = on }

// SetSimulationSpeed sets the sweep multiplier. Callers should pass a
// positive value; other values produce an unspecified sweep.
func (m *Model) SetSimulationSpeed(speed float64) { m.speed = speed }

// Layer returns layer i, or false when i is out of range.
func (m *Model) Layer(i int) (*Layer, bool) {
	if i < 0 || i >= len(m.layers) {
		return nil, false
	}
	return m.layers[i], true
}

// Layers returns the layer sequence. Callers must not reorder it.
func (m *Model) Layers() []*Layer { return m.layers }

// ActiveLayer reports the layer the sweep is currently in and its progress.
func (m *Model) ActiveLayer() (int, float64, bool) {
	if m.activeIndex < 0 || m.activeIndex >= len(m.layers) {
		return 0, 0, false
	}
	return m.activeIndex, m.activeProgress, true
}

// CurrentActivation summarizes the sweep position for display.
func (m *Model) CurrentActivation() string {
	i, p, ok := m.ActiveLayer()
	if !ok || m.currentInput == "" {
		return "idle"
	}
	return fmt.Sprintf("layer %d/%d %s %3.0f%%", i+1, len(m.layers), m.layers[i].Type(), p*100)
}

// HighlightLayer highlights exactly layer i. Out-of-range indices are ignored.
func (m *Model) HighlightLayer(i int) {
	if i < 0 || i >= len(m.layers) {
		return
	}
	for _, l := range m.layers {
		l.Highlight(false)
	}
	m.layers[i].Highlight(true)
}

// HighlightAttentionHead highlights head h of attention layer l. It is a
// no-op for out-of-range indices and non-attention layers.
func (m *Model) HighlightAttentionHead(l, h int) {
	layer, ok := m.Layer(l)
	if !ok || layer.Type() != Attention {
		return
	}
	if h < 0 || h >= layer.AttentionHeadCount() {
		return
	}
	for _, other := range m.layers {
		other.clearHeadHighlights()
	}
	layer.HighlightAttentionHead(h)
}

func (m *Model) ClearHighlights() {
	for _, l := range m.layers {
		l.Highlight(false)
		l.clearHeadHighlights()
	}
}
