package netsim

import (
	"fmt"
	"strings"
)

type LayerType int

const (
	Embedding LayerType = iota
	Attention
	FeedForward
	Normalization
	Output
)

var layerTypeNames = map[LayerType]string{
	Embedding:     "EMBEDDING",
	Attention:     "ATTENTION",
	FeedForward:   "FEEDFORWARD",
	Normalization: "NORMALIZATION",
	Output:        "OUTPUT",
}

var layerTypeAliases = map[string]LayerType{
	"embedding":     Embedding,
	"attention":     Attention,
	"feedforward":   FeedForward,
	"feed_forward":  FeedForward,
	"ffn":           FeedForward,
	"normalization": Normalization,
	"norm":          Normalization,
	"output":        Output,
}

func (t LayerType) String() string {
	if s, ok := layerTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("LayerType(%d)", int(t))
}

// ParseLayerType accepts case-insensitive type names and a few aliases.
func ParseLayerType(s string) (LayerType, error) {
	if t, ok := layerTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayerType, s)
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

var (
	White = Color{1, 1, 1, 1}

	palette = map[LayerType]Color{
		Embedding:     {0.2, 0.6, 0.8, 1}, // blue
		Attention:     {0.8, 0.3, 0.3, 1}, // red
		FeedForward:   {0.3, 0.8, 0.3, 1}, // green
		Normalization: {0.8, 0.8, 0.3, 1}, // yellow
		Output:        {0.8, 0.4, 0.8, 1}, // purple
	}
)

// PaletteColor returns the base color of a layer type.
func PaletteColor(t LayerType) Color {
	if c, ok := palette[t]; ok {
		return c
	}
	return White
}
