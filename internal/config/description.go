package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/llmvis/internal/netsim"
)

// DescriptionFile is the YAML form of a model description:
//
//	name: tiny
//	embedding_width: 64
//	vocabulary: ["[START]", Hello, world]
//	layers:
//	  - {type: embedding, size: 64}
//	  - {type: attention, size: 64}
type DescriptionFile struct {
	Name           string      `yaml:"name"`
	EmbeddingWidth int         `yaml:"embedding_width,omitempty"`
	Vocabulary     []string    `yaml:"vocabulary,omitempty"`
	Layers         []LayerFile `yaml:"layers"`
}

type LayerFile struct {
	Type string `yaml:"type"`
	Size int    `yaml:"size"`
}

func (f DescriptionFile) Description() (netsim.Description, error) {
	d := netsim.Description{
		Name:           f.Name,
		EmbeddingWidth: f.EmbeddingWidth,
		Vocabulary:     f.Vocabulary,
		Layers:         make([]netsim.LayerSpec, 0, len(f.Layers)),
	}
	if len(d.Vocabulary) == 0 {
		d.Vocabulary = netsim.DefaultVocabulary()
	}
	for i, l := range f.Layers {
		t, err := netsim.ParseLayerType(l.Type)
		if err != nil {
			return netsim.Description{}, fmt.Errorf("%w: layer %d: %w", netsim.ErrInvalidDescription, i, err)
		}
		d.Layers = append(d.Layers, netsim.LayerSpec{Type: t, Size: l.Size})
	}
	if err := d.Validate(); err != nil {
		return netsim.Description{}, err
	}
	return d, nil
}

func FromDescription(d netsim.Description) DescriptionFile {
	f := DescriptionFile{
		Name:           d.Name,
		EmbeddingWidth: d.EmbeddingWidth,
		Vocabulary:     d.Vocabulary,
		Layers:         make([]LayerFile, len(d.Layers)),
	}
	for i, l := range d.Layers {
		f.Layers[i] = LayerFile{Type: strings.ToLower(l.Type.String()), Size: l.Size}
	}
	return f
}

func LoadDescription(path string) (netsim.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return netsim.Description{}, err
	}
	var f DescriptionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return netsim.Description{}, fmt.Errorf("%w: %v", netsim.ErrInvalidDescription, err)
	}
	return f.Description()
}

func SaveDescription(path string, d netsim.Description) error {
	data, err := yaml.Marshal(FromDescription(d))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDescription picks the model description for a session: the file at
// ModelPath, else the named preset, else the built-in default. A file or
// preset that cannot be used is logged and replaced by the default.
func (c *Config) ResolveDescription(logger *slog.Logger) netsim.Description {
	if c.ModelPath != "" {
		d, err := LoadDescription(c.ModelPath)
		if err == nil {
			return d
		}
		logger.Warn("model description unavailable, using default", "path", c.ModelPath, "err", err)
		return netsim.DefaultDescription()
	}
	if c.Preset != "" {
		if d, ok := GetPreset(c.Preset); ok {
			return d
		}
		logger.Warn("unknown preset, using default", "preset", c.Preset)
	}
	return netsim.DefaultDescription()
}
