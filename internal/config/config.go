package config

import (
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/llmvis/internal/netsim"
)

const (
	DefaultDt       = 1.0 / 60.0
	DefaultDuration = 10.0
	DefaultSpeed    = 1.0
	DefaultWidth    = 1280
	DefaultHeight   = 720
	DefaultFPS      = 60
	DefaultDataDir  = ".llmvis"
)

type Config struct {
	ModelPath   string       `yaml:"model_path"`
	Preset      string       `yaml:"preset"`
	Seed        int64        `yaml:"seed"`
	Speed       float64      `yaml:"speed"`
	AnimateFlow bool         `yaml:"animate_flow"`
	Embedder    string       `yaml:"embedder"`
	Scorer      string       `yaml:"scorer"`
	Prompt      string       `yaml:"prompt"`
	Dt          float64      `yaml:"dt"`
	Duration    float64      `yaml:"duration"`
	LogLevel    string       `yaml:"log_level"`
	Theme       string       `yaml:"theme"`
	DataDir     string       `yaml:"data_dir"`
	Window      WindowConfig `yaml:"window"`
	Camera      CameraConfig `yaml:"camera"`
	Audio       bool         `yaml:"audio"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	FPS    int    `yaml:"fps"`
}

// CameraConfig positions the camera. With AutoFrame set, the position is
// replaced by one behind the last layer looking back along the stack.
type CameraConfig struct {
	Position    [3]float64 `yaml:"position"`
	AutoFrame   bool       `yaml:"auto_frame"`
	Speed       float64    `yaml:"speed"`
	Sensitivity float64    `yaml:"sensitivity"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed:        1,
		Speed:       DefaultSpeed,
		AnimateFlow: true,
		Embedder:    "token",
		Scorer:      "random",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		LogLevel:    "info",
		Theme:       "default",
		DataDir:     DefaultDataDir,
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  "LLM Visualization",
			FPS:    DefaultFPS,
		},
		Camera: CameraConfig{
			Position:    [3]float64{0, 0, 5},
			AutoFrame:   true,
			Speed:       0.8,
			Sensitivity: 0.05,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ModelOptions builds the netsim options for this configuration. The
// embedder and scorer share the model's seeded random source.
func (c *Config) ModelOptions() ([]netsim.Option, error) {
	rng := rand.New(rand.NewSource(c.Seed))
	emb, err := netsim.NewEmbedder(c.Embedder, rng)
	if err != nil {
		return nil, err
	}
	sc, err := netsim.NewScorer(c.Scorer, rng)
	if err != nil {
		return nil, err
	}
	return []netsim.Option{
		netsim.WithRand(rng),
		netsim.WithEmbedder(emb),
		netsim.WithScorer(sc),
		netsim.WithAnimateDataFlow(c.AnimateFlow),
	}, nil
}
