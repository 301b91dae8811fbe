package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/llmvis/internal/sim"
)

type ExportData struct {
	Model       string             `json:"model"`
	Layers      []string           `json:"layers"`
	Prompt      string             `json:"prompt"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	Times       []float64          `json:"times"`
	Activations [][]float64        `json:"activations"`
	Metrics     map[string]float64 `json:"metrics"`
}

func NewExportData(meta *RunMetadata, acts []sim.Activations, times []float64) ExportData {
	data := ExportData{
		Model:       meta.Model,
		Layers:      meta.Layers,
		Prompt:      meta.Prompt,
		Seed:        meta.Seed,
		Dt:          meta.Dt,
		Duration:    meta.Duration,
		Steps:       len(times),
		Times:       times,
		Activations: make([][]float64, len(acts)),
		Metrics:     meta.Metrics,
	}
	for i, a := range acts {
		data.Activations[i] = a
	}
	return data
}

// Export loads a stored run and writes it as indented JSON to w.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	acts, times, err := s.LoadActivations(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, acts, times))
}

func (s *Store) ExportFile(path, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Export(f, runID)
}
