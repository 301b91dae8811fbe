package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/llmvis/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0, 0.5},
		Activations: []sim.Activations{
			{0.25, 0, 0},
			{1, 0.5, 0},
		},
		Metrics: map[string]float64{"mean_activation": 0.29},
		Frames:  2,
	}
}

func sampleInfo() RunInfo {
	return RunInfo{
		Model:    "tiny",
		Layers:   []string{"EMBEDDING", "ATTENTION", "OUTPUT"},
		Prompt:   "Hello world",
		Seed:     42,
		Dt:       0.5,
		Duration: 1,
		Speed:    1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "tiny" || meta.Seed != 42 || meta.Prompt != "Hello world" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", meta.Frames)
	}
	if meta.Metrics["mean_activation"] != 0.29 {
		t.Errorf("metric lost: %v", meta.Metrics)
	}

	acts, times, err := st.LoadActivations(runID)
	if err != nil {
		t.Fatalf("load activations failed: %v", err)
	}
	if len(acts) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 rows, got %d/%d", len(acts), len(times))
	}
	if acts[1][1] != 0.5 || times[1] != 0.5 {
		t.Errorf("row mismatch: %v at %v", acts[1], times[1])
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := st.Save(sampleInfo(), sampleResult())
	second, _ := st.Save(sampleInfo(), sampleResult())
	if first == second {
		t.Fatal("run ids collide")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	latest, err := st.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest != second {
		t.Errorf("latest = %s, want %s", latest, second)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
	if _, err := st.Latest(); err == nil {
		t.Error("expected error with no runs")
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	info := sampleInfo()
	info.Model = "gpt2 small/x"
	runID, err := st.Save(info, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(dir, runID)
	for _, name := range []string{"metadata.json", "activations.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	data, err := os.ReadFile(filepath.Join(runDir, "activations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("time,l0_embedding,l1_attention,l2_output\n")) {
		t.Errorf("unexpected header: %q", data)
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.Export(&buf, runID); err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Steps != 2 || len(got.Activations) != 2 || got.Model != "tiny" {
		t.Errorf("unexpected export %+v", got)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportFile(path, runID); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("export file missing")
	}
}
