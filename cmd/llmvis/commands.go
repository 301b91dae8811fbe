package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/llmvis/internal/analysis"
	"github.com/san-kum/llmvis/internal/app"
	"github.com/san-kum/llmvis/internal/automation"
	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/experiment"
	"github.com/san-kum/llmvis/internal/export"
	"github.com/san-kum/llmvis/internal/metrics"
	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
	"github.com/san-kum/llmvis/internal/storage"
	"github.com/san-kum/llmvis/internal/tui"
	"github.com/san-kum/llmvis/internal/viz"
)

var (
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

const maxPlots = 6

var seriesColors = []string{"#00ff88", "#ff6b6b", "#4ecdc4", "#ffe66d", "#a29bfe", "#fd79a8"}

func layerNames(m *netsim.Model) []string {
	names := make([]string, m.LayerCount())
	for i, l := range m.Layers() {
		names[i] = fmt.Sprintf("%d_%s", i, strings.ToLower(l.Type().String()))
	}
	return names
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, live)
	defer closeLog()

	if cfg.Prompt == "" {
		return fmt.Errorf("run needs a prompt (--prompt or prompt in the config)")
	}

	factory := app.RunnerFactory(cfg, logger, metrics.Defaults)
	simCfg := sim.Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: cfg.Seed}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	probe, err := factory(cfg.Seed)
	if err != nil {
		return err
	}
	info := storage.RunInfo{
		Model:    probe.Model().Name(),
		Layers:   layerNames(probe.Model()),
		Prompt:   cfg.Prompt,
		Scorer:   cfg.Scorer,
		Embedder: cfg.Embedder,
		Seed:     cfg.Seed,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Speed:    cfg.Speed,
	}

	if numRuns > 1 {
		results, err := sim.NewEnsemble(factory, numRuns, cfg.Seed).Run(cmd.Context(), simCfg, cfg.Prompt)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEED\tRUN\tFRAMES\tMEAN\tENTROPY")
		for i, res := range results {
			runInfo := info
			runInfo.Seed = cfg.Seed + int64(i)
			id, err := st.Save(runInfo, res)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%.4f\n",
				runInfo.Seed, id, res.Frames,
				res.Metrics[metrics.NewMeanActivation().Name()],
				res.Metrics[metrics.NewOutputEntropy().Name()],
			)
		}
		return w.Flush()
	}

	if live {
		lr := tui.NewLiveRenderer(os.Stdout, probe.Model(), 30)
		lr.Start()
		defer lr.Stop()
		probe.AddObserver(lr)
	}

	probe.Controller().InjectPrompt(cfg.Prompt)
	res, err := probe.Run(cmd.Context(), simCfg)
	if err != nil {
		return err
	}

	id, err := st.Save(info, res)
	if err != nil {
		return err
	}

	fmt.Printf("\nrun saved: %s\n", id)
	fmt.Printf("frames: %d\n", res.Frames)
	for name, v := range res.Metrics {
		fmt.Printf("%s: %.4f\n", name, v)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tSEED\tPROMPT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%q\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Seed,
			run.Prompt,
		)
	}

	return w.Flush()
}

func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	acts, times, err := st.LoadActivations(runID)
	if err != nil {
		return err
	}
	if len(acts) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("prompt: %q\n", meta.Prompt)
	fmt.Printf("samples: %d\n\n", len(acts))

	mean := make([]float64, len(acts))
	for i, a := range acts {
		mean[i] = a.Mean()
	}
	series := []export.Series{{Name: "mean", Values: mean, Color: seriesColors[0]}}

	numLayers := len(acts[0])
	stride := 1
	if numLayers > maxPlots-1 {
		stride = (numLayers + maxPlots - 2) / (maxPlots - 1)
	}
	for layer := 0; layer < numLayers; layer += stride {
		data := make([]float64, len(acts))
		for i := range acts {
			if layer < len(acts[i]) {
				data[i] = acts[i][layer]
			}
		}
		name := fmt.Sprintf("layer %d", layer)
		if layer < len(meta.Layers) {
			name = meta.Layers[layer]
		}
		series = append(series, export.Series{Name: name, Values: data, Color: seriesColors[len(series)%len(seriesColors)]})
	}

	for _, s := range series {
		graph := asciigraph.Plot(s.Values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.Name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgPath != "" {
		svg := export.SeriesToSVG(times, series, 800, 400)
		if svg == "" {
			return fmt.Errorf("not enough samples for a chart")
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", svgPath)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	acts, _, err := st.LoadActivations(runID)
	if err != nil {
		return err
	}
	if len(acts) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	data := make([]float64, len(acts))
	for i, a := range acts {
		data[i] = a.Mean()
	}

	ps := analysis.PowerSpectrum(data)
	plotData := ps
	if len(ps) > 8 {
		plotData = ps[:len(ps)/4]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (mean activation)"),
	)
	fmt.Println(graph)
	fmt.Println()

	period, ok := analysis.DominantPeriod(data)
	if !ok {
		fmt.Println("no periodic component")
		return nil
	}
	fmt.Printf("sweep period: %.1f samples\n", period)
	if meta.Dt > 0 {
		fmt.Printf("period: %.3f s\n", period*meta.Dt)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	if jsonPath == "" {
		return st.Export(os.Stdout, runID)
	}
	if err := st.ExportFile(jsonPath, runID); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, jsonPath)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, false)
	defer closeLog()

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	r, err := app.RunnerFactory(cfg, logger, metrics.Defaults)(cfg.Seed)
	if err != nil {
		return err
	}

	res, err := automation.RunScenario(cmd.Context(), sc, r, logger)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	fmt.Printf("frames: %d\n", len(res.Frames))
	fmt.Printf("experiments: %d (%d failed)\n", res.Experiments, res.Failures)
	if n := len(res.Frames); n > 0 {
		last := res.Frames[n-1]
		fmt.Printf("final input: %q\n", last.Input)
		fmt.Printf("final mean activation: %.4f\n", last.Activations.Mean())
	}
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, false)
	defer closeLog()

	s, err := app.NewSession(cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	for i := 0; i < frames; i++ {
		if err := s.Frame(app.Input{}, cfg.Dt, nil); err != nil {
			return err
		}
	}

	canvas := viz.NewCanvas(cols, rows)
	r := viz.NewCanvasRenderer(canvas, s.Camera)
	r.Theme = viz.GetTheme(cfg.Theme)
	r.Begin()
	s.Model.Render(r)

	if err := os.WriteFile(snapshotOut, []byte(export.CanvasToSVG(canvas, 4)), 0644); err != nil {
		return err
	}
	fmt.Printf("snapshot written to %s (%s)\n", snapshotOut, s.Status())
	return nil
}

func inspectModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, false)
	defer closeLog()

	d := cfg.ResolveDescription(logger)
	if err := d.Validate(); err != nil {
		return err
	}

	fmt.Printf("model: %s\n", d.Name)
	fmt.Printf("%s\n\n", viz.PresetSummary(d))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTYPE\tSIZE")
	for i, l := range d.Layers {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i, l.Type, l.Size)
	}
	return w.Flush()
}

func listExperiments(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tEXPERIMENT")
	for _, id := range experiment.All() {
		fmt.Fprintf(w, "%d\t%s\n", int(id), id)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSHAPE")
	for _, name := range config.ListPresets() {
		d, ok := config.GetPreset(name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", name, viz.PresetSummary(d))
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, false)
	defer closeLog()

	if cfg.Prompt == "" {
		cfg.Prompt = "hello world"
	}
	sweep := automation.SpeedSweep{
		Prompt:   cfg.Prompt,
		MinSpeed: sweepMin,
		MaxSpeed: sweepMax,
		NumSteps: sweepSteps,
		Duration: cfg.Duration,
		Dt:       cfg.Dt,
		Seed:     cfg.Seed,
	}
	results, err := automation.RunSweep(cmd.Context(), &sweep, app.RunnerFactory(cfg, logger, nil), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPEED\tPERIOD\tMEAN")
	for _, r := range results {
		fmt.Fprintf(w, "%.2fx\t%.2fs\t%.4f\n", r.Speed, r.Period, r.MeanActivation)
	}
	return w.Flush()
}

func runTrials(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, false)
	defer closeLog()

	if cfg.Prompt == "" {
		cfg.Prompt = "hello world"
	}
	tc := automation.TrialConfig{
		Prompt:    cfg.Prompt,
		NumTrials: numTrials,
		Duration:  cfg.Duration,
		Dt:        cfg.Dt,
		Seed:      cfg.Seed,
		Threshold: metrics.DefaultStabilityThreshold,
	}
	results, err := automation.RunTrials(cmd.Context(), &tc, app.RunnerFactory(cfg, logger, nil), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tENTROPY\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%v\n", r.TrialID, r.Seed, r.OutputEntropy, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	stable, unstable := automation.TrialStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}
