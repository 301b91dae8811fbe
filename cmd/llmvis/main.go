package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/llmvis/internal/app"
	"github.com/san-kum/llmvis/internal/audio"
	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/gui"
	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/viz"
)

var (
	dataDir    string
	configFile string
	modelPath  string
	preset     string
	logLevel   string
	seed       int64
	prompt     string
	speed      float64
	theme      string
	scorer     string
	embedder   string
	withAudio  bool
	noFlow     bool

	dt          float64
	duration    float64
	numRuns     int
	numTrials   int
	live        bool
	pick        bool
	svgPath     string
	jsonPath    string
	snapshotOut string
	frames      int
	cols        int
	rows        int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "llmvis",
		Short:         "interactive transformer visualization",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&modelPath, "model", "", "model description file (yaml)")
	pf.StringVar(&preset, "preset", "", "built-in model preset")
	pf.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.Int64Var(&seed, "seed", 1, "random seed")
	pf.StringVar(&prompt, "prompt", "", "initial prompt")
	pf.Float64Var(&speed, "speed", config.DefaultSpeed, "simulation speed multiplier")
	pf.StringVar(&scorer, "scorer", "random", "attention scorer (random, dot)")
	pf.StringVar(&embedder, "embedder", "token", "token embedder (token, placeholder)")
	pf.BoolVar(&noFlow, "no-flow", false, "disable the data flow animation")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "open the 3D window",
		RunE:  runGUI,
	}
	for _, c := range []*cobra.Command{rootCmd, guiCmd} {
		c.Flags().BoolVar(&withAudio, "audio", false, "sonify the activation sweep")
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "run the visualization in the terminal",
		RunE:  runTUI,
	}
	tuiCmd.Flags().StringVar(&theme, "theme", "", "color theme")
	tuiCmd.Flags().BoolVar(&pick, "pick", false, "choose a preset from a menu first")
	tuiCmd.Flags().BoolVar(&withAudio, "audio", false, "sonify the activation sweep")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless session and store the activations",
		RunE:  runHeadless,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "number of seeded runs to execute in parallel")
	runCmd.Flags().BoolVar(&live, "live", false, "print layer activations while running")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot activations of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the chart as SVG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum of the mean activation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonPath, "out", "o", "", "output file (stdout by default)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "play a scripted scenario headlessly",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render one frame to SVG",
		RunE:  snapshot,
	}
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "snapshot.svg", "output file")
	snapshotCmd.Flags().IntVar(&frames, "frames", 60, "frames to simulate before capturing")
	snapshotCmd.Flags().IntVar(&cols, "cols", 100, "canvas width in cells")
	snapshotCmd.Flags().IntVar(&rows, "rows", 40, "canvas height in cells")
	snapshotCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "print the layers of the configured model",
		RunE:  inspectModel,
	}

	experimentsCmd := &cobra.Command{
		Use:   "experiments",
		Short: "list experiments",
		RunE:  listExperiments,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list model presets",
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "measure the sweep across speeds",
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "lowest speed")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "highest speed")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 4, "number of speeds")
	sweepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration per speed")

	trialsCmd := &cobra.Command{
		Use:   "trials",
		Short: "run one prompt across many seeds",
		RunE:  runTrials,
	}
	trialsCmd.Flags().IntVar(&numTrials, "n", 20, "number of trials")
	trialsCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	trialsCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration per trial")

	initCmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(guiCmd, tuiCmd, runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd,
		scenarioCmd, snapshotCmd, inspectCmd, experimentsCmd, presetsCmd, sweepCmd, trialsCmd, initCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given and applies the flags the
// user actually set on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("model") {
		cfg.ModelPath = modelPath
	}
	if flags.Changed("preset") {
		cfg.Preset = preset
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("prompt") {
		cfg.Prompt = prompt
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("scorer") {
		cfg.Scorer = scorer
	}
	if flags.Changed("embedder") {
		cfg.Embedder = embedder
	}
	if flags.Changed("no-flow") {
		cfg.AnimateFlow = !noFlow
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("audio") {
		cfg.Audio = withAudio
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	return cfg, nil
}

// newLogger writes to stderr, or to a file in the data directory when the
// terminal is owned by the TUI.
func newLogger(cfg *config.Config, toFile bool) (*slog.Logger, func()) {
	var w io.Writer = os.Stderr
	closer := func() {}
	if toFile {
		if err := os.MkdirAll(cfg.DataDir, 0755); err == nil {
			if f, err := os.OpenFile(filepath.Join(cfg.DataDir, "llmvis.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				w = f
				closer = func() { f.Close() }
			}
		}
	}
	return logging.NewLogger(cfg.LogLevel, w), closer
}

func newSession(cfg *config.Config, logger *slog.Logger, hooks ...app.FrameHook) (*app.Session, error) {
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithEventLog(logging.NewEventLog(cfg.DataDir, cfg.LogLevel)),
	}
	for _, h := range hooks {
		opts = append(opts, app.WithFrameHook(h))
	}
	return app.NewSession(cfg, opts...)
}

// startAudio returns nil when audio is off or the device cannot be opened.
func startAudio(cfg *config.Config, logger *slog.Logger) *audio.Sonifier {
	if !cfg.Audio {
		return nil
	}
	s := audio.NewSonifier(logger)
	if err := s.Start(); err != nil {
		logger.Warn("audio disabled", "err", err)
		return nil
	}
	return s
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, false)
	defer closeLog()

	sound := startAudio(cfg, logger)
	var hooks []app.FrameHook
	if sound != nil {
		defer sound.Stop()
		hooks = append(hooks, sound.Observe)
	}

	s, err := newSession(cfg, logger, hooks...)
	if err != nil {
		return err
	}
	defer s.Close()

	return gui.Run(cmd.Context(), s, cfg.Window, gui.WithLogger(logger), gui.WithSonifier(sound))
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, true)
	defer closeLog()

	opts := viz.Options{DataDir: cfg.DataDir, FPS: cfg.Window.FPS, Theme: cfg.Theme, Logger: logger}
	if pick {
		return viz.RunInteractive(cmd.Context(), cfg, opts)
	}

	sound := startAudio(cfg, logger)
	var hooks []app.FrameHook
	if sound != nil {
		defer sound.Stop()
		hooks = append(hooks, sound.Observe)
	}

	s, err := newSession(cfg, logger, hooks...)
	if err != nil {
		return err
	}
	defer s.Close()
	return viz.Run(cmd.Context(), s, opts)
}
