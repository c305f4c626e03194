package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rs1sim/internal/analysis"
	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/experiment"
	"github.com/san-kum/rs1sim/internal/logging"
	"github.com/san-kum/rs1sim/internal/optim"
	"github.com/san-kum/rs1sim/internal/orbit"
	"github.com/san-kum/rs1sim/internal/storage"
	"github.com/san-kum/rs1sim/internal/telemetry"
	"github.com/san-kum/rs1sim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir      string
	preset       string
	configFile   string
	scriptFile   string
	mode         string
	duration     time.Duration
	integrator   string
	vizFile      string
	logLevel     string
	show         bool
	noSave       bool
	promFile     bool
	columns      []string
	column       string
	presets      []string
	workers      int
	gainK        []float64
	gainP        []float64
	metric       string
	tunePreset   string
	tuneDur      time.Duration
	campaignFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rs1sim",
		Short:        "RS1 spacecraft scenario harness",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run store directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the RS1 scenario",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&preset, "preset", "reference", "preset configuration")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&scriptFile, "script", "", "lua setup script")
	runCmd.Flags().StringVar(&mode, "mode", "", "FSW mode request: standby or inertial3D")
	runCmd.Flags().DurationVar(&duration, "duration", 0, "simulated duration")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator: rk4, rk2 or euler")
	runCmd.Flags().StringVar(&vizFile, "viz", "", "write a visualization feed to this file")
	runCmd.Flags().BoolVar(&show, "show", false, "render figures in the terminal instead of saving")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&promFile, "metrics", false, "write a prometheus textfile next to the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", []string{"sigma_1", "sigma_2", "sigma_3"}, "telemetry columns to plot")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run telemetry to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and telemetry to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run several presets concurrently and store each run",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	batchCmd.Flags().StringSliceVar(&presets, "presets", config.ListPresets(), "presets to run")
	batchCmd.Flags().StringVar(&campaignFile, "file", "", "campaign file (yaml); overrides --presets")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")
	batchCmd.Flags().DurationVar(&duration, "duration", 0, "simulated duration for every preset")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the attitude feedback gains",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	tuneCmd.Flags().StringVar(&tunePreset, "preset", "pointing", "preset configuration")
	tuneCmd.Flags().Float64SliceVar(&gainK, "k", []float64{1, 3.5, 6}, "K values")
	tuneCmd.Flags().Float64SliceVar(&gainP, "p", []float64{15, 30, 60}, "P values")
	tuneCmd.Flags().StringVar(&metric, "metric", "final_pointing_angle_deg", "metric to minimize")
	tuneCmd.Flags().DurationVar(&tuneDur, "duration", 5*time.Minute, "simulated duration per candidate")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of stored telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "omega_1", "telemetry column to analyze")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s mode=%s duration=%s a=%.0fkm\n", name, cfg.Mode, cfg.Duration, cfg.Orbit.A/1000)
			}
			return nil
		},
	}

	elementsCmd := &cobra.Command{
		Use:   "elements",
		Short: "print the initial orbit of a preset",
		Args:  cobra.NoArgs,
		RunE:  printElements,
	}
	elementsCmd.Flags().StringVar(&preset, "preset", "reference", "preset configuration")

	playbackCmd := &cobra.Command{
		Use:   "playback [viz_file]",
		Short: "replay a visualization feed in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunPlayback(args[0])
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list registered scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().List() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, batchCmd, tuneCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, presetsCmd, elementsCmd, playbackCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "rs1sim")
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	cfg, err := experiment.Resolve(experiment.Source{
		Preset: preset,
		File:   configFile,
		Script: scriptFile,
		Apply:  applyFlags(cmd),
	})
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel, os.Stderr)

	res, err := experiment.New(cfg,
		experiment.WithLogger(logger),
		experiment.WithPreset(preset),
	).Run(ctx, show)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s (%s, %s)\n", cfg.Scenario, cfg.Mode, cfg.Duration)
	fmt.Printf("samples: %d in %s\n", res.Samples, res.Elapsed.Round(time.Millisecond))
	if res.RunID != "" {
		fmt.Printf("run: %s\n", res.RunID)
	}
	for name, path := range res.Figures {
		fmt.Printf("figure %s: %s\n", name, path)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range slices.Sorted(maps.Keys(res.Metrics)) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, res.Metrics[name])
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	apply := func(c *config.Config) {
		if cmd.Flags().Changed("duration") {
			c.Duration = duration
		}
		if dataDir != "" {
			c.Output.Dir = dataDir
		}
		c.Output.SaveRun = true
		c.VizFile = ""
	}

	var items []experiment.BatchItem
	if campaignFile != "" {
		campaign, err := experiment.LoadCampaign(campaignFile)
		if err != nil {
			return err
		}
		if items, err = campaign.Items(apply); err != nil {
			return err
		}
	} else {
		for _, name := range presets {
			cfg, err := experiment.Resolve(experiment.Source{Preset: name, Apply: apply})
			if err != nil {
				return fmt.Errorf("preset %s: %w", name, err)
			}
			items = append(items, experiment.BatchItem{Name: name, Config: cfg})
		}
	}

	level := logLevel
	if level == "" {
		level = "warn"
	}
	results, err := experiment.NewBatch(items, workers,
		experiment.WithLogger(logging.NewLogger(level, os.Stderr)),
	).Run(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRUN\tSAMPLES\tELAPSED\tPOINTING_DEG")
	for i, res := range results {
		if res == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", items[i].Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.4g\n",
			items[i].Name, res.RunID, res.Samples, res.Elapsed.Round(time.Millisecond), res.Metrics["final_pointing_angle_deg"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func tuneGains(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	base, err := experiment.Resolve(experiment.Source{
		Preset: tunePreset,
		Apply: func(c *config.Config) {
			c.Duration = tuneDur
			c.Output.SaveRun = false
			c.Output.Metrics = false
			c.VizFile = ""
		},
	})
	if err != nil {
		return err
	}
	params, err := optim.GainParams(map[string][]float64{"K": gainK, "P": gainP})
	if err != nil {
		return err
	}
	grid := optim.NewGridSearch(params)
	fmt.Printf("searching %d candidates on %s (%s, %s)\n", grid.Size(), tunePreset, base.Mode, base.Duration)

	eval := func(ctx context.Context, cfg *config.Config) (map[string]float64, error) {
		res, err := experiment.New(cfg, experiment.WithOutput(io.Discard)).Run(ctx, true)
		if err != nil {
			return nil, err
		}
		return res.Metrics, nil
	}
	best, all, err := grid.Search(ctx, base, metric, eval)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "K\tP\t%s\n", strings.ToUpper(metric))
	for _, c := range all {
		if c.Err != nil {
			fmt.Fprintf(w, "%g\t%g\terror: %v\n", c.Params["K"], c.Params["P"], c.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%g\t%.6g\n", c.Params["K"], c.Params["P"], c.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: K=%g P=%g %s=%.6g\n", best.Params["K"], best.Params["P"], metric, best.Value)
	return nil
}

// applyFlags overlays only the flags the user set.
func applyFlags(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("mode") {
			cfg.Mode = mode
		}
		if flags.Changed("duration") {
			cfg.Duration = duration
		}
		if flags.Changed("integrator") {
			cfg.Integrator = integrator
		}
		if flags.Changed("viz") {
			cfg.VizFile = vizFile
		}
		if flags.Changed("metrics") {
			cfg.Output.Metrics = promFile
		}
		if noSave {
			cfg.Output.SaveRun = false
		}
		if dataDir != "" {
			cfg.Output.Dir = dataDir
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
	}
}

func openStore() (*storage.Store, error) {
	dir := dataDir
	if dir == "" {
		dir = config.DefaultConfig().Output.Dir
	}
	return storage.Open(dir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tPRESET\tTIME\tMODE\tDURATION\tSAMPLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Preset,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Duration,
			run.Samples,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}
	if len(tel.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s mode: %s\n", meta.Scenario, meta.Mode)
	fmt.Printf("samples: %d\n\n", len(tel.Rows))

	for _, name := range columns {
		data, ok := tel.Column(name)
		if !ok {
			return fmt.Errorf("unknown column %q (available: %s)", name, strings.Join(tel.Columns, ", "))
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}
	data, ok := tel.Column(column)
	if !ok {
		return fmt.Errorf("unknown column %q (available: %s)", column, strings.Join(tel.Columns, ", "))
	}

	sampleRate := 1.0
	if meta.DynRate > 0 {
		sampleRate = 1 / meta.DynRate
	}
	peak, err := analysis.DominantFrequency(data, sampleRate)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("column: %s\n\n", column)

	ps := analysis.PowerSpectrum(data)
	fmt.Println(asciigraph.Plot(ps[:max(len(ps)/4, 1)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+column+")"),
	))
	fmt.Println()

	fmt.Printf("dominant frequency: %.5f hz\n", peak.Frequency)
	if peak.Period > 0 {
		fmt.Printf("period: %.1f s\n", peak.Period)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	tel, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}
	if len(tel.Rows) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, tel)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, tel)
}

func printElements(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	oe := cfg.Orbit.Elements()
	r, v, err := orbit.ElemToRV(orbit.MuEarth, oe)
	if err != nil {
		return err
	}
	fmt.Println(oe)
	fmt.Printf("r_N: [%.1f %.1f %.1f] m\n", r[0], r[1], r[2])
	fmt.Printf("v_N: [%.3f %.3f %.3f] m/s\n", v[0], v[1], v[2])
	fmt.Printf("period: %.1f min\n", oe.Period(orbit.MuEarth)/60)
	return nil
}
