package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/reactsim/reactsim/internal/analysis"
	"github.com/reactsim/reactsim/internal/bruss"
	"github.com/reactsim/reactsim/internal/config"
	"github.com/reactsim/reactsim/internal/export"
	"github.com/reactsim/reactsim/internal/grid"
	"github.com/reactsim/reactsim/internal/integrators"
	"github.com/reactsim/reactsim/internal/metrics"
	"github.com/reactsim/reactsim/internal/ode"
	"github.com/reactsim/reactsim/internal/sim"
	"github.com/reactsim/reactsim/internal/storage"
	"github.com/reactsim/reactsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string

	gridN      int
	paramA     float64
	paramB     float64
	paramAlpha float64
	forcing    bool

	integrator    string
	dt            float64
	duration      float64
	adaptive      bool
	tolerance     float64
	snapshotEvery int
	parallelRows  int

	component string
	cellSize  int

	runs   int
	jitter float64
	seed   int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reactsim",
		Short: "2d brusselator reaction-diffusion lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".reactsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the result",
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the final field as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the final field as an svg heatmap",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&component, "component", "u", "component to render (u or v)")
	exportSVGCmd.Flags().IntVar(&cellSize, "cell", 12, "cell size in pixels")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		RunE:  runLive,
	}
	addModelFlags(liveCmd)

	stiffnessCmd := &cobra.Command{
		Use:   "stiffness",
		Short: "estimate the stiffness of the configured system",
		RunE:  analyzeStiffness,
	}
	addModelFlags(stiffnessCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run perturbed initial conditions in parallel",
		RunE:  runEnsemble,
	}
	addModelFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of ensemble members")
	ensembleCmd.Flags().Float64Var(&jitter, "jitter", 0.01, "initial condition perturbation amplitude")
	ensembleCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "perturbation seed")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark integrators across grid sizes",
		RunE:  benchIntegrators,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, liveCmd, stiffnessCmd, ensembleCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&gridN, "n", config.DefaultN, "grid points per axis")
	cmd.Flags().Float64Var(&paramA, "a", config.DefaultA, "reaction parameter A")
	cmd.Flags().Float64Var(&paramB, "b", config.DefaultB, "reaction parameter B")
	cmd.Flags().Float64Var(&paramAlpha, "alpha", config.DefaultAlpha, "diffusion coefficient")
	cmd.Flags().BoolVar(&forcing, "forcing", false, "enable the disk source term")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, dopri5, imex)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping (dopri5 only)")
	cmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "adaptive error tolerance")
	cmd.Flags().IntVar(&snapshotEvery, "snapshot-every", 10, "record every k-th step")
	cmd.Flags().IntVar(&parallelRows, "parallel-rows", 0, "parallel sweep once the grid has this many rows (0 = serial)")
}

// resolveConfig merges preset, config file and CLI flags; flags the
// user set explicitly win.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("n") {
		cfg.N = gridN
	}
	if cmd.Flags().Changed("a") {
		cfg.A = paramA
	}
	if cmd.Flags().Changed("b") {
		cfg.B = paramB
	}
	if cmd.Flags().Changed("alpha") {
		cfg.Alpha = paramAlpha
	}
	if cmd.Flags().Changed("forcing") {
		cfg.Forcing = forcing
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if cmd.Flags().Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("snapshot-every") {
		cfg.SnapshotEvery = snapshotEvery
	}
	if cmd.Flags().Changed("parallel-rows") {
		cfg.ParallelRows = parallelRows
	}

	return cfg, cfg.Validate()
}

func buildSystem(cfg *config.Config) (*bruss.Evaluator, grid.Grid, error) {
	g, err := cfg.Grid()
	if err != nil {
		return nil, grid.Grid{}, err
	}

	var f bruss.Forcing
	if cfg.Forcing {
		f = bruss.DiskForcing
	}

	eval, err := bruss.NewEvaluator(g, cfg.Params(g), f)
	if err != nil {
		return nil, grid.Grid{}, err
	}
	if cfg.ParallelRows > 0 {
		eval.SetParallel(cfg.ParallelRows)
	}
	return eval, g, nil
}

func buildIntegrator(name string) (ode.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "dopri5":
		return integrators.NewDopri5(), nil
	case "imex":
		return integrators.NewIMEX(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	eval, g, err := buildSystem(cfg)
	if err != nil {
		return err
	}
	integ, err := buildIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	simulator := sim.New(eval, integ)
	simulator.AddMetric(metrics.NewMassDrift())
	simulator.AddMetric(metrics.NewExtrema())
	simulator.AddMetric(metrics.NewL2Norm())

	initial := bruss.InitialState(g)

	fmt.Printf("running %dx%d brusselator (%s, dt=%.4g, t=%.4g)...\n",
		cfg.N, cfg.N, cfg.Integrator, cfg.Dt, cfg.Duration)
	start := time.Now()

	result, err := simulator.Run(context.Background(), initial.Data, cfg.SimConfig())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(runInfo(cfg), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (rejected: %d, rhs evaluations: %d)\n",
		result.Stats.StepCount, result.Stats.RejectedCount, result.Stats.EvaluationCount)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	return nil
}

func runInfo(cfg *config.Config) storage.RunInfo {
	return storage.RunInfo{
		N: cfg.N, A: cfg.A, B: cfg.B, Alpha: cfg.Alpha,
		Forcing: cfg.Forcing, Dt: cfg.Dt, Duration: cfg.Duration,
		Integrator: cfg.Integrator,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	allRuns, err := st.List()
	if err != nil {
		return err
	}

	if len(allRuns) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tGRID\tA\tB\tALPHA\tDT\tDURATION\tINTEG")

	for _, run := range allRuns {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%.2f\t%.2f\t%.4g\t%.4g\t%.2f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.N, run.N,
			run.A, run.B, run.Alpha,
			run.Dt, run.Duration,
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	snaps, _, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("grid: %dx%d, integrator: %s\n", meta.N, meta.N, meta.Integrator)
	fmt.Printf("samples: %d\n\n", len(snaps))

	mass := make([]float64, len(snaps))
	l2 := make([]float64, len(snaps))
	for i, snap := range snaps {
		mass[i] = floats.Sum(snap)
		l2[i] = floats.Norm(snap, 2)
	}

	fmt.Println(asciigraph.Plot(mass,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("total concentration vs time"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(l2,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("l2 norm vs time"),
	))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// finalField loads the last stored snapshot of a run as a typed field.
func finalField(st *storage.Store, runID string) (grid.Field, grid.Grid, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return grid.Field{}, grid.Grid{}, err
	}
	snaps, _, err := st.LoadSnapshots(runID)
	if err != nil {
		return grid.Field{}, grid.Grid{}, err
	}
	if len(snaps) == 0 {
		return grid.Field{}, grid.Grid{}, fmt.Errorf("run %s has no snapshots", runID)
	}

	g, err := grid.New(meta.N)
	if err != nil {
		return grid.Field{}, grid.Grid{}, err
	}
	f, err := grid.FieldFrom(meta.N, snaps[len(snaps)-1])
	if err != nil {
		return grid.Field{}, grid.Grid{}, err
	}
	return f, g, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	f, g, err := finalField(st, args[0])
	if err != nil {
		return err
	}
	return export.FieldCSV(os.Stdout, f, g)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	f, _, err := finalField(st, args[0])
	if err != nil {
		return err
	}

	comp := 0
	if component == "v" {
		comp = 1
	}
	fmt.Println(export.HeatmapSVG(f, comp, cellSize))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	eval, g, err := buildSystem(cfg)
	if err != nil {
		return err
	}
	integ, err := buildIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	initial := bruss.InitialState(g)
	m := tui.NewModel(g, eval, integ, initial.Data, cfg.Dt)

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func analyzeStiffness(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// The Jacobian is dense 2N^2 square; eigendecomposition past small
	// grids takes minutes for no extra insight.
	if cfg.N > 16 {
		return fmt.Errorf("stiffness analysis is limited to n <= 16, got %d", cfg.N)
	}

	eval, g, err := buildSystem(cfg)
	if err != nil {
		return err
	}
	initial := bruss.InitialState(g)

	report, err := analysis.Stiffness(eval, initial.Data, 0)
	if err != nil {
		return err
	}

	fmt.Printf("system dimension: %d\n", eval.Dim())
	fmt.Printf("spectral radius:  %.6g\n", report.SpectralRadius)
	fmt.Printf("stiffness ratio:  %.6g\n", report.Ratio)
	if report.SpectralRadius > 0 {
		fmt.Printf("explicit dt limit (rough): %.6g\n", 2.0/report.SpectralRadius)
	}
	if report.Ratio > 100 {
		fmt.Println("\nthe system is stiff here; prefer the imex integrator")
	}

	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	eval, g, err := buildSystem(cfg)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	base := bruss.InitialState(g)
	initials := make([]ode.State, runs)
	for i := range initials {
		s := base.Data.Clone()
		for j := range s {
			s[j] += jitter * (2*rng.Float64() - 1)
		}
		initials[i] = s
	}

	ensemble := sim.NewEnsemble(eval, func() ode.Integrator {
		integ, _ := buildIntegrator(cfg.Integrator)
		return integ
	})

	fmt.Printf("running %d perturbed members (jitter=%.3g, seed=%d)...\n", runs, jitter, seed)
	start := time.Now()

	results, err := ensemble.Run(context.Background(), initials, cfg.SimConfig())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	finals := make([]float64, len(results))
	for i, r := range results {
		finals[i] = floats.Norm(r.Snapshots[len(r.Snapshots)-1], 2)
	}

	mean := floats.Sum(finals) / float64(len(finals))
	spread := floats.Max(finals) - floats.Min(finals)
	fmt.Printf("final l2 norm: mean %.6g, spread %.3g\n", mean, spread)
	fmt.Println(asciigraph.Plot(finals,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption("final l2 norm per member"),
	))

	return nil
}

func benchIntegrators(cmd *cobra.Command, args []string) error {
	sizes := []int{16, 32, 64}
	names := []string{"euler", "rk4", "imex"}

	fmt.Println("benchmarking 1000 steps at dt=0.001")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tINTEGRATOR\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		g, err := grid.New(n)
		if err != nil {
			return err
		}
		eval, err := bruss.NewEvaluator(g, bruss.Params{A: 3.4, B: 1.0, Alpha: 0.002, Dx: g.Spacing}, nil)
		if err != nil {
			return err
		}
		eval.SetParallel(16)

		for _, name := range names {
			integ, err := buildIntegrator(name)
			if err != nil {
				return err
			}

			simulator := sim.New(eval, integ)
			cfg := sim.DefaultConfig()
			cfg.Dt = 0.001
			cfg.Duration = 1.0
			cfg.SnapshotEvery = 1 << 30

			initial := bruss.InitialState(g)

			start := time.Now()
			result, err := simulator.Run(context.Background(), initial.Data, cfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%dx%d\t%s\t%d\t%v\t%.0f\n",
				n, n, name, result.StepsTaken, elapsed.Round(time.Millisecond),
				float64(result.StepsTaken)/elapsed.Seconds())
		}
	}

	return w.Flush()
}
