package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/kmoren/stepwise/internal/config"
	"github.com/kmoren/stepwise/internal/export"
	"github.com/kmoren/stepwise/internal/models"
	"github.com/kmoren/stepwise/internal/sim"
	"github.com/kmoren/stepwise/internal/solver"
	"github.com/kmoren/stepwise/internal/viz"
)

var (
	configFile string
	preset     string
	model      string
	solverName string
	t0         float64
	duration   float64
	dt0        float64
	rtol       float64
	atol       float64
	safety     float64
	ifactor    float64
	dfactor    float64
	dtmin      float64
	dtmax      float64
	forceDtMin bool
	stepTs     string
	jumpTs     string
	maxSteps   uint
	plotPath   string
	plotDtPath string
	component  int
	frameRate  int
)

var titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

func main() {
	root := &cobra.Command{
		Use:   "stepwise",
		Short: "Adaptive step-size controlled ODE integration",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Integrate a model and print a solve summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			return runSolve(cfg)
		},
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&plotPath, "plot", "", "write a trajectory PNG to this path")
	runCmd.Flags().StringVar(&plotDtPath, "plot-dt", "", "write a step-size PNG to this path")
	runCmd.Flags().IntVar(&component, "component", 0, "state component for the trajectory plot")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "Watch the controller work, step by step",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			return runLive(cfg)
		},
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "frame-rate", 30, "frames per second")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List available presets",
		Run: func(cmd *cobra.Command, args []string) {
			groups := make([]string, 0, len(config.Presets))
			for m := range config.Presets {
				groups = append(groups, m)
			}
			sort.Strings(groups)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, m := range groups {
				for _, name := range config.ListPresets(m) {
					fmt.Fprintf(w, "%s/%s\n", m, name)
				}
			}
			w.Flush()
		},
	}

	root.AddCommand(runCmd, liveCmd, presetsCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML config file")
	f.StringVar(&preset, "preset", "", "preset as model/name (see 'stepwise presets')")
	f.StringVar(&model, "model", "decay", "model: decay, harmonic, vanderpol, switched")
	f.StringVar(&solverName, "solver", "rk45", "solver: rk45, rk4, euler")
	f.Float64Var(&t0, "t0", 0, "start time")
	f.Float64Var(&duration, "duration", config.DefaultDuration, "integration length (negative solves backward)")
	f.Float64Var(&dt0, "dt0", 0, "first step size (0 = automatic)")
	f.Float64Var(&rtol, "rtol", config.DefaultRTol, "relative tolerance")
	f.Float64Var(&atol, "atol", config.DefaultATol, "absolute tolerance")
	f.Float64Var(&safety, "safety", config.DefaultSafety, "step safety factor")
	f.Float64Var(&ifactor, "ifactor", config.DefaultIFactor, "max step growth per step")
	f.Float64Var(&dfactor, "dfactor", config.DefaultDFactor, "max step shrink per step")
	f.Float64Var(&dtmin, "dtmin", 0, "step-size floor (0 = unset)")
	f.Float64Var(&dtmax, "dtmax", 0, "step-size ceiling (0 = unset)")
	f.BoolVar(&forceDtMin, "force-dtmin", true, "floor to dtmin silently instead of aborting")
	f.StringVar(&stepTs, "step-ts", "", "comma-separated mandatory evaluation times")
	f.StringVar(&jumpTs, "jump-ts", "", "comma-separated discontinuity times")
	f.UintVar(&maxSteps, "max-steps", 0, "trial step cap (0 = default)")
}

// buildConfig layers file, preset and explicit flags, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if preset != "" {
		parts := strings.SplitN(preset, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("preset must be model/name, got %q", preset)
		}
		p := config.GetPreset(parts[0], parts[1])
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		cfg = p
	}

	f := cmd.Flags()
	if f.Changed("model") {
		cfg.Model = model
	}
	if f.Changed("solver") {
		cfg.Solver = solverName
	}
	if f.Changed("t0") {
		cfg.T0 = t0
	}
	if f.Changed("duration") {
		cfg.Duration = duration
	}
	if f.Changed("dt0") {
		cfg.DT0 = dt0
	}
	if f.Changed("rtol") {
		cfg.RTol = rtol
	}
	if f.Changed("atol") {
		cfg.ATol = atol
	}
	if f.Changed("safety") {
		cfg.Safety = safety
	}
	if f.Changed("ifactor") {
		cfg.IFactor = ifactor
	}
	if f.Changed("dfactor") {
		cfg.DFactor = dfactor
	}
	if f.Changed("dtmin") {
		cfg.DtMin = dtmin
	}
	if f.Changed("dtmax") {
		cfg.DtMax = dtmax
	}
	if f.Changed("force-dtmin") {
		cfg.ForceDtMin = forceDtMin
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if f.Changed("step-ts") {
		ts, err := parseFloats(stepTs)
		if err != nil {
			return nil, fmt.Errorf("step-ts: %w", err)
		}
		cfg.StepTs = ts
	}
	if f.Changed("jump-ts") {
		ts, err := parseFloats(jumpTs)
		if err != nil {
			return nil, fmt.Errorf("jump-ts: %w", err)
		}
		cfg.JumpTs = ts
	}
	return cfg, nil
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func runSolve(cfg *config.Config) error {
	sys, y0, err := models.FromName(cfg.Model)
	if err != nil {
		return err
	}
	stepper, err := solver.FromName(cfg.Solver)
	if err != nil {
		return err
	}

	res, err := sim.Run(context.Background(), sys, stepper, cfg.Controller(),
		cfg.T0, cfg.T0+cfg.Duration, y0, cfg.Options())
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("stepwise run — %s / %s", cfg.Model, cfg.Solver)))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "outcome\t%s\n", res.Outcome)
	fmt.Fprintf(w, "accepted steps\t%d\n", res.Accepted)
	fmt.Fprintf(w, "rejected steps\t%d\n", res.Rejected)
	if n := len(res.Times); n > 0 {
		fmt.Fprintf(w, "final time\t%.6g\n", res.Times[n-1])
		fmt.Fprintf(w, "final state\t%.6g\n", res.States[n-1])
	}
	if len(res.Dts) > 0 {
		fmt.Fprintf(w, "last dt\t%.3e\n", res.Dts[len(res.Dts)-1])
	}
	w.Flush()

	if len(res.Dts) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(res.Dts,
			asciigraph.Height(10), asciigraph.Width(70),
			asciigraph.Caption("accepted dt per step")))
	}

	if plotPath != "" {
		if err := export.TrajectoryPlot(res, component, plotPath); err != nil {
			return err
		}
		fmt.Printf("trajectory plot written to %s\n", plotPath)
	}
	if plotDtPath != "" {
		if err := export.StepSizePlot(res, plotDtPath); err != nil {
			return err
		}
		fmt.Printf("step-size plot written to %s\n", plotDtPath)
	}
	return nil
}

func runLive(cfg *config.Config) error {
	sys, y0, err := models.FromName(cfg.Model)
	if err != nil {
		return err
	}
	stepper, err := solver.FromName(cfg.Solver)
	if err != nil {
		return err
	}
	sess, err := sim.NewSession(sys, stepper, cfg.Controller(),
		cfg.T0, cfg.T0+cfg.Duration, y0, cfg.Options())
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(sess, cfg.Model, frameRate))
	_, err = p.Run()
	return err
}
