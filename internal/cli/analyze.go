package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/config"
	"github.com/haskel/planfox/internal/learning"
	"github.com/haskel/planfox/internal/logger"
	"github.com/haskel/planfox/internal/report"
	"github.com/haskel/planfox/internal/storage"
)

var (
	trials       int
	seed         uint64
	remote       bool
	record       bool
	styled       bool
	withOptimize bool
	withSimulate bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <csv>",
	Short: "Reassign tasks to minimize the busiest resource's workload",
	Long: `Compute a minimum-makespan allocation of tasks to the resources named in
the table. Each resource may take at most floor(tasks/resources)+2 tasks.

Examples:
  planfox optimize project.csv
  planfox optimize project.csv --styled
  planfox optimize project.csv --remote --host 10.0.0.5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], analysis.Request{Optimize: true})
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <csv>",
	Short: "Estimate schedule and cost risk with Monte Carlo trials",
	Long: `Sample task durations by risk level and report duration and cost
percentiles, overrun probability and recommendations.

Examples:
  planfox simulate project.csv
  planfox simulate project.csv --trials 10000 --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], analysis.Request{Simulate: true, Trials: trials, Seed: seed})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <csv>",
	Short: "Compute metrics, optimization and simulation in one run",
	Long: `Run the full analysis of a project table.

Examples:
  planfox analyze project.csv
  planfox analyze project.csv --simulate=false
  planfox analyze project.csv --trials 5000 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], analysis.Request{
			Optimize: withOptimize,
			Simulate: withSimulate,
			Trials:   trials,
			Seed:     seed,
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{optimizeCmd, simulateCmd, analyzeCmd} {
		cmd.Flags().BoolVar(&remote, "remote", false, "run on the planfox server instead of in-process")
		cmd.Flags().BoolVar(&record, "record", false, "store the run in the local history database")
		cmd.Flags().BoolVar(&styled, "styled", false, "render boxed, colored output")
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{simulateCmd, analyzeCmd} {
		cmd.Flags().IntVar(&trials, "trials", 0, "number of Monte Carlo trials (default from config)")
		cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible runs (default from config)")
	}
	analyzeCmd.Flags().BoolVar(&withOptimize, "optimize", true, "include the allocation optimization")
	analyzeCmd.Flags().BoolVar(&withSimulate, "simulate", true, "include the risk simulation")
}

func runAnalysis(cmd *cobra.Command, path string, req analysis.Request) error {
	csv, err := os.ReadFile(path)
	if err != nil {
		return apperr.Input("read csv", path, "%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *analysis.Result
	if remote {
		res, err = analyzeRemote(csv, req)
	} else {
		res, err = analyzeLocal(ctx, csv, req)
	}
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), res, cmd.Name() == "analyze")
}

func analyzeRemote(csv []byte, req analysis.Request) (*analysis.Result, error) {
	q := url.Values{}
	q.Set("enable_optimization", strconv.FormatBool(req.Optimize))
	q.Set("enable_simulation", strconv.FormatBool(req.Simulate))
	if req.Trials > 0 {
		q.Set("num_simulations", strconv.Itoa(req.Trials))
	}
	if req.Seed != 0 {
		q.Set("seed", strconv.FormatUint(req.Seed, 10))
	}

	var res analysis.Result
	if _, err := NewClient().PostCSV("/analyze", q, csv, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func analyzeLocal(ctx context.Context, csv []byte, req analysis.Request) (*analysis.Result, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := cliLogger(cfg)

	svc, cleanup := localService(ctx, cfg, log)
	defer cleanup()

	table, err := svc.Load(bytes.NewReader(csv))
	if err != nil {
		return nil, err
	}
	return svc.Analyze(ctx, table, req)
}

// localService builds an in-process analysis service. Runs are recorded only
// when --record is set and history is enabled.
func localService(ctx context.Context, cfg *config.Config, log *slog.Logger) (*analysis.Service, func()) {
	model, err := learning.NewModel(cfg.Learning.Model, cfg.Learning.Alpha, cfg.Learning.MinObservations)
	if err != nil {
		log.Warn("falling back to moving average runtime model", "error", err)
		model = learning.NewMovingAverageModel(cfg.Learning.Alpha)
	}
	engine := learning.NewEngine(model, log)

	if !record || !cfg.History.Enabled {
		return analysis.NewService(cfg, nil, engine, nil, log), func() {}
	}

	store, err := storage.Open(cfg.History.DBPath, log)
	if err != nil {
		log.Warn("run history unavailable", "path", cfg.History.DBPath, "error", err)
		return analysis.NewService(cfg, nil, engine, nil, log), func() {}
	}
	if samples, err := store.Samples(ctx, historySeedLimit); err == nil {
		engine.Seed(samples)
	}

	return analysis.NewService(cfg, nil, engine, store, log), func() { store.Close() }
}

func printResult(w io.Writer, res *analysis.Result, withMetrics bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	renderer := report.New(styled)
	if withMetrics && res.Metrics != nil {
		fmt.Fprintln(w, renderer.Metrics(res.Metrics))
	}
	if res.Optimization != nil {
		fmt.Fprintln(w, renderer.Optimization(res.Optimization))
	}
	if res.Simulation != nil {
		fmt.Fprintln(w, renderer.Simulation(res.Simulation))
	}
	if verbose {
		fmt.Fprintf(w, "run %s finished in %.1f ms\n", res.RunID, res.ElapsedMS)
	}
	return nil
}

// loadConfig reads the config file when one is given, else the defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

// cliLogger logs warnings only, or everything with --verbose.
func cliLogger(cfg *config.Config) *slog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(level, cfg.Logging.Format)
}
