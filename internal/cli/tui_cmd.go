package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/cli/tui"
)

var refreshInterval time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui <csv>",
	Short: "Browse an analysis in an interactive terminal view",
	Long: `Send a task table to the planfox server for a full analysis and browse the
metrics, the optimized allocation and the simulation report in tabs, next to
the server's live CPU and memory usage.

Examples:
  planfox tui tasks.csv
  planfox tui tasks.csv --trials 20000 --seed 7
  planfox tui tasks.csv --host 10.0.0.1 --refresh 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&refreshInterval, "refresh", time.Second, "host status refresh interval")
	tuiCmd.Flags().IntVar(&trials, "trials", 0, "number of simulation trials (server default when 0)")
	tuiCmd.Flags().Uint64Var(&seed, "seed", 0, "simulation seed (server default when 0)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return apperr.Input("read csv", args[0], "%v", err)
	}

	if err := NewClient().Health(); err != nil {
		return fmt.Errorf("planfox server not reachable at %s: %w", GetServerURL(), err)
	}

	return tui.Run(tui.Config{
		ServerURL:       GetServerURL(),
		RefreshInterval: refreshInterval,
		User:            user,
		Password:        password,
		Name:            args[0],
		CSV:             data,
		Trials:          trials,
		Seed:            seed,
	})
}
