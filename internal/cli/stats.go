package cli

import (
	"fmt"
	"io"
	"net/url"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/learning"
)

var statsCmd = &cobra.Command{
	Use:   "stats [kind]",
	Short: "Show learned analysis runtimes",
	Long: `Query the planfox server for the runtime model used by capacity admission.

Examples:
  planfox stats
  planfox stats simulate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	client := NewClient()
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		var stats learning.KindStats
		data, err := client.GetJSON("/stats?kind="+url.QueryEscape(args[0]), &stats)
		if err != nil {
			return err
		}
		if jsonOut {
			fmt.Fprintln(out, string(data))
		} else {
			printKindStats(out, &stats)
		}
		return nil
	}

	var all learning.AllStats
	data, err := client.GetJSON("/stats", &all)
	if err != nil {
		return err
	}
	if jsonOut {
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "=== Runtime Statistics ===\n")
	fmt.Fprintf(out, "Total runs: %d\n\n", all.TotalRuns)

	if len(all.Kinds) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	kinds := make([]learning.Kind, 0, len(all.Kinds))
	for k := range all.Kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		printKindStats(out, all.Kinds[k])
		fmt.Fprintln(out)
	}
	return nil
}

func printKindStats(w io.Writer, stats *learning.KindStats) {
	fmt.Fprintf(w, "Kind: %s\n", stats.Kind)
	fmt.Fprintf(w, "  Runs:          %d\n", stats.Count)
	fmt.Fprintf(w, "  Per work unit: %s\n", time.Duration(stats.AvgNsPerUnit))
	fmt.Fprintf(w, "  Last run:      %.1f ms\n", stats.LastElapsedMS)
}
