package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent analysis runs or show one",
	Long: `Query the planfox server's run history.

Examples:
  planfox history
  planfox history --limit 50
  planfox history 3f1c9a52-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	client := NewClient()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		var run storage.Run
		data, err := client.GetJSON("/runs/"+url.PathEscape(args[0]), &run)
		if err != nil {
			return err
		}
		if jsonOut {
			fmt.Fprintln(out, string(data))
			return nil
		}
		return printRun(out, &run)
	}

	var runs []storage.Run
	data, err := client.GetJSON("/runs?limit="+strconv.Itoa(historyLimit), &runs)
	if err != nil {
		return err
	}
	if jsonOut {
		fmt.Fprintln(out, string(data))
		return nil
	}

	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCREATED\tTASKS\tELAPSED\tSUMMARY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f ms\t%s\n",
			r.ID, r.Kind, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Tasks, r.ElapsedMS, r.Summary)
	}
	tw.Flush()
}

func printRun(w io.Writer, run *storage.Run) error {
	fmt.Fprintf(w, "Run %s (%s, %s)\n", run.ID, run.Kind, run.Status)
	fmt.Fprintf(w, "Created: %s, %d tasks, %.1f ms\n\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Tasks, run.ElapsedMS)

	if len(run.Result) == 0 {
		fmt.Fprintln(w, run.Summary)
		return nil
	}

	var res analysis.Result
	if err := json.Unmarshal(run.Result, &res); err != nil {
		return fmt.Errorf("failed to parse stored result: %w", err)
	}
	return printResult(w, &res, run.Kind == analysis.KindAnalyze)
}
