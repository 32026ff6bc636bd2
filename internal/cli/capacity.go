package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/capacity"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Ask whether an analysis may run now",
	Long: `Ask the planfox server whether an analysis of the given size would be
admitted right now. Exits with 75 when it would be refused.

Examples:
  planfox capacity
  planfox capacity --kind simulate --tasks 200 --trials 50000
  planfox capacity --kind optimize --tasks 40 --resources 6`,
	RunE: runCapacity,
}

var (
	askKind      string
	askTasks     int
	askResources int
	askTrials    int
)

func init() {
	capacityCmd.Flags().StringVar(&askKind, "kind", "", "analysis kind: optimize or simulate")
	capacityCmd.Flags().IntVar(&askTasks, "tasks", 0, "number of tasks in the table")
	capacityCmd.Flags().IntVar(&askResources, "resources", 0, "number of resources (optimize)")
	capacityCmd.Flags().IntVar(&askTrials, "trials", 0, "number of trials (simulate)")
	rootCmd.AddCommand(capacityCmd)
}

func runCapacity(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if askKind != "" {
		q.Set("kind", askKind)
	}
	for name, v := range map[string]int{"tasks": askTasks, "resources": askResources, "trials": askTrials} {
		if v > 0 {
			q.Set(name, strconv.Itoa(v))
		}
	}

	path := "/capacity"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	data, status, err := NewClient().Get(path)
	if err != nil {
		return fmt.Errorf("failed to ask: %w", err)
	}
	if status != http.StatusOK && status != http.StatusServiceUnavailable {
		return newRemoteError(status, data)
	}

	var resp capacity.AskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		fmt.Fprintln(out, string(data))
	} else {
		if resp.Allowed {
			fmt.Fprintln(out, "✓ Analysis would be ALLOWED")
		} else {
			fmt.Fprintln(out, "✗ Analysis would be DENIED")
			for _, reason := range resp.Reasons {
				fmt.Fprintf(out, "  - %s\n", reason)
			}
		}
		if resp.PredictedMS > 0 {
			fmt.Fprintf(out, "Predicted runtime: %.1f ms\n", resp.PredictedMS)
		}
	}

	if !resp.Allowed {
		os.Exit(exitTempFail)
	}
	return nil
}
