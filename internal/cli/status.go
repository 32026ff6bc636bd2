package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/monitor"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server host's resource usage",
	Long:  `Query the running planfox server for the host sample used by capacity admission.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var state monitor.SystemState
	data, err := NewClient().GetJSON("/status", &state)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if jsonOut {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printStatus(cmd.OutOrStdout(), &state)
	return nil
}

func printStatus(w io.Writer, state *monitor.SystemState) {
	fmt.Fprintln(w, "=== System Status ===")

	fmt.Fprintf(w, "\nCPU:\n")
	fmt.Fprintf(w, "  Usage: %.1f%% (%d logical cores)\n", state.CPU.UsagePercent, state.CPU.LogicalCores)

	fmt.Fprintf(w, "\nMemory:\n")
	fmt.Fprintf(w, "  Usage: %.1f%%\n", state.Memory.UsagePercent)
	fmt.Fprintf(w, "  Used:  %s of %s\n", humanize.IBytes(state.Memory.UsedBytes), humanize.IBytes(state.Memory.TotalBytes))

	if len(state.Storage) > 0 {
		fmt.Fprintf(w, "\nStorage:\n")
		paths := make([]string, 0, len(state.Storage))
		for path := range state.Storage {
			paths = append(paths, path)
		}
		slices.Sort(paths)
		for _, path := range paths {
			disk := state.Storage[path]
			fmt.Fprintf(w, "  %s: %s free / %s total\n", path, humanize.IBytes(disk.FreeBytes), humanize.IBytes(disk.TotalBytes))
		}
	}

	fmt.Fprintf(w, "\nProcesses:\n")
	fmt.Fprintf(w, "  Host:       %d\n", state.Process.Processes)
	fmt.Fprintf(w, "  Server RSS: %s\n", humanize.IBytes(state.Process.SelfRSSBytes))
	fmt.Fprintf(w, "  Goroutines: %d\n", state.Process.Goroutines)
}
