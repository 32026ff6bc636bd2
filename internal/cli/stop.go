package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running planfox server",
	Long:  `Stop the planfox server by sending SIGTERM to the process in the PID file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalServer(syscall.SIGTERM, "stopped", "Sent SIGTERM to process %d\n")
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the planfox server configuration",
	Long: `Reload the planfox server configuration by sending SIGHUP to the process.

Credentials, capacity thresholds, trial bounds, predecessor policy and the log
level take effect immediately. Address, timeouts, rate limits and the learning
model need a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalServer(syscall.SIGHUP, "reload_requested", "Sent SIGHUP to process %d (configuration reload requested)\n")
	},
}

var pidFile string

func init() {
	for _, cmd := range []*cobra.Command{stopCmd, reloadCmd} {
		cmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")
		rootCmd.AddCommand(cmd)
	}
}

func signalServer(sig syscall.Signal, status, message string) error {
	pid, err := readPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %d", pid)
	}

	if err := process.Signal(sig); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}

	if jsonOut {
		fmt.Printf(`{"status":%q,"pid":%d}`+"\n", status, pid)
	} else {
		fmt.Printf(message, pid)
	}
	return nil
}
