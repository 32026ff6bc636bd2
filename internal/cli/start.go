package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/capacity"
	"github.com/haskel/planfox/internal/config"
	"github.com/haskel/planfox/internal/learning"
	"github.com/haskel/planfox/internal/logger"
	"github.com/haskel/planfox/internal/monitor"
	"github.com/haskel/planfox/internal/server"
	"github.com/haskel/planfox/internal/storage"
)

// historySeedLimit is how many stored runtime samples warm up the learning
// model at startup.
const historySeedLimit = 500

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the planfox server",
	Long:  `Start the planfox HTTP server in foreground mode.`,
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}

	log, level := logger.NewLeveled(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	log.Info("planfox starting",
		"version", Version,
		"config", cfgFile,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agg := monitor.NewAggregator(monitor.DefaultMonitors(cfg.Monitoring.Paths), cfg.MonitoringInterval(), log)
	if err := agg.Start(ctx); err != nil {
		return fmt.Errorf("failed to start aggregator: %w", err)
	}
	defer agg.Stop()

	model, err := learning.NewModel(cfg.Learning.Model, cfg.Learning.Alpha, cfg.Learning.MinObservations)
	if err != nil {
		return err
	}
	engine := learning.NewEngine(model, log.With("component", "learning"))

	deps := server.Deps{
		State:  agg,
		Engine: engine,
	}

	var recorder analysis.Recorder
	if cfg.History.Enabled {
		store, err := storage.Open(cfg.History.DBPath, log.With("component", "history"))
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer store.Close()

		samples, err := store.Samples(ctx, historySeedLimit)
		if err != nil {
			log.Warn("failed to load runtime history", "error", err)
		}
		engine.Seed(samples)

		deps.History = store
		recorder = store
	}

	deps.Capacity = capacity.NewManager(agg, engine, cfg.Capacity)
	deps.Service = analysis.NewService(cfg, deps.Capacity, engine, recorder, log.With("component", "analysis"))

	if cfg.Server.PIDFile != "" {
		if err := writePIDFile(cfg.Server.PIDFile); err != nil {
			log.Warn("failed to write PID file", "error", err)
		} else {
			defer os.Remove(cfg.Server.PIDFile)
		}
	}

	srv := server.New(cfg, deps, log, Version)

	sighupCh := make(chan os.Signal, 1)
	sigCh := make(chan os.Signal, 1)
	shutdownDone := make(chan struct{})

	signal.Notify(sighupCh, syscall.SIGHUP)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-sighupCh:
				log.Info("SIGHUP received, reloading configuration")

				newCfg, err := loadConfig()
				if err != nil {
					log.Error("invalid configuration, reload aborted", "error", err)
					continue
				}

				level.Set(logger.ParseLevel(newCfg.Logging.Level))
				srv.ReloadConfig(newCfg)
			case <-shutdownDone:
				return
			}
		}
	}()

	go func() {
		<-sigCh

		log.Info("shutdown signal received")

		signal.Stop(sighupCh)
		signal.Stop(sigCh)
		close(shutdownDone)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	log.Info("planfox ready", "addr", srv.Addr())

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("planfox stopped")
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// readPID returns the server PID from --pid-file or the configured path.
func readPID() (int, error) {
	path := pidFile
	if path == "" {
		path = config.LoadOrDefault(cfgFile).Server.PIDFile
	}
	if path == "" {
		return 0, errors.New("no PID file specified (use --pid-file or configure server.pid_file)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("PID file not found: %s (server may not be running)", path)
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscan(string(data), &pid); err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file %s", path)
	}
	return pid, nil
}
