package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sensornet-sim/internal/admin"
	"sensornet-sim/internal/config"
	"sensornet-sim/internal/logging"
	"sensornet-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simLogFile    string
	simTUI        bool
	simAdminAddr  string
	simDuration   float64
	simSeed       int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the sensor network simulator",
	Long:  "simulate runs a full network scenario: nodes drain and recharge batteries, send discovery telemetry, and originate data flows the controller routes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if simDuration > 0 {
			cfg.DurationS = simDuration
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = simSeed
		}
		if networkID := os.Getenv("NETWORK_ID"); networkID != "" {
			cfg.NetworkID = networkID
		}

		log := logging.New(slog.LevelInfo)
		if simTUI {
			// The TUI owns the terminal; keep slog off STDERR.
			log = logging.NewWriter(io.Discard, slog.LevelInfo)
		}

		runID := cfg.NetworkID + "-" + uuid.NewString()[:8]

		writer, cleanup, err := newWriters(cfg, runID, simPrintOnly, simTUI, simLogFile, log)
		if err != nil {
			return err
		}
		defer cleanup()

		simulator, err := sim.NewSimulator(runID, cfg, writer, log)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if simAdminAddr != "" {
			srv := admin.NewServer(simulator)
			go func() {
				log.Info("admin server listening", "addr", simAdminAddr)
				if err := srv.Start(ctx, simAdminAddr); err != nil && err != http.ErrServerClosed {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		if err := simulator.Run(ctx); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print flow rows to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export flow/state logs (JSONL)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render a terminal UI instead of STDOUT output")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin", ":8080", "Admin server listen address (empty to disable)")
	simulateCmd.Flags().Float64Var(&simDuration, "duration", 0, "Override simulated duration in seconds")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Override random seed (0 = time-based)")
}
