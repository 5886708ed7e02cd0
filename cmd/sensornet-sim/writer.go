package main

import (
	"log/slog"
	"os"

	"sensornet-sim/internal/config"
	"sensornet-sim/internal/sim"
)

// newWriters assembles the flow sink stack for a run: the CSV dataset export,
// a live view (STDOUT, TUI, or GreptimeDB), and an optional JSONL log file.
// The returned cleanup closes everything it opened.
func newWriters(cfg *config.SimulationConfig, runID string, printOnly, tui bool, logFile string, log *slog.Logger) (sim.FlowWriter, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	flowWriters := []sim.FlowWriter{}
	stateWriters := []sim.StateWriter{}

	if cfg.DatasetFile != "" {
		dw := sim.NewDatasetWriter(cfg.DatasetFile, log)
		flowWriters = append(flowWriters, dw)
		closers = append(closers, func() { dw.Close() })
	}

	live, liveClose, err := liveWriter(runID, printOnly, tui)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	flowWriters = append(flowWriters, live)
	if sw, ok := live.(sim.StateWriter); ok {
		stateWriters = append(stateWriters, sw)
	}
	if liveClose != nil {
		closers = append(closers, liveClose)
	}

	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile, logFile+".state")
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		flowWriters = append(flowWriters, fw)
		stateWriters = append(stateWriters, fw)
		closers = append(closers, func() { fw.Close() })
	}

	return sim.NewMultiWriter(flowWriters, stateWriters), cleanup, nil
}

// liveWriter chooses the interactive sink: TUI when requested, GreptimeDB when
// an endpoint is configured, STDOUT otherwise.
func liveWriter(runID string, printOnly, tui bool) (sim.FlowWriter, func(), error) {
	if tui {
		tw := sim.NewTUIWriter(runID)
		return tw, func() { tw.Close() }, nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		return &sim.StdoutWriter{}, nil, nil
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, "public", os.Getenv("GREPTIMEDB_TABLE"), os.Getenv("SIMULATION_STATE_TABLE"))
	if err != nil {
		return nil, nil, err
	}
	return w, nil, nil
}
