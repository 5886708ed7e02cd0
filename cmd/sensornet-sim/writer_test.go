package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"sensornet-sim/internal/config"
	"sensornet-sim/internal/flow"
	"sensornet-sim/internal/sim"
)

func TestNewWritersPrintOnlyWithLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.SimulationConfig{DatasetFile: filepath.Join(dir, "dataset.csv")}
	logFile := filepath.Join(dir, "flows.jsonl")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	writer, cleanup, err := newWriters(cfg, "run-w", true, false, logFile, log)
	if err != nil {
		t.Fatalf("newWriters failed: %v", err)
	}

	row := flow.Row{RunID: "run-w", Timestamp: 1.0, SrcAddr: 1, DestAddr: 2, ChosenLink: 0}
	if err := writer.WriteFlow(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cleanup()

	rows, err := flow.ReadDataset(cfg.DatasetFile)
	if err != nil {
		t.Fatalf("dataset read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 dataset row, got %d", len(rows))
	}

	replayed := &captureFlows{}
	if err := sim.ReplayLogFile(logFile, replayed, 0); err != nil {
		t.Fatalf("log replay failed: %v", err)
	}
	if len(replayed.rows) != 1 || replayed.rows[0] != row {
		t.Errorf("unexpected replayed rows: %+v", replayed.rows)
	}
}

func TestNewWritersWithoutDatasetOrLog(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer, cleanup, err := newWriters(&config.SimulationConfig{}, "run-w", true, false, "", log)
	if err != nil {
		t.Fatalf("newWriters failed: %v", err)
	}
	defer cleanup()
	if err := writer.WriteFlow(flow.Row{}); err != nil {
		t.Errorf("stdout-only stack must accept rows, got %v", err)
	}
}

type captureFlows struct {
	rows []flow.Row
}

func (c *captureFlows) WriteFlow(r flow.Row) error {
	c.rows = append(c.rows, r)
	return nil
}
