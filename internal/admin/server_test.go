package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"sensornet-sim/internal/config"
	"sensornet-sim/internal/flow"
	"sensornet-sim/internal/sim"
)

func newTestSimulator(t *testing.T) *sim.Simulator {
	t.Helper()
	cfg := &config.SimulationConfig{
		NetworkID: "test-net",
		Topology:  config.Topology{Nodes: 4},
		Discovery: config.Discovery{Enabled: true},
		Seed:      1,
	}
	cfg.ApplyDefaults()
	cfg.DurationS = 10

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := sim.NewSimulator("run-admin", cfg, &nullWriter{}, log)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

type nullWriter struct{}

func (nullWriter) WriteFlow(flow.Row) error { return nil }

func TestHandleHealth(t *testing.T) {
	server := NewServer(newTestSimulator(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var data []sim.NodeHealth
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("expected 3 node entries, got %d", len(data))
	}
	for _, h := range data {
		if h.Battery < 0 || h.Battery > 100 {
			t.Errorf("node %d battery out of range: %v", h.Addr, h.Battery)
		}
	}
}

func TestHandleNodes(t *testing.T) {
	server := NewServer(newTestSimulator(t))

	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	w := httptest.NewRecorder()
	server.handleNodes(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var data []flow.NodeMetrics
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("expected discovered node metrics after a run")
	}
}

func TestHandleFlowsLimit(t *testing.T) {
	server := NewServer(newTestSimulator(t))

	req := httptest.NewRequest(http.MethodGet, "/flows?n=2", nil)
	w := httptest.NewRecorder()
	server.handleFlows(w, req)

	var data []flow.Row
	if err := json.NewDecoder(w.Result().Body).Decode(&data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(data) > 2 {
		t.Errorf("expected at most 2 rows, got %d", len(data))
	}
}

func TestHandleStats(t *testing.T) {
	server := NewServer(newTestSimulator(t))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	server.handleStats(w, req)

	var data sim.Stats
	if err := json.NewDecoder(w.Result().Body).Decode(&data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if data.TopologySize == 0 {
		t.Errorf("expected topology report to have run")
	}
}

func TestHandleIndexRenders(t *testing.T) {
	server := NewServer(newTestSimulator(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	server.handleIndex(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Errorf("expected rendered HTML")
	}
}
