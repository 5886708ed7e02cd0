package sim

import (
	"path/filepath"
	"strings"
	"testing"

	"sensornet-sim/internal/flow"
)

func TestReplayLog(t *testing.T) {
	input := strings.NewReader(`
{"run_id":"r","ts":1.0,"src_addr":1,"dest_addr":2,"chosen_path":0}
{"run_id":"r","ts":1.5,"src_addr":2,"dest_addr":1,"chosen_path":1}
`)
	w := &captureWriter{}
	if err := ReplayLog(input, w, 0); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(w.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(w.rows))
	}
	if w.rows[0].Timestamp != 1.0 || w.rows[1].ChosenLink != 1 {
		t.Errorf("unexpected rows: %+v", w.rows)
	}
}

func TestReplayRoundTripThroughFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.jsonl")
	fw, err := NewFileWriter(path, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []flow.Row{
		{RunID: "r", Timestamp: 0.5, SrcAddr: 1, DestAddr: 3, SrcBattery: 90, ChosenLink: 2, PathQuality: 55},
		{RunID: "r", Timestamp: 0.9, SrcAddr: 2, DestAddr: 1, SrcBattery: 85, ChosenLink: 0, PathQuality: 60},
	}
	for _, r := range want {
		if err := fw.WriteFlow(r); err != nil {
			t.Fatal(err)
		}
	}
	fw.Close()

	w := &captureWriter{}
	if err := ReplayLogFile(path, w, 0); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(w.rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(w.rows))
	}
	for i := range want {
		if w.rows[i] != want[i] {
			t.Errorf("row %d mismatch:\n got %+v\nwant %+v", i, w.rows[i], want[i])
		}
	}
}
