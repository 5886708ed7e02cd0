package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"sensornet-sim/internal/flow"
)

// ReplayLog replays flow rows from r to writer. Timestamps are virtual
// seconds; a speed > 0 paces playback in wall time, speed <= 0 replays
// without delay.
func ReplayLog(r io.Reader, writer FlowWriter, speed float64) error {
	dec := json.NewDecoder(r)
	prev := -1.0
	for {
		var row flow.Row
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if prev >= 0 && speed > 0 {
			diff := row.Timestamp - prev
			if diff > 0 {
				time.Sleep(time.Duration(diff / speed * float64(time.Second)))
			}
		}
		if err := writer.WriteFlow(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a JSONL flow log and replays its rows.
func ReplayLogFile(path string, writer FlowWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
