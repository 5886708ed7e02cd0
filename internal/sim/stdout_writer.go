// Writer implementation printing flow records to STDOUT.
package sim

import (
	"encoding/json"
	"fmt"

	"sensornet-sim/internal/flow"
)

// StdoutWriter prints flow and state rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// WriteFlow outputs a single flow row.
func (w *StdoutWriter) WriteFlow(r flow.Row) error {
	data, _ := json.Marshal(r)
	fmt.Println(string(data))
	return nil
}

// WriteFlowBatch outputs multiple flow rows.
func (w *StdoutWriter) WriteFlowBatch(rows []flow.Row) error {
	for _, r := range rows {
		_ = w.WriteFlow(r)
	}
	return nil
}

// WriteState outputs a run-state row.
func (w *StdoutWriter) WriteState(row flow.StateRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}
