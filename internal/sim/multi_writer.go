package sim

import "sensornet-sim/internal/flow"

// MultiWriter fans out flow and state rows to multiple writers.
type MultiWriter struct {
	flowWriters  []FlowWriter
	stateWriters []StateWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(fws []FlowWriter, sws []StateWriter) *MultiWriter {
	return &MultiWriter{flowWriters: fws, stateWriters: sws}
}

// WriteFlow sends a flow row to all writers.
func (mw *MultiWriter) WriteFlow(r flow.Row) error {
	for _, w := range mw.flowWriters {
		if err := w.WriteFlow(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteFlowBatch sends multiple flow rows to all writers, using batch mode
// where supported.
func (mw *MultiWriter) WriteFlowBatch(rows []flow.Row) error {
	for _, w := range mw.flowWriters {
		if bw, ok := w.(batchFlowWriter); ok {
			if err := bw.WriteFlowBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteFlow(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a state row to all state writers.
func (mw *MultiWriter) WriteState(row flow.StateRow) error {
	for _, w := range mw.stateWriters {
		if err := w.WriteState(row); err != nil {
			return err
		}
	}
	return nil
}

// ObserveNodeMetrics forwards node metrics to any observing writer.
func (mw *MultiWriter) ObserveNodeMetrics(metrics []flow.NodeMetrics) {
	for _, w := range mw.flowWriters {
		if o, ok := w.(nodeMetricsObserver); ok {
			o.ObserveNodeMetrics(metrics)
		}
	}
}
