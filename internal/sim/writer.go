package sim

import "sensornet-sim/internal/flow"

// FlowWriter is an interface to support different flow-record sinks.
type FlowWriter interface {
	WriteFlow(flow.Row) error
}

// StateWriter handles periodic run-state rows.
type StateWriter interface {
	WriteState(flow.StateRow) error
}

// Optional: flow writers may support batch mode.
type batchFlowWriter interface {
	WriteFlowBatch([]flow.Row) error
}

// Optional: writers may want the latest node metrics for display.
type nodeMetricsObserver interface {
	ObserveNodeMetrics([]flow.NodeMetrics)
}
