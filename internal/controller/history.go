package controller

import (
	"log/slog"

	"sensornet-sim/internal/flow"
)

// Sink receives every appended flow record, synchronously.
type Sink interface {
	WriteFlow(flow.Row) error
}

// History is the controller's append-only log of routing decisions. It is
// both the predictor's training source and the exported dataset.
type History struct {
	records   []flow.Row
	processed int
	sink      Sink
	log       *slog.Logger
}

// NewHistory returns an empty history mirroring appends to sink. A nil sink
// disables mirroring.
func NewHistory(sink Sink, log *slog.Logger) *History {
	return &History{sink: sink, log: log}
}

// Append records one routing decision and mirrors it to the export sink.
// Sink failures are warnings; the record is kept regardless.
func (h *History) Append(r flow.Row) {
	h.records = append(h.records, r)
	h.processed++
	if h.sink != nil {
		if err := h.sink.WriteFlow(r); err != nil {
			h.log.Warn("flow export failed", "err", err)
		}
	}
}

// Size returns the number of recorded flows.
func (h *History) Size() int { return len(h.records) }

// Processed returns the processed-flow counter.
func (h *History) Processed() int { return h.processed }

// Snapshot returns an immutable copy of the history, used to seed the
// predictor's training set.
func (h *History) Snapshot() []flow.Row {
	out := make([]flow.Row, len(h.records))
	copy(out, h.records)
	return out
}

// Recent returns up to n of the most recent records, newest last.
func (h *History) Recent(n int) []flow.Row {
	if n <= 0 || n > len(h.records) {
		n = len(h.records)
	}
	out := make([]flow.Row, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}
