package sim

import (
	"encoding/csv"
	"log/slog"
	"os"

	"sensornet-sim/internal/flow"
)

// DatasetWriter is the external persistence sink: one CSV row per forwarded
// data flow, written synchronously and flushed per row. An open failure is
// logged once as an error; the writer then degrades to warn-and-skip so the
// simulation never dies on the sink.
type DatasetWriter struct {
	path string
	file *os.File
	csv  *csv.Writer
	log  *slog.Logger
}

// NewDatasetWriter opens path and writes the header row.
func NewDatasetWriter(path string, log *slog.Logger) *DatasetWriter {
	w := &DatasetWriter{path: path, log: log}
	f, err := os.Create(path)
	if err != nil {
		log.Error("could not open dataset file", "path", path, "err", err)
		return w
	}
	w.file = f
	w.csv = csv.NewWriter(f)
	if err := w.csv.Write(flow.DatasetHeader); err != nil {
		log.Error("could not write dataset header", "path", path, "err", err)
	}
	w.csv.Flush()
	log.Info("dataset file opened", "path", path)
	return w
}

// WriteFlow appends one row and flushes it.
func (w *DatasetWriter) WriteFlow(r flow.Row) error {
	if w.csv == nil {
		w.log.Warn("dataset file not open, row skipped")
		return nil
	}
	if err := w.csv.Write(r.Record()); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the underlying file.
func (w *DatasetWriter) Close() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	return w.file.Close()
}
