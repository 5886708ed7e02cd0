package sim

import (
	"encoding/json"
	"os"

	"sensornet-sim/internal/flow"
)

// FileWriter logs flow and state rows to JSONL files, the format the replay
// command reads back.
type FileWriter struct {
	flowFile  *os.File
	stateFile *os.File
	flowEnc   *json.Encoder
	stateEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. statePath may be empty to skip the
// state log.
func NewFileWriter(flowPath, statePath string) (*FileWriter, error) {
	ff, err := os.Create(flowPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{flowFile: ff, flowEnc: json.NewEncoder(ff)}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			ff.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteFlow logs a single flow row.
func (f *FileWriter) WriteFlow(r flow.Row) error {
	return f.flowEnc.Encode(r)
}

// WriteFlowBatch logs multiple flow rows.
func (f *FileWriter) WriteFlowBatch(rows []flow.Row) error {
	for _, r := range rows {
		if err := f.WriteFlow(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a run-state row, if enabled.
func (f *FileWriter) WriteState(row flow.StateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.flowFile != nil {
		if e := f.flowFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.stateFile != nil {
		if e := f.stateFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
