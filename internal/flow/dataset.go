package flow

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// DatasetHeader is the column order of the exported CSV dataset. The offline
// training tooling depends on these exact names.
var DatasetHeader = []string{
	"timestamp", "src_addr", "dest_addr", "src_battery", "dest_battery",
	"path_distance", "chosen_path", "path_delay", "path_quality",
}

// Record renders the row as one CSV record. Floats use six decimal places.
func (r Row) Record() []string {
	return []string{
		strconv.FormatFloat(r.Timestamp, 'f', 6, 64),
		strconv.Itoa(r.SrcAddr),
		strconv.Itoa(r.DestAddr),
		strconv.FormatFloat(r.SrcBattery, 'f', 6, 64),
		strconv.FormatFloat(r.DestBattery, 'f', 6, 64),
		strconv.FormatFloat(r.PathDistance, 'f', 6, 64),
		strconv.Itoa(r.ChosenLink),
		strconv.FormatFloat(r.PathDelay, 'f', 6, 64),
		strconv.FormatFloat(r.PathQuality, 'f', 6, 64),
	}
}

// ParseRecord parses one CSV record back into a Row.
func ParseRecord(rec []string) (Row, error) {
	if len(rec) != len(DatasetHeader) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", len(DatasetHeader), len(rec))
	}
	var (
		r   Row
		err error
	)
	if r.Timestamp, err = strconv.ParseFloat(rec[0], 64); err != nil {
		return Row{}, fmt.Errorf("timestamp: %w", err)
	}
	if r.SrcAddr, err = strconv.Atoi(rec[1]); err != nil {
		return Row{}, fmt.Errorf("src_addr: %w", err)
	}
	if r.DestAddr, err = strconv.Atoi(rec[2]); err != nil {
		return Row{}, fmt.Errorf("dest_addr: %w", err)
	}
	if r.SrcBattery, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return Row{}, fmt.Errorf("src_battery: %w", err)
	}
	if r.DestBattery, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return Row{}, fmt.Errorf("dest_battery: %w", err)
	}
	if r.PathDistance, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return Row{}, fmt.Errorf("path_distance: %w", err)
	}
	if r.ChosenLink, err = strconv.Atoi(rec[6]); err != nil {
		return Row{}, fmt.Errorf("chosen_path: %w", err)
	}
	if r.PathDelay, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return Row{}, fmt.Errorf("path_delay: %w", err)
	}
	if r.PathQuality, err = strconv.ParseFloat(rec[8], 64); err != nil {
		return Row{}, fmt.Errorf("path_quality: %w", err)
	}
	return r, nil
}

// ReadDataset loads an exported dataset CSV, skipping the header row.
func ReadDataset(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rows []Row
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == DatasetHeader[0] {
			continue
		}
		r, err := ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
