package sim

import (
	"context"
	"log"
	"net"
	"strconv"
	"time"

	"sensornet-sim/internal/flow"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// tableTTL is applied as a write hint so auto-created tables keep the same
// retention the DDL used to declare (WITH ttl='30d').
const tableTTL = "ttl=30d"

// GreptimeDBWriter writes flow and state rows to GreptimeDB via the ingester
// client. Simulation timestamps (virtual seconds) are anchored to the wall
// clock at writer creation for the time index.
type GreptimeDBWriter struct {
	client     *greptime.Client
	db         string
	flowTable  string
	stateTable string
	start      time.Time
}

// NewGreptimeDBWriter creates a new GreptimeDB writer; tables are auto-created
// on first write with a 30d TTL hint.
func NewGreptimeDBWriter(endpoint, database, flowTable, stateTable string) (*GreptimeDBWriter, error) {
	if flowTable == "" {
		flowTable = flow.Row{}.TableName()
	}
	if stateTable == "" {
		stateTable = flow.StateRow{}.TableName()
	}

	host := endpoint
	cfg := greptime.NewConfig(host)
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		if port, perr := strconv.Atoi(p); perr == nil {
			cfg = greptime.NewConfig(h).WithPort(port)
		}
	}
	cfg = cfg.WithDatabase(database)

	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client:     client,
		db:         database,
		flowTable:  flowTable,
		stateTable: stateTable,
		start:      time.Now().UTC(),
	}, nil
}

// WriteFlow inserts a single flow row.
func (w *GreptimeDBWriter) WriteFlow(r flow.Row) error {
	return w.WriteFlowBatch([]flow.Row{r})
}

// WriteFlowBatch inserts multiple flow rows.
func (w *GreptimeDBWriter) WriteFlowBatch(rows []flow.Row) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background(), ingesterContext.WithHints(tableTTL))

	tbl, err := table.New(w.flowTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("src_addr", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("dest_addr", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("src_battery", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("dest_battery", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("path_distance", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("chosen_path", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("path_delay", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("path_quality", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("sim_time", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(
			r.RunID,
			int64(r.SrcAddr),
			int64(r.DestAddr),
			r.SrcBattery,
			r.DestBattery,
			r.PathDistance,
			int64(r.ChosenLink),
			r.PathDelay,
			r.PathQuality,
			r.Timestamp,
			w.wallTime(r.Timestamp),
		); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeDBWriter] flow write failed: %v", err)
		return err
	}
	return nil
}

// WriteState inserts a run-state row.
func (w *GreptimeDBWriter) WriteState(row flow.StateRow) error {
	ctx := ingesterContext.New(context.Background(), ingesterContext.WithHints(tableTTL))

	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("nodes", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("flows", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("dataset_size", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("drops", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("predictions", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("trained", types.BOOLEAN); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	if err := tbl.AddRow(
		row.RunID,
		int64(row.Nodes),
		int64(row.Flows),
		int64(row.DatasetSize),
		int64(row.Drops),
		int64(row.Predictions),
		row.Trained,
		w.wallTime(row.Timestamp),
	); err != nil {
		return err
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeDBWriter] state write failed: %v", err)
		return err
	}
	return nil
}

func (w *GreptimeDBWriter) wallTime(simSeconds float64) time.Time {
	return w.start.Add(time.Duration(simSeconds * float64(time.Second)))
}
