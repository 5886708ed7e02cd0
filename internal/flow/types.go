// Row types shared by the controller and the export sinks.
package flow

import "os"

// NodeMetrics is the controller's last-observed telemetry for one node.
// Entries are overwritten wholesale on every discovery; last received wins.
type NodeMetrics struct {
	Address     int     `json:"address"`
	Battery     float64 `json:"battery"`      // percent, [0,100]
	Distance    float64 `json:"distance"`     // metres to the controller
	AvgDelay    float64 `json:"avg_delay"`    // seconds
	PacketLoss  float64 `json:"packet_loss"`  // percent, [0,100]
	Throughput  float64 `json:"throughput"`   // arbitrary positive unit
	HopCount    int     `json:"hop_count"`
	LinkQuality float64 `json:"link_quality"` // 100 - PacketLoss
	LastUpdate  float64 `json:"last_update"`  // simulation seconds
	Neighbors   int     `json:"neighbors"`    // connected neighbor count, >=1
}

// Row is one routing decision: the unit of the flow history, the training
// set, and the exported dataset.
type Row struct {
	RunID        string  `json:"run_id"`
	Timestamp    float64 `json:"ts"` // simulation seconds
	SrcAddr      int     `json:"src_addr"`
	DestAddr     int     `json:"dest_addr"`
	SrcBattery   float64 `json:"src_battery"`
	DestBattery  float64 `json:"dest_battery"`
	PathDistance float64 `json:"path_distance"`
	ChosenLink   int     `json:"chosen_path"`
	PathDelay    float64 `json:"path_delay"`
	PathQuality  float64 `json:"path_quality"` // [0,100]
}

// FlowTableName is the GreptimeDB table for flow rows. Defaults to
// "flow_decisions" but can be overridden via GREPTIMEDB_TABLE.
var FlowTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "flow_decisions"
}()

func (Row) TableName() string {
	return FlowTableName
}

// StateRow captures controller-side counters at each report interval.
type StateRow struct {
	RunID       string  `json:"run_id"`
	Nodes       int     `json:"nodes"`        // discovered nodes
	Flows       int     `json:"flows"`        // flows processed
	DatasetSize int     `json:"dataset_size"` // flow history length
	Drops       int     `json:"drops"`
	Predictions int     `json:"predictions"`
	Trained     bool    `json:"trained"`
	Timestamp   float64 `json:"ts"` // simulation seconds
}

func (StateRow) TableName() string { return "run_state" }
