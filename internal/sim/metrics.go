package sim

import "sync"

// RunMetrics collects the telemetry events nodes and the controller emit:
// packet drops (with byte volume), chosen output links, ML predictions, and
// the discovered topology size. Snapshots are safe to take from the admin
// goroutine while the event loop runs.
type RunMetrics struct {
	mu           sync.Mutex
	drops        int
	dropBytes    int64
	links        map[int]int // link index -> selection count
	predictions  int
	topologySize int
}

// NewRunMetrics returns zeroed counters.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{links: make(map[int]int)}
}

// Drop records a dropped packet of the given byte length.
func (m *RunMetrics) Drop(addr, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops++
	m.dropBytes += int64(bytes)
}

// OutputLink records one chosen-outbound-link event.
func (m *RunMetrics) OutputLink(addr, link int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link]++
}

// Prediction records one ML-prediction event.
func (m *RunMetrics) Prediction(link int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

// TopologySize records the latest discovered-node count.
func (m *RunMetrics) TopologySize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topologySize = n
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Drops        int         `json:"drops"`
	DropBytes    int64       `json:"drop_bytes"`
	LinkCounts   map[int]int `json:"link_counts"`
	Predictions  int         `json:"predictions"`
	TopologySize int         `json:"topology_size"`
}

// Snapshot returns a copy of all counters.
func (m *RunMetrics) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := make(map[int]int, len(m.links))
	for k, v := range m.links {
		links[k] = v
	}
	return Stats{
		Drops:        m.drops,
		DropBytes:    m.dropBytes,
		LinkCounts:   links,
		Predictions:  m.predictions,
		TopologySize: m.topologySize,
	}
}
