package controller

import (
	"sort"

	"sensornet-sim/internal/flow"
)

// MetricsStore maps node addresses to their last-observed telemetry.
// Updates overwrite wholesale; entries are never deleted during a run.
type MetricsStore struct {
	nodes map[int]flow.NodeMetrics
}

// NewMetricsStore returns an empty store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{nodes: make(map[int]flow.NodeMetrics)}
}

// Update inserts or overwrites the entry for m.Address. Last writer wins;
// discovery packets carry monotonically increasing timestamps, so in practice
// this is last received wins.
func (s *MetricsStore) Update(m flow.NodeMetrics) {
	s.nodes[m.Address] = m
}

// Get returns the entry for addr, if any.
func (s *MetricsStore) Get(addr int) (flow.NodeMetrics, bool) {
	m, ok := s.nodes[addr]
	return m, ok
}

// Len returns the number of discovered nodes.
func (s *MetricsStore) Len() int { return len(s.nodes) }

// AverageBattery returns the mean battery level over all entries, or exactly
// 100.0 for an empty store.
func (s *MetricsStore) AverageBattery() float64 {
	if len(s.nodes) == 0 {
		return 100.0
	}
	sum := 0.0
	for _, m := range s.nodes {
		sum += m.Battery
	}
	return sum / float64(len(s.nodes))
}

// Snapshot returns all entries ordered by address.
func (s *MetricsStore) Snapshot() []flow.NodeMetrics {
	out := make([]flow.NodeMetrics, 0, len(s.nodes))
	for _, m := range s.nodes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
