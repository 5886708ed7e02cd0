package controller

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"sensornet-sim/internal/config"
	"sensornet-sim/internal/flow"
	"sensornet-sim/internal/packet"
)

type mockMetrics struct {
	drops       int
	dropBytes   int
	outputLinks []int
	predictions int
	topology    int
}

func (m *mockMetrics) Drop(addr, bytes int)      { m.drops++; m.dropBytes += bytes }
func (m *mockMetrics) OutputLink(addr, link int) { m.outputLinks = append(m.outputLinks, link) }
func (m *mockMetrics) Prediction(link int)       { m.predictions++ }
func (m *mockMetrics) TopologySize(n int)        { m.topology = n }

type mockSink struct {
	rows []flow.Row
	err  error
}

func (s *mockSink) WriteFlow(r flow.Row) error {
	s.rows = append(s.rows, r)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouting(enableML, energyAware bool) config.Routing {
	return config.Routing{
		EnableML:          enableML,
		TrainingThreshold: 5,
		NeighborsK:        3,
		EnergyAware:       energyAware,
		Weights:           testWeights(),
	}
}

func newTestController(enableML, energyAware bool, numLinks int, sink Sink, metrics Metrics) *Controller {
	return New("test-run", testRouting(enableML, energyAware), 20.0, numLinks,
		sink, metrics, rand.New(rand.NewSource(1)), discardLogger())
}

func dataPacket(src, dest int) packet.Packet {
	return packet.Packet{Src: src, Dest: dest, Kind: packet.Data, Battery: 90, PathDelay: 0.002, HopCount: 1, Bytes: 1024}
}

func TestDecidePathModuloBaseline(t *testing.T) {
	c := newTestController(false, false, 3, nil, &mockMetrics{})
	cases := map[int]int{1: 0, 2: 1, 3: 2, 4: 0, 7: 0}
	for dest, want := range cases {
		link, ok := c.DecidePath(1, dest)
		if !ok {
			t.Fatalf("dest %d: expected a route", dest)
		}
		if link != want {
			t.Errorf("dest %d: expected link %d, got %d", dest, want, link)
		}
	}
}

func TestDecidePathNoLinks(t *testing.T) {
	c := newTestController(false, false, 0, nil, &mockMetrics{})
	if _, ok := c.DecidePath(1, 2); ok {
		t.Errorf("expected no route with zero links")
	}
}

func TestDecidePathEnergyAwareStaysInRange(t *testing.T) {
	c := newTestController(false, true, 4, nil, &mockMetrics{})
	c.HandleDiscovery(packet.Packet{Src: 1, Kind: packet.Discovery, Battery: 5, Distance: 40}, 1.0)
	c.HandleDiscovery(packet.Packet{Src: 2, Kind: packet.Discovery, Battery: 95, Distance: 40}, 1.0)
	for dest := 1; dest <= 8; dest++ {
		link, ok := c.DecidePath(3, dest)
		if !ok || link < 0 || link >= 4 {
			t.Errorf("dest %d: link %d out of range (ok=%v)", dest, link, ok)
		}
	}
}

func TestDecidePathEnergyAwareAvoidsDrainedNeighbor(t *testing.T) {
	c := newTestController(false, true, 2, nil, &mockMetrics{})
	c.HandleDiscovery(packet.Packet{Src: 1, Kind: packet.Discovery, Battery: 5, Distance: 50}, 1.0)
	c.HandleDiscovery(packet.Packet{Src: 2, Kind: packet.Discovery, Battery: 95, Distance: 50}, 1.0)

	// Modulo would pick link 0 (node 1); the scorer overrides to node 2.
	link, ok := c.DecidePath(2, 1)
	if !ok {
		t.Fatalf("expected a route")
	}
	if link != 1 {
		t.Errorf("expected the scorer to avoid the drained neighbor, got link %d", link)
	}
}

func TestRouteDataRecordsFlow(t *testing.T) {
	sink := &mockSink{}
	metrics := &mockMetrics{}
	c := newTestController(false, false, 3, sink, metrics)

	link, ok := c.RouteData(dataPacket(1, 2), 4.5)
	if !ok {
		t.Fatalf("expected a route")
	}
	if link != 1 {
		t.Errorf("expected modulo link 1, got %d", link)
	}
	if c.History().Size() != 1 || c.History().Processed() != 1 {
		t.Errorf("history not updated: size=%d processed=%d", c.History().Size(), c.History().Processed())
	}
	if len(sink.rows) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(sink.rows))
	}

	r := sink.rows[0]
	if r.RunID != "test-run" || r.Timestamp != 4.5 || r.SrcAddr != 1 || r.DestAddr != 2 {
		t.Errorf("unexpected row identity: %+v", r)
	}
	if r.SrcBattery != 100.0 || r.PathDistance != 50.0 {
		t.Errorf("undiscovered endpoints must use the optimistic defaults, got %+v", r)
	}
	if r.PathQuality < 0 || r.PathQuality > 100 {
		t.Errorf("path quality out of range: %v", r.PathQuality)
	}
	if len(metrics.outputLinks) != 1 || metrics.outputLinks[0] != 1 {
		t.Errorf("output link metric missing: %v", metrics.outputLinks)
	}
}

func TestRouteDataUsesDiscoveredMetrics(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(false, false, 3, sink, &mockMetrics{})
	c.HandleDiscovery(packet.Packet{Src: 1, Kind: packet.Discovery, Battery: 62.5, Distance: 71.0}, 2.0)

	c.RouteData(dataPacket(1, 3), 3.0)
	r := sink.rows[0]
	if r.SrcBattery != 62.5 {
		t.Errorf("expected discovered battery 62.5, got %v", r.SrcBattery)
	}
	if r.PathDistance != 71.0 {
		t.Errorf("expected discovered distance 71, got %v", r.PathDistance)
	}
}

func TestRouteDataDropsWithoutLinks(t *testing.T) {
	metrics := &mockMetrics{}
	c := newTestController(false, false, 0, nil, metrics)
	if _, ok := c.RouteData(dataPacket(1, 2), 1.0); ok {
		t.Errorf("expected drop with zero links")
	}
	if metrics.drops != 1 || metrics.dropBytes != 1024 {
		t.Errorf("drop metric missing: drops=%d bytes=%d", metrics.drops, metrics.dropBytes)
	}
	if c.History().Size() != 0 {
		t.Errorf("dropped packet must not be recorded")
	}
}

func TestMaybeTrainAtThreshold(t *testing.T) {
	c := newTestController(true, false, 3, nil, &mockMetrics{})

	for i := 0; i < 4; i++ {
		c.RouteData(dataPacket(1, 2+i%2), float64(i))
		if c.MaybeTrain() {
			t.Fatalf("trained below threshold at flow %d", i+1)
		}
	}
	c.RouteData(dataPacket(1, 2), 5.0)
	if !c.MaybeTrain() {
		t.Fatalf("expected training at threshold 5")
	}
	if !c.Trained() {
		t.Errorf("controller must report trained")
	}
	if c.MaybeTrain() {
		t.Errorf("training must happen at most once")
	}
}

func TestDecidePathMLAfterTraining(t *testing.T) {
	metrics := &mockMetrics{}
	c := newTestController(true, false, 3, nil, metrics)

	for i := 0; i < 5; i++ {
		c.RouteData(dataPacket(1, 1+i%3), float64(i))
	}
	c.MaybeTrain()

	link, ok := c.DecidePath(1, 2)
	if !ok || link < 0 || link >= 3 {
		t.Errorf("ML decision out of range: link=%d ok=%v", link, ok)
	}
	if metrics.predictions == 0 {
		t.Errorf("expected prediction metric after training")
	}
}

func TestHandleDiscoveryPopulatesStore(t *testing.T) {
	c := newTestController(false, false, 3, nil, &mockMetrics{})
	c.HandleDiscovery(packet.Packet{Src: 2, Kind: packet.Discovery, Battery: 77, Distance: 33, PathDelay: 0.004, HopCount: 0}, 6.0)

	m, ok := c.Store().Get(2)
	if !ok {
		t.Fatalf("expected store entry for node 2")
	}
	if m.Battery != 77 || m.Distance != 33 || m.LastUpdate != 6.0 {
		t.Errorf("unexpected entry: %+v", m)
	}
	if m.LinkQuality != 100.0-m.PacketLoss {
		t.Errorf("link quality must derive from loss: %+v", m)
	}
	if m.Neighbors < 1 || m.Neighbors > 4 {
		t.Errorf("neighbor degree out of range: %d", m.Neighbors)
	}
	if m.PacketLoss < 0 || m.PacketLoss >= 5 {
		t.Errorf("packet loss out of range: %v", m.PacketLoss)
	}
}

func TestHistorySinkFailureKeepsRecord(t *testing.T) {
	sink := &mockSink{err: io.ErrClosedPipe}
	c := newTestController(false, false, 3, sink, &mockMetrics{})
	if _, ok := c.RouteData(dataPacket(1, 2), 1.0); !ok {
		t.Fatalf("sink failure must not fail routing")
	}
	if c.History().Size() != 1 {
		t.Errorf("record must be kept despite sink error")
	}
}
