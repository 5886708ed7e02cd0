// Simulator orchestrating nodes, the controller, and the event fabric.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"sensornet-sim/internal/battery"
	"sensornet-sim/internal/config"
	"sensornet-sim/internal/controller"
	"sensornet-sim/internal/flow"
	"sensornet-sim/internal/node"
	"sensornet-sim/internal/packet"
	"sensornet-sim/internal/topology"
)

const batteryTickPeriod = 1.0

// Simulator builds the topology, the per-node state machines, and the
// controller, and drives them through the virtual-time scheduler. All event
// handlers run sequentially on the Run goroutine; every timer event and packet
// delivery takes the mutex, so the snapshot methods the admin server calls
// from its own goroutine never observe partial state.
type Simulator struct {
	runID  string
	cfg    *config.SimulationConfig
	sched  *Scheduler
	net    *Network
	graph  *topology.Graph
	nodes  []*node.Node
	ctrl   *controller.Controller
	writer FlowWriter

	metrics *RunMetrics
	rng     *rand.Rand
	log     *slog.Logger
	mu      sync.Mutex
}

// NewSimulator initializes all entities from the configuration. Seed zero
// selects a time-based seed; any other value makes the run reproducible.
func NewSimulator(runID string, cfg *config.SimulationConfig, writer FlowWriter, log *slog.Logger) (*Simulator, error) {
	g, err := buildGraph(cfg.Topology)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(seed))

	s := &Simulator{
		runID:   runID,
		cfg:     cfg,
		sched:   NewScheduler(),
		graph:   g,
		metrics: NewRunMetrics(),
		rng:     root,
		log:     log,
		writer:  writer,
	}
	s.net = NewNetwork(g, s.sched, log)

	batCfg := battery.Config{
		LowThreshold: cfg.Battery.LowThreshold,
		TickDrainMin: cfg.Battery.TickDrain.Min,
		TickDrainMax: cfg.Battery.TickDrain.Max,
		RechargeMin:  cfg.Battery.Recharge.Min,
		RechargeMax:  cfg.Battery.Recharge.Max,
	}
	for addr := 1; addr < cfg.Topology.Nodes; addr++ {
		// Dedicated per-entity generators keep trajectories stable when
		// one entity draws more than another.
		nodeRng := rand.New(rand.NewSource(root.Int63()))
		bat := battery.New(batCfg, nodeRng)
		n := node.New(addr, g, bat, cfg.Battery, s.net, s.metrics, nodeRng, log)
		s.nodes = append(s.nodes, n)
		s.net.Register(addr, s.lockedHandler(n.Receive))
	}

	ctrlRng := rand.New(rand.NewSource(root.Int63()))
	s.ctrl = controller.New(runID, cfg.Routing, cfg.Battery.LowThreshold,
		g.LinkCount(packet.ControllerAddress), writer, s.metrics, ctrlRng, log)
	s.net.Register(packet.ControllerAddress, s.lockedHandler(s.handleControllerPacket))

	log.Info("simulator initialized", "run_id", runID, "nodes", cfg.Topology.Nodes, "seed", seed)
	return s, nil
}

func buildGraph(t config.Topology) (*topology.Graph, error) {
	if len(t.Links) == 0 {
		return topology.Star(t.Nodes), nil
	}
	g := topology.New(t.Nodes)
	for _, l := range t.Links {
		if err := g.AddLink(l[0], l[1]); err != nil {
			return nil, fmt.Errorf("invalid topology: %w", err)
		}
	}
	return g, nil
}

// Run schedules the initial timers and executes the event loop until the
// configured duration. Pending timers past the horizon are discarded.
func (s *Simulator) Run(ctx context.Context) error {
	s.scheduleTimers()
	if err := s.sched.Run(ctx, s.cfg.DurationS); err != nil {
		return err
	}
	s.finalReport()
	return nil
}

func (s *Simulator) scheduleTimers() {
	for _, n := range s.nodes {
		n := n
		s.schedule(batteryTickPeriod, func() { s.batteryTick(n) })
		if s.cfg.Discovery.Enabled {
			s.schedule(s.uniform(0.5, 2.0), func() { s.discoveryTick(n) })
		}
		s.schedule(s.uniform(0, s.cfg.Traffic.IntervalS), func() { s.trafficTick(n) })
	}
	s.schedule(1.0, s.controllerTick)
}

// schedule wraps the event with the snapshot mutex so admin reads never
// observe a half-applied transition.
func (s *Simulator) schedule(delay float64, fn func()) {
	s.sched.ScheduleAfter(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
	})
}

// lockedHandler wraps a packet delivery handler with the same mutex as the
// timer events. Deliveries mutate node batteries and the controller's store
// and history, so they need the lock just as much as the timers do. Sends
// from inside a locked handler only enqueue future events, so the lock never
// nests.
func (s *Simulator) lockedHandler(h func(packet.Packet)) func(packet.Packet) {
	return func(p packet.Packet) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(p)
	}
}

func (s *Simulator) batteryTick(n *node.Node) {
	n.BatteryTick()
	s.schedule(batteryTickPeriod, func() { s.batteryTick(n) })
}

func (s *Simulator) discoveryTick(n *node.Node) {
	n.SendDiscovery()
	s.schedule(s.cfg.Discovery.IntervalS, func() { s.discoveryTick(n) })
}

// trafficTick originates one data packet to a uniformly chosen other node,
// then reschedules itself with jitter around the configured interval.
func (s *Simulator) trafficTick(n *node.Node) {
	if dest, ok := s.randomDest(n.Addr()); ok {
		n.Originate(dest, s.cfg.Traffic.PacketBytes)
	}
	s.schedule(s.cfg.Traffic.IntervalS*s.uniform(0.5, 1.5), func() { s.trafficTick(n) })
}

func (s *Simulator) randomDest(self int) (int, bool) {
	// Data destinations are other nodes, never the controller itself.
	n := s.cfg.Topology.Nodes
	if n <= 2 {
		return 0, false
	}
	dest := 1 + s.rng.Intn(n-1)
	for dest == self {
		dest = 1 + s.rng.Intn(n-1)
	}
	return dest, true
}

// controllerTick is the controller's periodic timer: report the topology,
// attempt training, and export a run-state row.
func (s *Simulator) controllerTick() {
	now := s.sched.Now()
	s.ctrl.Report(now)
	s.ctrl.MaybeTrain()
	s.emitState(now)
	s.schedule(s.cfg.Discovery.IntervalS, s.controllerTick)
}

func (s *Simulator) emitState(now float64) {
	stats := s.metrics.Snapshot()
	row := flow.StateRow{
		RunID:       s.runID,
		Nodes:       s.ctrl.Store().Len(),
		Flows:       s.ctrl.History().Processed(),
		DatasetSize: s.ctrl.History().Size(),
		Drops:       stats.Drops,
		Predictions: stats.Predictions,
		Trained:     s.ctrl.Trained(),
		Timestamp:   now,
	}
	if sw, ok := s.writer.(StateWriter); ok {
		if err := sw.WriteState(row); err != nil {
			s.log.Error("state write failed", "err", err)
		}
	}
	if o, ok := s.writer.(nodeMetricsObserver); ok {
		o.ObserveNodeMetrics(s.ctrl.Store().Snapshot())
	}
}

// handleControllerPacket dispatches packets arriving at address 0. Data
// packets the controller routes are forwarded out the chosen link unchanged.
func (s *Simulator) handleControllerPacket(p packet.Packet) {
	now := s.sched.Now()
	switch p.Kind {
	case packet.Discovery:
		s.ctrl.HandleDiscovery(p, now)
	case packet.Data:
		if link, ok := s.ctrl.RouteData(p, now); ok {
			s.net.Send(packet.ControllerAddress, link, p)
		}
	}
}

func (s *Simulator) finalReport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.metrics.Snapshot()
	s.log.Info("run finished",
		"run_id", s.runID,
		"nodes_discovered", s.ctrl.Store().Len(),
		"flows_recorded", s.ctrl.History().Size(),
		"flows_processed", s.ctrl.History().Processed(),
		"drops", stats.Drops,
		"drop_bytes", stats.DropBytes,
		"predictions", stats.Predictions,
		"trained", s.ctrl.Trained())
	for _, n := range s.nodes {
		s.log.Info("final node state",
			"addr", n.Addr(),
			"battery", n.Battery().Level(),
			"state", n.Battery().State().String(),
			"delivered", n.Delivered())
	}
}

// NodeMetricsSnapshot returns the controller's node database for the admin
// server.
func (s *Simulator) NodeMetricsSnapshot() []flow.NodeMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Store().Snapshot()
}

// RecentFlows returns up to n recent routing decisions.
func (s *Simulator) RecentFlows(n int) []flow.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.History().Recent(n)
}

// Stats returns the run counters.
func (s *Simulator) Stats() Stats {
	return s.metrics.Snapshot()
}

// NodeHealth summarizes one node's battery state for the admin server.
type NodeHealth struct {
	Addr      int     `json:"addr"`
	Battery   float64 `json:"battery"`
	State     string  `json:"state"`
	Delivered int     `json:"delivered"`
}

// Health returns per-node battery health.
func (s *Simulator) Health() []NodeHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]NodeHealth, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, NodeHealth{
			Addr:      n.Addr(),
			Battery:   n.Battery().Level(),
			State:     n.Battery().State().String(),
			Delivered: n.Delivered(),
		})
	}
	return out
}

// RunID returns the run identifier.
func (s *Simulator) RunID() string { return s.runID }

// Trained reports whether the controller's predictor has been trained.
func (s *Simulator) Trained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Trained()
}

func (s *Simulator) uniform(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}
