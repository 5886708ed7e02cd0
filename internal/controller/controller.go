// Central controller: ingests discovery telemetry, trains the path predictor,
// and decides the output link for every data flow.
package controller

import (
	"log/slog"
	"math"
	"math/rand"

	"sensornet-sim/internal/config"
	"sensornet-sim/internal/flow"
	"sensornet-sim/internal/packet"
)

// Metrics receives controller-side telemetry events.
type Metrics interface {
	Drop(addr, bytes int)
	OutputLink(addr, link int)
	Prediction(link int)
	TopologySize(n int)
}

// Controller owns the node database, the flow history, and the decision
// engine composing the routing table baseline, the energy-aware scorer, and
// the KNN predictor.
type Controller struct {
	addr     int
	runID    string
	cfg      config.Routing
	numLinks int

	store     *MetricsStore
	history   *History
	predictor *Predictor
	scorer    *Scorer

	rng     *rand.Rand
	log     *slog.Logger
	metrics Metrics
}

// New wires a controller for a topology with numLinks outbound links.
func New(runID string, cfg config.Routing, lowBattery float64, numLinks int, sink Sink, metrics Metrics, rng *rand.Rand, log *slog.Logger) *Controller {
	store := NewMetricsStore()
	c := &Controller{
		addr:      packet.ControllerAddress,
		runID:     runID,
		cfg:       cfg,
		numLinks:  numLinks,
		store:     store,
		history:   NewHistory(sink, log),
		predictor: NewPredictor(cfg.NeighborsK),
		scorer:    NewScorer(store, cfg.Weights, lowBattery),
		rng:       rng,
		log:       log,
		metrics:   metrics,
	}
	log.Info("controller initialized",
		"addr", c.addr,
		"links", numLinks,
		"ml_routing", cfg.EnableML,
		"training_threshold", cfg.TrainingThreshold,
		"energy_aware", cfg.EnergyAware,
		"low_battery_threshold", lowBattery)
	return c
}

// HandleDiscovery ingests one discovery packet into the node database.
// Packet loss, throughput, and neighbor degree are sampled synthetically;
// link quality derives from the loss. The entry overwrites any previous one.
func (c *Controller) HandleDiscovery(p packet.Packet, now float64) {
	loss := c.uniform(0, 5)
	m := flow.NodeMetrics{
		Address:     p.Src,
		Battery:     p.Battery,
		Distance:    p.Distance,
		AvgDelay:    p.PathDelay,
		PacketLoss:  loss,
		Throughput:  c.uniform(1, 10),
		HopCount:    p.HopCount,
		LinkQuality: 100.0 - loss,
		LastUpdate:  now,
		Neighbors:   1 + c.rng.Intn(4),
	}
	c.store.Update(m)
	c.log.Debug("discovery processed", "addr", p.Src, "battery", p.Battery, "distance", p.Distance)
}

// RouteData decides the output link for a data packet and records the flow.
// Returns false when no link exists at all; the caller drops the packet.
func (c *Controller) RouteData(p packet.Packet, now float64) (int, bool) {
	link, ok := c.DecidePath(p.Src, p.Dest)
	if !ok {
		c.log.Warn("no valid route, dropping packet", "src", p.Src, "dest", p.Dest)
		c.metrics.Drop(c.addr, p.Bytes)
		return 0, false
	}

	r := flow.Row{
		RunID:        c.runID,
		Timestamp:    now,
		SrcAddr:      p.Src,
		DestAddr:     p.Dest,
		SrcBattery:   c.batteryOf(p.Src),
		DestBattery:  c.batteryOf(p.Dest),
		PathDistance: c.distanceOf(p.Src),
		ChosenLink:   link,
		PathDelay:    p.PathDelay,
		PathQuality:  c.pathQuality(p.Src, p.Dest),
	}
	c.history.Append(r)
	c.metrics.OutputLink(c.addr, link)
	c.log.Debug("flow routed", "num", c.history.Processed(), "src", p.Src, "dest", p.Dest, "link", link)
	return link, true
}

// DecidePath composes the predictor, the traditional modulo mapping, and the
// energy-aware scorer into one decision:
//
//  1. trained ML predictor (when enabled) or the modulo mapping proposes a
//     baseline link,
//  2. the energy-aware scorer (when enabled) refines it, keeping the baseline
//     as the preferred link,
//  3. an out-of-range result falls back to the modulo mapping,
//  4. with zero links there is no route.
func (c *Controller) DecidePath(src, dest int) (int, bool) {
	if c.numLinks <= 0 {
		return 0, false
	}

	var link int
	if c.cfg.EnableML && c.predictor.Trained() {
		predicted, ok := c.predictor.Predict(c.query(src, dest))
		if !ok || predicted < 0 || predicted >= c.numLinks {
			predicted = c.moduloLink(dest)
		}
		c.metrics.Prediction(predicted)
		link = predicted
		if c.cfg.EnergyAware {
			link, _ = c.scorer.Score(c.numLinks, predicted)
		}
	} else {
		direct := c.moduloLink(dest)
		link = direct
		if c.cfg.EnergyAware {
			link, _ = c.scorer.Score(c.numLinks, direct)
		}
	}

	if link < 0 || link >= c.numLinks {
		link = c.moduloLink(dest)
	}
	return link, true
}

// MaybeTrain trains the predictor once the flow history reaches the training
// threshold. Reports whether training happened on this call.
func (c *Controller) MaybeTrain() bool {
	if c.predictor.Trained() || c.history.Size() < c.cfg.TrainingThreshold {
		return false
	}
	c.predictor.Train(c.history.Snapshot())
	c.log.Info("ML model trained",
		"model", "k-nearest-neighbors",
		"k", c.predictor.K(),
		"samples", c.predictor.SampleCount())
	return true
}

// Report logs the periodic topology summary and emits the topology-size
// metric.
func (c *Controller) Report(now float64) {
	c.log.Info("topology report",
		"time", now,
		"nodes", c.store.Len(),
		"dataset_size", c.history.Size(),
		"flows_processed", c.history.Processed(),
		"trained", c.predictor.Trained())
	for _, m := range c.store.Snapshot() {
		c.log.Debug("node metrics",
			"addr", m.Address,
			"battery", m.Battery,
			"distance", m.Distance,
			"delay", m.AvgDelay,
			"quality", m.LinkQuality)
	}
	c.metrics.TopologySize(c.store.Len())
}

// moduloLink is the default star-topology mapping from destination address to
// output link.
func (c *Controller) moduloLink(dest int) int {
	link := (dest - 1) % c.numLinks
	if link < 0 {
		link += c.numLinks
	}
	return link
}

func (c *Controller) query(src, dest int) Query {
	return Query{
		SrcBattery:   c.batteryOf(src),
		DestBattery:  c.batteryOf(dest),
		PathDistance: c.distanceOf(src),
	}
}

func (c *Controller) batteryOf(addr int) float64 {
	if m, ok := c.store.Get(addr); ok {
		return m.Battery
	}
	return 100.0
}

func (c *Controller) distanceOf(addr int) float64 {
	if m, ok := c.store.Get(addr); ok {
		return m.Distance
	}
	return 50.0
}

// pathQuality blends link quality and battery of both endpoints with noise
// into the exported [0,100] score.
func (c *Controller) pathQuality(src, dest int) float64 {
	quality := 50.0
	if m, ok := c.store.Get(src); ok {
		quality += m.LinkQuality*0.25 + m.Battery*0.15
	}
	if m, ok := c.store.Get(dest); ok {
		quality += m.LinkQuality*0.25 + m.Battery*0.15
	}
	quality += c.uniform(-10, 10)
	return math.Max(0.0, math.Min(100.0, quality))
}

func (c *Controller) uniform(min, max float64) float64 {
	return min + c.rng.Float64()*(max-min)
}

// Store exposes the node database for reports and the admin server.
func (c *Controller) Store() *MetricsStore { return c.store }

// History exposes the flow history for reports and the admin server.
func (c *Controller) History() *History { return c.history }

// Trained reports whether the predictor has been trained.
func (c *Controller) Trained() bool { return c.predictor.Trained() }
