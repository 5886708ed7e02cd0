// Node-side behavior: battery-gated origination, forwarding, and discovery.
package node

import (
	"log/slog"
	"math/rand"

	"sensornet-sim/internal/battery"
	"sensornet-sim/internal/config"
	"sensornet-sim/internal/packet"
	"sensornet-sim/internal/topology"
)

const discoveryPacketBytes = 512

// Transport sends a packet out of one of the node's numbered links.
type Transport interface {
	Send(from, link int, p packet.Packet)
}

// Metrics receives node-side telemetry events.
type Metrics interface {
	Drop(addr, bytes int)
	OutputLink(addr, link int)
}

// Node is one battery-constrained network entity. It owns its battery
// machine and its immutable routing table exclusively; controller state is
// only ever seen through packets.
type Node struct {
	addr    int
	bat     *battery.Model
	table   *topology.Table
	tx      Transport
	metrics Metrics
	rng     *rand.Rand
	log     *slog.Logger

	txDrain   config.Range
	fwdDrain  config.Range
	discDrain config.Range

	delivered int
}

// New builds a node with its shortest-path routing table. A missing route to
// the controller is a configuration gap: logged as a warning, never fatal.
func New(addr int, g *topology.Graph, bat *battery.Model, batCfg config.Battery, tx Transport, metrics Metrics, rng *rand.Rand, log *slog.Logger) *Node {
	n := &Node{
		addr:      addr,
		bat:       bat,
		table:     g.Table(addr),
		tx:        tx,
		metrics:   metrics,
		rng:       rng,
		log:       log.With("addr", addr),
		txDrain:   batCfg.TxDrain,
		fwdDrain:  batCfg.ForwardDrain,
		discDrain: batCfg.DiscoveryDrain,
	}
	n.bat.OnTransition(func(from, to battery.State, level float64) {
		n.log.Info("battery state changed", "from", from.String(), "to", to.String(), "level", level)
	})
	if _, ok := n.table.Lookup(packet.ControllerAddress); !ok {
		n.log.Warn("no route to controller, traffic from this node will be dropped")
	}
	n.log.Debug("routing table built", "entries", n.table.Len())
	return n
}

// Addr returns the node address.
func (n *Node) Addr() int { return n.addr }

// Battery returns the node's battery machine.
func (n *Node) Battery() *battery.Model { return n.bat }

// Delivered returns how many packets reached this node as final destination.
func (n *Node) Delivered() int { return n.delivered }

// HasRoute reports whether dest is reachable from this node.
func (n *Node) HasRoute(dest int) bool {
	_, ok := n.table.Lookup(dest)
	return ok
}

// BatteryTick advances the battery machine by one period.
func (n *Node) BatteryTick() { n.bat.Tick() }

// Originate sends a locally generated data packet toward the controller.
// The packet is silently dropped while the battery is CHARGING.
func (n *Node) Originate(dest, bytes int) bool {
	if !n.bat.IsActive() {
		n.log.Debug("battery not available for transmission, dropping local packet")
		return false
	}
	n.bat.Drain(n.txDrain.Min, n.txDrain.Max)

	p := packet.Packet{
		Src:       n.addr,
		Dest:      dest,
		Kind:      packet.Data,
		Battery:   n.bat.Level(),
		PathDelay: n.uniform(0.001, 0.005),
		HopCount:  1,
		Bytes:     bytes,
	}
	link, ok := n.table.Lookup(packet.ControllerAddress)
	if !ok {
		n.log.Warn("no route to controller, dropping", "dest", dest)
		n.metrics.Drop(n.addr, p.Bytes)
		return false
	}
	n.metrics.OutputLink(n.addr, link)
	n.tx.Send(n.addr, link, p)
	return true
}

// Receive handles a packet arriving from the network. Final delivery is
// unconditional; transit forwarding is battery-gated and costs a smaller
// drain than origination.
func (n *Node) Receive(p packet.Packet) {
	if p.Dest == n.addr {
		n.delivered++
		n.log.Debug("packet arrived at destination", "src", p.Src, "hops", p.HopCount, "delay", p.PathDelay)
		return
	}

	if !n.bat.IsActive() {
		n.log.Debug("battery not available for forwarding, dropping transit packet", "dest", p.Dest)
		return
	}
	n.bat.Drain(n.fwdDrain.Min, n.fwdDrain.Max)

	p.Battery = n.bat.Level()
	p.HopCount++
	p.PathDelay += n.uniform(0.001, 0.005)

	link, ok := n.table.Lookup(p.Dest)
	if !ok {
		n.log.Warn("no route, dropping", "dest", p.Dest)
		n.metrics.Drop(n.addr, p.Bytes)
		return
	}
	n.metrics.OutputLink(n.addr, link)
	n.tx.Send(n.addr, link, p)
}

// SendDiscovery emits one telemetry snapshot toward the controller. Skipped
// without cost while CHARGING.
func (n *Node) SendDiscovery() bool {
	if !n.bat.IsActive() {
		n.log.Debug("battery not available, skipping discovery", "state", n.bat.State().String())
		return false
	}
	n.bat.Drain(n.discDrain.Min, n.discDrain.Max)

	p := packet.Packet{
		Src:       n.addr,
		Dest:      packet.ControllerAddress,
		Kind:      packet.Discovery,
		Battery:   n.bat.Level(),
		Distance:  n.distanceToController(),
		PathDelay: n.uniform(0.001, 0.01),
		HopCount:  0,
		Bytes:     discoveryPacketBytes,
	}
	link, ok := n.table.Lookup(packet.ControllerAddress)
	if !ok {
		n.log.Warn("no route to controller, discovery dropped")
		return false
	}
	n.tx.Send(n.addr, link, p)
	return true
}

// distanceToController is the synthetic distance model: a uniform base plus
// an address-proportional offset.
func (n *Node) distanceToController() float64 {
	return n.uniform(10.0, 100.0) + float64(n.addr)*5.0
}

func (n *Node) uniform(min, max float64) float64 {
	return min + n.rng.Float64()*(max-min)
}
