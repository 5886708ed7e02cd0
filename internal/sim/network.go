package sim

import (
	"log/slog"

	"sensornet-sim/internal/packet"
	"sensornet-sim/internal/topology"
)

// propagationDelay is the fixed per-hop transfer latency in virtual seconds.
const propagationDelay = 0.001

// Network delivers packets over the static topology: an outbound link index
// resolves to the peer address, and delivery is scheduled one propagation
// delay later. There is no loss model; drops only happen inside entities.
type Network struct {
	graph    *topology.Graph
	sched    *Scheduler
	handlers map[int]func(packet.Packet)
	log      *slog.Logger
}

// NewNetwork returns a fabric over g driven by sched.
func NewNetwork(g *topology.Graph, sched *Scheduler, log *slog.Logger) *Network {
	return &Network{graph: g, sched: sched, handlers: make(map[int]func(packet.Packet)), log: log}
}

// Register installs the receive handler for addr.
func (nw *Network) Register(addr int, h func(packet.Packet)) {
	nw.handlers[addr] = h
}

// Send schedules delivery of p to the peer behind the given link of from.
// An invalid link index is a programming error upstream and is only logged.
func (nw *Network) Send(from, link int, p packet.Packet) {
	peer, ok := nw.graph.Neighbor(from, link)
	if !ok {
		nw.log.Warn("send on invalid link", "from", from, "link", link)
		return
	}
	h, ok := nw.handlers[peer]
	if !ok {
		nw.log.Warn("no handler registered", "addr", peer)
		return
	}
	nw.sched.ScheduleAfter(propagationDelay, func() { h(p) })
}
