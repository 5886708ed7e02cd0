// Wire payload exchanged between nodes and the controller.
package packet

// Kind discriminates the two packet types on the wire.
type Kind int

const (
	// Discovery carries a node's telemetry snapshot toward the controller.
	Discovery Kind = iota
	// Data is an application payload routed through the controller.
	Data
)

func (k Kind) String() string {
	switch k {
	case Discovery:
		return "DISCOVERY"
	case Data:
		return "DATA"
	}
	return "UNKNOWN"
}

// ControllerAddress is the reserved address of the central controller.
const ControllerAddress = 0

// Packet is the single message shape moved by the network fabric. Nodes stamp
// their battery, hop count, and accumulated path delay onto it at every hop.
type Packet struct {
	Src       int
	Dest      int
	Kind      Kind
	Battery   float64 // sender battery level, percent
	Distance  float64 // distance to the controller, metres (discovery only)
	PathDelay float64 // accumulated path delay, seconds
	HopCount  int
	Bytes     int
}
