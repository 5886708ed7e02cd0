// Per-node battery model: a two-state machine gating all transmissions.
package battery

import (
	"math/rand"
)

// State of the battery machine.
type State int

const (
	// Active means the node may originate and forward traffic.
	Active State = iota
	// Charging means the node drops all traffic until fully recharged.
	Charging
)

func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Charging:
		return "CHARGING"
	}
	return "UNKNOWN"
}

// TransitionFunc is invoked whenever the machine changes state.
type TransitionFunc func(from, to State, level float64)

// Config holds the tunables of the battery machine. Drain and recharge
// amounts are drawn uniformly from [Min, Max) per tick.
type Config struct {
	LowThreshold float64 // below this the node enters CHARGING
	TickDrainMin float64
	TickDrainMax float64
	RechargeMin  float64
	RechargeMax  float64
}

// Model is the per-node battery machine. Level is always within [0, 100].
// All randomness flows through the injected source, so a fixed seed yields a
// fully reproducible state trajectory.
type Model struct {
	level        float64
	state        State
	cfg          Config
	rng          *rand.Rand
	onTransition TransitionFunc
}

// New returns a fully charged model in the ACTIVE state.
func New(cfg Config, rng *rand.Rand) *Model {
	return &Model{level: 100.0, state: Active, cfg: cfg, rng: rng}
}

// OnTransition registers a callback fired on every state change.
func (m *Model) OnTransition(fn TransitionFunc) { m.onTransition = fn }

// Level returns the current charge in percent.
func (m *Model) Level() float64 { return m.level }

// State returns the current machine state.
func (m *Model) State() State { return m.state }

// IsActive reports whether the node may transmit.
func (m *Model) IsActive() bool { return m.state == Active }

// Tick advances the machine by one period: a small idle drain while ACTIVE,
// a recharge step while CHARGING. CHARGING ends only at a full 100%.
func (m *Model) Tick() {
	switch m.state {
	case Active:
		m.level -= m.uniform(m.cfg.TickDrainMin, m.cfg.TickDrainMax)
		if m.level < 0 {
			m.level = 0
		}
		if m.level < m.cfg.LowThreshold {
			m.transition(Charging)
		}
	case Charging:
		m.level += m.uniform(m.cfg.RechargeMin, m.cfg.RechargeMax)
		if m.level > 100.0 {
			m.level = 100.0
		}
		if m.level >= 100.0 {
			m.transition(Active)
		}
	}
}

// Drain applies an activity cost in [min, max) for a transmit, forward, or
// discovery attempt. It is a no-op returning false while CHARGING; callers
// must check IsActive first and drop the packet when it returns false.
func (m *Model) Drain(min, max float64) bool {
	if m.state != Active {
		return false
	}
	m.level -= m.uniform(min, max)
	if m.level < 0 {
		m.level = 0
	}
	if m.level == 0 || m.level < m.cfg.LowThreshold {
		m.transition(Charging)
	}
	return true
}

func (m *Model) transition(to State) {
	if m.state == to {
		return
	}
	from := m.state
	m.state = to
	if m.onTransition != nil {
		m.onTransition(from, to, m.level)
	}
}

func (m *Model) uniform(min, max float64) float64 {
	return min + m.rng.Float64()*(max-min)
}
