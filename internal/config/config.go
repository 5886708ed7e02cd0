// YAML config loader with CUE validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Range is a half-open [Min, Max) interval for uniform random draws.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Topology describes the static node graph. Addresses run 0..Nodes-1 and
// address 0 is the controller. An empty link list means a star centred on
// the controller.
type Topology struct {
	Nodes int      `yaml:"nodes"`
	Links [][2]int `yaml:"links"`
}

// Traffic controls locally originated data packets.
type Traffic struct {
	IntervalS   float64 `yaml:"interval_s"`
	PacketBytes int     `yaml:"packet_bytes"`
}

// Discovery controls the periodic telemetry packets nodes send to the
// controller.
type Discovery struct {
	Enabled   bool    `yaml:"enabled"`
	IntervalS float64 `yaml:"interval_s"`
}

// Battery holds the battery machine tunables shared by all nodes.
type Battery struct {
	LowThreshold   float64 `yaml:"low_threshold"`
	TickDrain      Range   `yaml:"tick_drain"`
	Recharge       Range   `yaml:"recharge"`
	TxDrain        Range   `yaml:"tx_drain"`
	ForwardDrain   Range   `yaml:"forward_drain"`
	DiscoveryDrain Range   `yaml:"discovery_drain"`
}

// Weights of the energy-aware link score.
type Weights struct {
	Battery     float64 `yaml:"battery"`
	LinkQuality float64 `yaml:"link_quality"`
	Distance    float64 `yaml:"distance"`
	Fairness    float64 `yaml:"fairness"`
}

// Routing selects and tunes the controller's path-selection strategy.
type Routing struct {
	EnableML          bool    `yaml:"enable_ml"`
	TrainingThreshold int     `yaml:"training_threshold"`
	NeighborsK        int     `yaml:"neighbors_k"`
	EnergyAware       bool    `yaml:"energy_aware"`
	Weights           Weights `yaml:"weights"`
}

// SimulationConfig is the root configuration.
type SimulationConfig struct {
	NetworkID   string    `yaml:"network_id"`
	Topology    Topology  `yaml:"topology"`
	Traffic     Traffic   `yaml:"traffic"`
	Discovery   Discovery `yaml:"discovery"`
	Battery     Battery   `yaml:"battery"`
	Routing     Routing   `yaml:"routing"`
	DatasetFile string    `yaml:"dataset_file"`
	DurationS   float64   `yaml:"duration_s"`
	Seed        int64     `yaml:"seed"`
}

// Load loads a YAML config, validates it against the CUE schema, applies
// defaults, and runs semantic validation.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with the defaults of the reference
// scenario.
func (c *SimulationConfig) ApplyDefaults() {
	if c.NetworkID == "" {
		c.NetworkID = "mesh-01"
	}
	if c.Traffic.IntervalS <= 0 {
		c.Traffic.IntervalS = 0.5
	}
	if c.Traffic.PacketBytes <= 0 {
		c.Traffic.PacketBytes = 1024
	}
	if c.Discovery.IntervalS <= 0 {
		c.Discovery.IntervalS = 3.0
	}
	if c.Battery.LowThreshold <= 0 {
		c.Battery.LowThreshold = 20.0
	}
	defaultRange := func(r *Range, min, max float64) {
		if r.Min == 0 && r.Max == 0 {
			r.Min, r.Max = min, max
		}
	}
	defaultRange(&c.Battery.TickDrain, 0.01, 0.03)
	defaultRange(&c.Battery.Recharge, 0.2, 0.5)
	defaultRange(&c.Battery.TxDrain, 0.05, 0.2)
	defaultRange(&c.Battery.ForwardDrain, 0.02, 0.1)
	defaultRange(&c.Battery.DiscoveryDrain, 0.1, 0.5)
	if c.Routing.TrainingThreshold <= 0 {
		c.Routing.TrainingThreshold = 20
	}
	if c.Routing.NeighborsK <= 0 {
		c.Routing.NeighborsK = 3
	}
	if c.Routing.Weights == (Weights{}) {
		c.Routing.Weights = Weights{Battery: 0.4, LinkQuality: 0.3, Distance: 0.2, Fairness: 0.1}
	}
	if c.DurationS <= 0 {
		c.DurationS = 120
	}
}
