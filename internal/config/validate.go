package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"os"
)

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	ctx := cuecontext.New()

	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	var configData map[string]interface{}
	if err := yaml.Unmarshal(yamlBytes, &configData); err != nil {
		return fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	configVal := ctx.Encode(configData)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}

	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}

	if err := schemaVal.Subsume(configVal, cue.Final()); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Validate performs the semantic checks the CUE schema cannot express.
func (c *SimulationConfig) Validate() error {
	if c.Topology.Nodes < 2 {
		return fmt.Errorf("topology.nodes must be >= 2 (controller plus at least one node), got %d", c.Topology.Nodes)
	}
	for _, l := range c.Topology.Links {
		if l[0] < 0 || l[0] >= c.Topology.Nodes || l[1] < 0 || l[1] >= c.Topology.Nodes {
			return fmt.Errorf("link [%d,%d] references address outside 0..%d", l[0], l[1], c.Topology.Nodes-1)
		}
		if l[0] == l[1] {
			return fmt.Errorf("link [%d,%d] connects an address to itself", l[0], l[1])
		}
	}
	ranges := map[string]Range{
		"battery.tick_drain":      c.Battery.TickDrain,
		"battery.recharge":        c.Battery.Recharge,
		"battery.tx_drain":        c.Battery.TxDrain,
		"battery.forward_drain":   c.Battery.ForwardDrain,
		"battery.discovery_drain": c.Battery.DiscoveryDrain,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("%s: invalid range [%g,%g)", name, r.Min, r.Max)
		}
	}
	if c.Battery.LowThreshold < 0 || c.Battery.LowThreshold > 100 {
		return fmt.Errorf("battery.low_threshold must be within [0,100], got %g", c.Battery.LowThreshold)
	}
	w := c.Routing.Weights
	if w.Battery < 0 || w.LinkQuality < 0 || w.Distance < 0 || w.Fairness < 0 {
		return fmt.Errorf("routing.weights must be non-negative")
	}
	return nil
}
