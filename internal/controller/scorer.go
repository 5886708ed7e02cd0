package controller

import (
	"math"

	"sensornet-sim/internal/config"
)

// Optimistic placeholder metrics for neighbors that have never sent a
// discovery packet, so unexplored links are not unfairly penalized.
const (
	defaultBattery   = 100.0
	defaultQuality   = 90.0
	defaultProximity = 50.0
	defaultDegree    = 1.0

	lowBatteryPenalty = 50.0
	preferredBonus    = 5.0
)

// Scorer ranks the controller's outbound links by a weighted combination of
// neighbor battery, link quality, proximity, and fairness. The baseline
// choice of the path-selection strategy is passed in as the preferred link
// and receives a small additive bonus rather than a hard override.
type Scorer struct {
	weights      config.Weights
	lowThreshold float64
	store        *MetricsStore
}

// NewScorer returns a scorer reading neighbor metrics from store.
func NewScorer(store *MetricsStore, weights config.Weights, lowThreshold float64) *Scorer {
	return &Scorer{weights: weights, lowThreshold: lowThreshold, store: store}
}

// Score returns the best-scoring link among 0..numLinks-1, or false when
// there are no links at all. Link i maps to neighbor address i+1 in this
// topology convention. Ties keep the first-encountered (lowest) index.
func (s *Scorer) Score(numLinks, preferred int) (int, bool) {
	if numLinks <= 0 {
		return 0, false
	}

	avgBattery := s.store.AverageBattery()
	bestScore := math.Inf(-1)
	best := preferred

	for i := 0; i < numLinks; i++ {
		neighbor := i + 1

		battery := defaultBattery
		quality := defaultQuality
		proximity := defaultProximity
		degree := defaultDegree
		if m, ok := s.store.Get(neighbor); ok {
			battery = m.Battery
			quality = m.LinkQuality
			proximity = 100.0 - math.Min(m.Distance, 100.0)
			degree = float64(m.Neighbors)
		}

		fairnessPenalty := 0.0
		if battery < avgBattery {
			fairnessPenalty = avgBattery - battery
		}

		score := s.weights.Battery*battery +
			s.weights.LinkQuality*quality +
			s.weights.Distance*proximity +
			s.weights.Fairness*degree -
			s.weights.Fairness*fairnessPenalty

		if battery < s.lowThreshold {
			score -= lowBatteryPenalty
		}
		if i == preferred {
			score += preferredBonus
		}

		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best, true
}
