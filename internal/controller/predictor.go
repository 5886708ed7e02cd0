package controller

import (
	"math"
	"sort"

	"sensornet-sim/internal/flow"
)

// Query is the 3-feature vector the predictor operates on. Features are the
// raw values; normalization (division by 100) happens inside the distance.
type Query struct {
	SrcBattery   float64
	DestBattery  float64
	PathDistance float64
}

// QueryFromRow extracts the predictor features from a recorded flow.
func QueryFromRow(r flow.Row) Query {
	return Query{SrcBattery: r.SrcBattery, DestBattery: r.DestBattery, PathDistance: r.PathDistance}
}

// Predictor is a k-nearest-neighbor path classifier over the flow history.
// It is trained lazily at most once per run; the training set is a frozen
// snapshot that is never updated afterward.
type Predictor struct {
	k       int
	trained bool
	samples []flow.Row
}

// NewPredictor returns an untrained predictor with a fixed neighbor count.
func NewPredictor(k int) *Predictor {
	return &Predictor{k: k}
}

// Trained reports whether the model has been trained.
func (p *Predictor) Trained() bool { return p.trained }

// K returns the fixed neighbor count.
func (p *Predictor) K() int { return p.k }

// SampleCount returns the size of the frozen training set.
func (p *Predictor) SampleCount() int { return len(p.samples) }

// Train freezes a copy of snapshot as the training set. It is an idempotent
// no-op once trained, and reports whether this call performed the training.
func (p *Predictor) Train(snapshot []flow.Row) bool {
	if p.trained {
		return false
	}
	p.samples = make([]flow.Row, len(snapshot))
	copy(p.samples, snapshot)
	p.trained = true
	return true
}

// Predict votes among the k training samples closest to q by Euclidean
// distance in normalized feature space. The distance ordering is stable, so
// equidistant samples keep their insertion order, and vote ties go to the
// link value that reached the winning count first. Returns false when the
// model is untrained or the training set is empty; callers then fall back to
// the traditional strategy.
func (p *Predictor) Predict(q Query) (int, bool) {
	if !p.trained || len(p.samples) == 0 {
		return 0, false
	}

	type candidate struct {
		dist float64
		link int
	}
	candidates := make([]candidate, len(p.samples))
	for i, s := range p.samples {
		candidates[i] = candidate{dist: distance(q, QueryFromRow(s)), link: s.ChosenLink}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	limit := p.k
	if limit > len(candidates) {
		limit = len(candidates)
	}
	votes := make(map[int]int, limit)
	best, maxVotes := -1, 0
	for i := 0; i < limit; i++ {
		link := candidates[i].link
		votes[link]++
		if votes[link] > maxVotes {
			maxVotes = votes[link]
			best = link
		}
	}
	return best, true
}

func distance(a, b Query) float64 {
	d1 := (a.SrcBattery - b.SrcBattery) / 100.0
	d2 := (a.DestBattery - b.DestBattery) / 100.0
	d3 := (a.PathDistance - b.PathDistance) / 100.0
	return math.Sqrt(d1*d1 + d2*d2 + d3*d3)
}
