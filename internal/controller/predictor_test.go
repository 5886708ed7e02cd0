package controller

import (
	"testing"

	"sensornet-sim/internal/flow"
)

func sample(srcBatt, destBatt, dist float64, link int) flow.Row {
	return flow.Row{SrcBattery: srcBatt, DestBattery: destBatt, PathDistance: dist, ChosenLink: link}
}

func TestPredictUntrained(t *testing.T) {
	p := NewPredictor(3)
	if _, ok := p.Predict(Query{SrcBattery: 80, DestBattery: 80, PathDistance: 40}); ok {
		t.Errorf("untrained predictor must decline to predict")
	}
	if p.Trained() {
		t.Errorf("predictor must not report trained before Train")
	}
}

func TestPredictEmptyTrainingSet(t *testing.T) {
	p := NewPredictor(3)
	p.Train(nil)
	if !p.Trained() {
		t.Fatalf("Train must mark the model trained")
	}
	if _, ok := p.Predict(Query{}); ok {
		t.Errorf("empty training set must decline to predict")
	}
}

func TestTrainIsIdempotent(t *testing.T) {
	p := NewPredictor(3)
	if !p.Train([]flow.Row{sample(90, 90, 30, 1)}) {
		t.Fatalf("first Train must report true")
	}
	if p.Train([]flow.Row{sample(10, 10, 90, 2), sample(20, 20, 80, 2)}) {
		t.Errorf("second Train must be a no-op")
	}
	if p.SampleCount() != 1 {
		t.Errorf("training set changed after second Train: %d samples", p.SampleCount())
	}
}

func TestTrainCopiesSnapshot(t *testing.T) {
	rows := []flow.Row{sample(90, 90, 30, 1)}
	p := NewPredictor(1)
	p.Train(rows)
	rows[0].ChosenLink = 2

	link, ok := p.Predict(Query{SrcBattery: 90, DestBattery: 90, PathDistance: 30})
	if !ok || link != 1 {
		t.Errorf("training set must be frozen at Train time, got link %d (ok=%v)", link, ok)
	}
}

func TestPredictMajorityVote(t *testing.T) {
	p := NewPredictor(3)
	p.Train([]flow.Row{
		sample(90, 90, 30, 1),
		sample(88, 92, 28, 1),
		sample(85, 85, 35, 2),
		sample(5, 5, 95, 0), // far outlier, outside the k-neighborhood
	})

	link, ok := p.Predict(Query{SrcBattery: 89, DestBattery: 90, PathDistance: 30})
	if !ok {
		t.Fatalf("expected a prediction")
	}
	if link != 1 {
		t.Errorf("expected majority link 1, got %d", link)
	}
}

func TestPredictVoteTieGoesToFirstWinner(t *testing.T) {
	// Two links with one vote each among k=2: the nearer sample's link
	// reaches the winning count first.
	p := NewPredictor(2)
	p.Train([]flow.Row{
		sample(80, 80, 40, 3),
		sample(70, 70, 50, 1),
	})

	link, ok := p.Predict(Query{SrcBattery: 80, DestBattery: 80, PathDistance: 40})
	if !ok || link != 3 {
		t.Errorf("expected the closest sample's link 3, got %d (ok=%v)", link, ok)
	}
}

func TestPredictKLargerThanTrainingSet(t *testing.T) {
	p := NewPredictor(10)
	p.Train([]flow.Row{sample(50, 50, 50, 2)})
	link, ok := p.Predict(Query{SrcBattery: 10, DestBattery: 10, PathDistance: 10})
	if !ok || link != 2 {
		t.Errorf("expected the single sample's link, got %d (ok=%v)", link, ok)
	}
}

func TestPredictDeterministic(t *testing.T) {
	p := NewPredictor(3)
	p.Train([]flow.Row{
		sample(90, 90, 30, 1),
		sample(60, 70, 50, 2),
		sample(30, 40, 80, 0),
		sample(20, 90, 60, 2),
	})
	q := Query{SrcBattery: 55, DestBattery: 65, PathDistance: 55}
	first, _ := p.Predict(q)
	for i := 0; i < 10; i++ {
		if link, _ := p.Predict(q); link != first {
			t.Fatalf("prediction not deterministic: %d then %d", first, link)
		}
	}
}
