package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"sensornet-sim/internal/controller"
	"sensornet-sim/internal/flow"
)

var (
	trainInput     string
	trainTestFrac  float64
	trainNeighbors int
	trainSeed      int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Evaluate the KNN path model on a recorded dataset",
	Long:  "train loads a flow dataset CSV, splits it into training and test sets, and reports the k-nearest-neighbor prediction accuracy against the controller's recorded decisions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if trainInput == "" {
			return fmt.Errorf("input dataset required")
		}
		if trainTestFrac <= 0 || trainTestFrac >= 1 {
			return fmt.Errorf("test fraction must be in (0,1), got %v", trainTestFrac)
		}

		rows, err := flow.ReadDataset(trainInput)
		if err != nil {
			return err
		}
		if len(rows) < 2 {
			return fmt.Errorf("dataset too small: %d rows", len(rows))
		}

		rng := rand.New(rand.NewSource(trainSeed))
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		split := int(float64(len(rows)) * (1 - trainTestFrac))
		if split < 1 {
			split = 1
		}
		if split >= len(rows) {
			split = len(rows) - 1
		}
		train, test := rows[:split], rows[split:]

		p := controller.NewPredictor(trainNeighbors)
		p.Train(train)

		correct := 0
		for _, r := range test {
			if link, ok := p.Predict(controller.QueryFromRow(r)); ok && link == r.ChosenLink {
				correct++
			}
		}

		fmt.Printf("dataset: %s\n", trainInput)
		fmt.Printf("samples: %d (train %d, test %d)\n", len(rows), len(train), len(test))
		fmt.Printf("k: %d\n", trainNeighbors)
		fmt.Printf("accuracy: %.2f%% (%d/%d)\n", 100*float64(correct)/float64(len(test)), correct, len(test))
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainInput, "input", "", "Path to flow dataset CSV")
	trainCmd.Flags().Float64Var(&trainTestFrac, "test-fraction", 0.2, "Fraction of rows held out for evaluation")
	trainCmd.Flags().IntVar(&trainNeighbors, "k", 3, "Number of neighbors")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "Shuffle seed")
	trainCmd.MarkFlagRequired("input")
}
