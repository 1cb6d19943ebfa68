package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casebridge/formatdetect/internal/detect"
	"github.com/casebridge/formatdetect/internal/training"
)

var (
	trainDataset string
	trainOut     string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit P(E|notH) parameters and priors from a labelled dataset",
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainDataset, "dataset", "", "labelled sample dataset (YAML)")
	trainCmd.Flags().StringVar(&trainOut, "out", "", "calibration output path (default from config)")
	_ = trainCmd.MarkFlagRequired("dataset")
}

func runTrain(cmd *cobra.Command, args []string) error {
	samples, err := training.LoadDataset(trainDataset)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("dataset %s contains no samples", trainDataset)
	}

	detector := detect.NewDetector()
	observations := training.BuildObservations(detector, samples)
	logger.WithFields(map[string]any{
		"samples":      len(samples),
		"observations": len(observations),
	}).Info("Dataset loaded")

	learner := training.NewLearner(training.GonumOptimizer{})
	params := learner.LearnFromCrossFormatData(observations)
	priors := training.FitPriors(samples)

	calibration := training.NewCalibration(params, priors)

	// Round-trip through Apply so an unusable calibration is caught
	// before it is written back.
	if err := calibration.Apply(detector); err != nil {
		return fmt.Errorf("refusing to write invalid calibration: %w", err)
	}

	out := trainOut
	if out == "" {
		out = cfg.Training.CalibrationPath
	}
	if err := training.SaveCalibration(out, calibration); err != nil {
		return err
	}

	logger.WithFields(map[string]any{
		"a":    params.A,
		"b":    params.B,
		"c":    params.C,
		"path": out,
	}).Info("Calibration written")

	return nil
}
