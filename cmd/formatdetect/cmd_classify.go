package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/casebridge/formatdetect/internal/config"
	"github.com/casebridge/formatdetect/internal/detect"
)

var classifyUncertainty bool

var classifyCmd = &cobra.Command{
	Use:   "classify [files...]",
	Short: "Classify JSON export files and print detection results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyUncertainty, "uncertainty", false,
		"also estimate 95% confidence bounds for the detected format (slow path)")
}

// strategyFromConfig builds the confidence estimator from the detector
// tunables, so configured sampling settings reach the uncertainty path.
func strategyFromConfig(dc config.DetectorConfig) detect.ConfidenceStrategy {
	return &detect.WeightedSumStrategy{
		Samples:      dc.UncertaintySamples,
		Perturbation: dc.Perturbation,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	detector := detect.NewDetectorWith(detect.Config{
		CacheChainLimit: cfg.Cache.ChainLimit,
		Strategy:        strategyFromConfig(cfg.Detector),
		AmbiguityRatio:  cfg.Detector.AmbiguityRatio,
		MinPosterior:    cfg.Detector.MinPosterior,
	})

	type classification struct {
		File   string
		Result detect.DetectionResult
		Bounds *detect.ConfidenceBounds
	}

	results := make([]classification, len(args))

	parallelism := cfg.Training.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	var g errgroup.Group
	g.SetLimit(parallelism)

	var mu sync.Mutex
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			// Malformed JSON still classifies (as UNKNOWN), matching the
			// library's never-fail contract.
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				logger.WithField("file", path).WithError(err).Warn("Invalid JSON, classifying as unknown")
			}

			result := detector.DetectFormat(doc)

			var bounds *detect.ConfidenceBounds
			if classifyUncertainty && result.Format != detect.FormatUnknown {
				_, bounds = detector.EstimateConfidence(doc, result.Format, true)
			}

			mu.Lock()
			results[i] = classification{File: path, Result: result, Bounds: bounds}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, c := range results {
		out := map[string]any{
			"file":   c.File,
			"result": c.Result,
		}
		if c.Bounds != nil {
			out["bounds"] = c.Bounds
		}
		if err := encoder.Encode(out); err != nil {
			return err
		}
	}

	stats := detector.CacheStats()
	logger.WithFields(map[string]any{
		"entries":   stats.Entries,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
	}).Info("Classification complete")

	return nil
}
