package detect

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/stat"
)

// ConfidenceBounds is the uncertainty envelope around a confidence
// estimate, produced only on explicit request.
type ConfidenceBounds struct {
	Lower95 float64 `json:"confidence_lower_95"`
	Upper95 float64 `json:"confidence_upper_95"`
	Std     float64 `json:"confidence_std"`
}

// ConfidenceStrategy is implemented by interchangeable estimators over
// derived evidence metrics. With useUncertainty=false the estimate is a
// cheap deterministic score and bounds are nil; with useUncertainty=true
// the estimator additionally resamples within bounded perturbation to
// produce a 95% envelope. The uncertainty path is an order of magnitude
// more expensive and never runs on the default detection hot path.
type ConfidenceStrategy interface {
	CalculateConfidence(m EvidenceMetrics, f SupportedFormat, useUncertainty bool) (float64, *ConfidenceBounds)
}

const (
	defaultSampleCount  = 200
	defaultPerturbation = 0.10
)

// confidence term weights shared by both strategies.
const (
	qualityTermWeight      = 0.5
	completenessTermWeight = 0.3
	uniquenessTermWeight   = 0.2
)

// weightedTerms returns the three weighted contributions in fixed order:
// quality, completeness, uniqueness.
func weightedTerms(m EvidenceMetrics) [3]float64 {
	return [3]float64{
		qualityTermWeight * m.Quality,
		completenessTermWeight * m.Completeness,
		uniquenessTermWeight * m.Uniqueness,
	}
}

// metricsSeed derives a deterministic RNG seed from the metrics and
// format, so repeated uncertainty estimates on identical input are
// bit-identical.
func metricsSeed(m EvidenceMetrics, f SupportedFormat) int64 {
	key := fmt.Sprintf("%s|%.12f|%.12f|%.12f|%d|%d",
		f, m.Completeness, m.Quality, m.Uniqueness, m.EvidenceCount, m.UniqueCount)
	return int64(xxhash.Sum64String(key))
}

// summarize turns a sample set into a point estimate plus 95% bounds.
func summarize(samples []float64) (float64, *ConfidenceBounds) {
	sort.Float64s(samples)

	mean := stat.Mean(samples, nil)
	return clamp01(mean), &ConfidenceBounds{
		Lower95: clamp01(stat.Quantile(0.025, stat.Empirical, samples, nil)),
		Upper95: clamp01(stat.Quantile(0.975, stat.Empirical, samples, nil)),
		Std:     stat.StdDev(samples, nil),
	}
}

// WeightedSumStrategy scores a fixed weighted sum of the metric ratios.
// Its uncertainty path perturbs each weighted term independently within
// the configured interval.
type WeightedSumStrategy struct {
	Samples      int
	Perturbation float64
}

// NewWeightedSumStrategy returns the default estimator used by the
// detector.
func NewWeightedSumStrategy() *WeightedSumStrategy {
	return &WeightedSumStrategy{
		Samples:      defaultSampleCount,
		Perturbation: defaultPerturbation,
	}
}

// CalculateConfidence implements ConfidenceStrategy.
func (s *WeightedSumStrategy) CalculateConfidence(m EvidenceMetrics, f SupportedFormat, useUncertainty bool) (float64, *ConfidenceBounds) {
	terms := weightedTerms(m)
	point := clamp01(terms[0] + terms[1] + terms[2])

	if !useUncertainty {
		return point, nil
	}

	rng := rand.New(rand.NewSource(metricsSeed(m, f)))
	samples := make([]float64, s.sampleCount())
	for i := range samples {
		var sum float64
		for _, term := range terms {
			jitter := 1 + s.perturbation()*(2*rng.Float64()-1)
			sum += term * jitter
		}
		samples[i] = clamp01(sum)
	}

	return summarize(samples)
}

func (s *WeightedSumStrategy) sampleCount() int {
	if s.Samples > 0 {
		return s.Samples
	}
	return defaultSampleCount
}

func (s *WeightedSumStrategy) perturbation() float64 {
	if s.Perturbation > 0 {
		return s.Perturbation
	}
	return defaultPerturbation
}

// BootstrapStrategy resamples the weighted terms with replacement
// before jittering, bootstrap-style, so the envelope also reflects the
// spread between the three metric contributions.
type BootstrapStrategy struct {
	Samples      int
	Perturbation float64
}

// NewBootstrapStrategy returns the resampling estimator.
func NewBootstrapStrategy() *BootstrapStrategy {
	return &BootstrapStrategy{
		Samples:      defaultSampleCount,
		Perturbation: defaultPerturbation,
	}
}

// CalculateConfidence implements ConfidenceStrategy.
func (s *BootstrapStrategy) CalculateConfidence(m EvidenceMetrics, f SupportedFormat, useUncertainty bool) (float64, *ConfidenceBounds) {
	terms := weightedTerms(m)
	point := clamp01(terms[0] + terms[1] + terms[2])

	if !useUncertainty {
		return point, nil
	}

	count := s.Samples
	if count <= 0 {
		count = defaultSampleCount
	}
	perturbation := s.Perturbation
	if perturbation <= 0 {
		perturbation = defaultPerturbation
	}

	rng := rand.New(rand.NewSource(metricsSeed(m, f)))
	samples := make([]float64, count)
	for i := range samples {
		var sum float64
		for range terms {
			term := terms[rng.Intn(len(terms))]
			jitter := 1 + perturbation*(2*rng.Float64()-1)
			sum += term * jitter
		}
		samples[i] = clamp01(sum)
	}

	return summarize(samples)
}
