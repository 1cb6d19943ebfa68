package detect

import (
	"log/slog"
	"time"

	"github.com/casebridge/formatdetect/internal/cache"
)

// Config carries optional detector settings. Zero values mean "use the
// compiled-in defaults"; invalid priors or parameters are rejected
// through their validators with the defaults retained.
type Config struct {
	CacheChainLimit int
	Strategy        ConfidenceStrategy
	Priors          Priors
	PENotH          *PENotHParams
	AmbiguityRatio  float64
	MinPosterior    float64
}

// Detector orchestrates evidence collection, likelihood, Bayesian
// combination, and the detection cache. It is the only component other
// code calls, and it is safe for concurrent use.
type Detector struct {
	registry  *Registry
	collector *Collector
	combiner  *Combiner
	strategy  ConfidenceStrategy
	cache     *cache.DetectionCache
	logger    *slog.Logger
}

// NewDetector builds a detector with default calibration.
func NewDetector() *Detector {
	return NewDetectorWith(Config{})
}

// NewDetectorWith builds a detector from the given settings.
func NewDetectorWith(cfg Config) *Detector {
	registry := NewRegistry()

	d := &Detector{
		registry:  registry,
		collector: NewCollector(registry),
		combiner:  NewCombiner(),
		strategy:  NewWeightedSumStrategy(),
		cache:     cache.New(cfg.CacheChainLimit),
		logger:    slog.Default().With("component", "detector"),
	}

	if cfg.Strategy != nil {
		d.strategy = cfg.Strategy
	}
	if cfg.Priors != nil {
		// Invalid tables are logged and dropped by the combiner.
		_ = d.combiner.SetPriors(cfg.Priors)
	}
	if cfg.PENotH != nil {
		_ = d.combiner.SetPENotH(*cfg.PENotH)
	}
	d.combiner.SetThresholds(cfg.AmbiguityRatio, cfg.MinPosterior)

	return d
}

// SetPriors replaces the prior table, gated through validation.
func (d *Detector) SetPriors(p Priors) error {
	return d.combiner.SetPriors(p)
}

// SetPENotH replaces the P(E|not-H) calibration, gated through validation.
func (d *Detector) SetPENotH(p PENotHParams) error {
	return d.combiner.SetPENotH(p)
}

// RefreshPatterns rebuilds the compiled rule table from the registry.
// Used by the offline learner after recalibration.
func (d *Detector) RefreshPatterns() {
	d.collector.RefreshPatterns()
}

// ClearCache drops all memoized classifications.
func (d *Detector) ClearCache() {
	d.cache.Clear()
}

// CacheStats returns a snapshot of the detection cache counters.
func (d *Detector) CacheStats() cache.Stats {
	return d.cache.Stats()
}

// DetectFormat classifies a single already-deserialized JSON document.
// It never panics and never errors: malformed or non-object input
// classifies as UNKNOWN with zeroed confidences.
func (d *Detector) DetectFormat(doc any) (result DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("detection recovered from panic, returning unknown", "panic", r)
			result = unknownResult()
		}
	}()

	obj, ok := doc.(map[string]any)
	if !ok || len(obj) == 0 {
		return unknownResult()
	}

	canonical := cache.Canonicalize(obj)
	if cached, hit := d.cache.Get(canonical); hit {
		if res, isResult := cached.(DetectionResult); isResult {
			return res.Clone()
		}
	}

	start := time.Now()

	likelihoods := make(map[SupportedFormat]float64, len(DetectionOrder))
	posteriors := make(map[SupportedFormat]float64, len(DetectionOrder))
	itemsByFormat := make(map[SupportedFormat][]EvidenceItem, len(DetectionOrder))

	for _, f := range DetectionOrder {
		items, total := d.collector.CollectEvidence(obj, f)
		l := Likelihood(items, total)

		likelihoods[f] = l
		posteriors[f] = d.combiner.Posterior(f, l)
		itemsByFormat[f] = items
	}

	winner := d.combiner.Decide(likelihoods, posteriors)

	result = DetectionResult{
		Format:      winner,
		Confidences: posteriors,
		Evidence:    buildEvidenceSummary(itemsByFormat[winner], cache.ComputeStats(obj)),
	}

	d.cache.Put(canonical, result.Clone())

	d.logger.Debug("format detected",
		"format", winner.Slug(),
		"evidence_count", len(itemsByFormat[winner]),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result
}

// FormatConfidence returns the posterior confidence that doc belongs to
// format f. Shares the cache with DetectFormat and never errors.
func (d *Detector) FormatConfidence(doc any, f SupportedFormat) float64 {
	return d.DetectFormat(doc).Confidences[f]
}

// EstimateConfidence scores one format's evidence metrics through the
// configured confidence strategy. The uncertainty path only runs when
// explicitly requested; it is far more expensive than the default.
func (d *Detector) EstimateConfidence(doc any, f SupportedFormat, useUncertainty bool) (float64, *ConfidenceBounds) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return 0, nil
	}

	def, known := d.registry.Definition(f)
	if !known {
		return 0, nil
	}

	items, total := d.collector.CollectEvidence(obj, f)
	metrics := ComputeMetrics(def, items, Likelihood(items, total))

	return d.strategy.CalculateConfidence(metrics, f, useUncertainty)
}

// Metrics exposes the derived evidence metrics for one format, used by
// the offline trainer when generating cross-format observations.
func (d *Detector) Metrics(doc any, f SupportedFormat) (EvidenceMetrics, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return EvidenceMetrics{}, false
	}

	def, known := d.registry.Definition(f)
	if !known {
		return EvidenceMetrics{}, false
	}

	items, total := d.collector.CollectEvidence(obj, f)
	return ComputeMetrics(def, items, Likelihood(items, total)), true
}

// Likelihoods returns the raw per-format likelihoods for a document,
// in detection order. Offline tooling uses this to build training
// observations; it bypasses the cache.
func (d *Detector) Likelihoods(doc any) map[SupportedFormat]float64 {
	out := make(map[SupportedFormat]float64, len(DetectionOrder))

	obj, ok := doc.(map[string]any)
	if !ok {
		for _, f := range DetectionOrder {
			out[f] = 0
		}
		return out
	}

	for _, f := range DetectionOrder {
		items, total := d.collector.CollectEvidence(obj, f)
		out[f] = Likelihood(items, total)
	}
	return out
}

func unknownResult() DetectionResult {
	confidences := make(map[SupportedFormat]float64, len(DetectionOrder))
	for _, f := range DetectionOrder {
		confidences[f] = 0
	}
	return DetectionResult{
		Format:      FormatUnknown,
		Confidences: confidences,
	}
}

// buildEvidenceSummary assembles the downstream-facing evidence block
// from the winner's matched items and the document's structural stats.
func buildEvidenceSummary(items []EvidenceItem, stats cache.DocStats) EvidenceSummary {
	summary := EvidenceSummary{
		TextLength:     stats.TextLength,
		ParameterCount: stats.ParameterCount,
		Relationships:  stats.Relationships,
	}

	for _, item := range items {
		summary.FormatIndicators = append(summary.FormatIndicators, item.Field)
		if item.Weight == WeightUnique.Value() {
			summary.UniquePatterns = append(summary.UniquePatterns, item.Field)
		}
	}

	return summary
}
